package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/barber-availability/internal/observability/metrics"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

var availabilityTracer = otel.Tracer("booking.internal.availability")

// StaffDirectory resolves staff records. GetStaffMember returns ErrNotFound when absent.
type StaffDirectory interface {
	GetStaffMember(ctx context.Context, businessID, staffID string) (StaffMember, error)
	ListStaffMembers(ctx context.Context, businessID string) ([]StaffMember, error)
}

// ServiceCatalog resolves services. GetService returns ErrNotFound when absent.
type ServiceCatalog interface {
	GetService(ctx context.Context, businessID, serviceID string) (Service, error)
}

// AppointmentLedger lists a staff member's appointments for one civil date.
type AppointmentLedger interface {
	ListAppointments(ctx context.Context, businessID, staffID string, date civil.Date) ([]Appointment, error)
}

// RangeAppointmentLedger is implemented by ledgers that can return a whole
// inclusive date range in one call. The engine prefers it when available.
type RangeAppointmentLedger interface {
	ListAppointmentsBetween(ctx context.Context, businessID, staffID string, from, to civil.Date) ([]Appointment, error)
}

// Engine computes free slots. It holds no per-query state and is safe for concurrent use.
type Engine struct {
	staff            StaffDirectory
	services         ServiceCatalog
	ledger           AppointmentLedger
	logger           *logging.Logger
	metrics          *metrics.AvailabilityMetrics
	staffConcurrency int
}

// Option customizes an Engine.
type Option func(*Engine)

func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *metrics.AvailabilityMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStaffConcurrency bounds how many staff members are computed at once in
// GetAvailabilityAcrossStaff. Values below 2 keep the walk sequential.
func WithStaffConcurrency(n int) Option {
	return func(e *Engine) { e.staffConcurrency = n }
}

// NewEngine wires the engine to its collaborators.
func NewEngine(staff StaffDirectory, services ServiceCatalog, ledger AppointmentLedger, opts ...Option) *Engine {
	if staff == nil || services == nil || ledger == nil {
		panic("availability: staff directory, service catalog and appointment ledger are required")
	}
	e := &Engine{
		staff:            staff,
		services:         services,
		ledger:           ledger,
		logger:           logging.Default(),
		staffConcurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetAvailability returns one DaySlots per date in [initialDate, finalDate] for a
// single staff member. Any failure discards the whole result.
func (e *Engine) GetAvailability(ctx context.Context, businessID, serviceID, staffID string, initialDate, finalDate civil.Date) (days []DaySlots, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.get", trace.WithAttributes(
		attribute.String("booking.business_id", businessID),
		attribute.String("booking.service_id", serviceID),
		attribute.String("booking.staff_id", staffID),
		attribute.String("booking.initial_date", initialDate.String()),
		attribute.String("booking.final_date", finalDate.String()),
	))
	defer span.End()
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		e.metrics.ObserveQuery("single_staff", outcomeOf(err), time.Since(started).Seconds())
	}()

	staff, err := e.staff.GetStaffMember(ctx, businessID, staffID)
	if err != nil {
		return nil, err
	}
	service, err := e.services.GetService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if service.Duration <= 0 {
		return nil, fmt.Errorf("%w: service %s has duration %d", ErrInvalidArgument, service.ID, service.Duration)
	}

	days, err = e.staffRange(ctx, businessID, staff, service.Duration, initialDate, finalDate)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("availability computed",
		"business_id", businessID,
		"service_id", serviceID,
		"staff_id", staffID,
		"days", len(days),
	)
	return days, nil
}

// GetAvailabilityAcrossStaff merges every staff member's free slots into one
// calendar per date, listing which staff are free at each slot boundary.
func (e *Engine) GetAvailabilityAcrossStaff(ctx context.Context, businessID, serviceID string, initialDate, finalDate civil.Date) (merged []DayMergedSlots, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.get_across_staff", trace.WithAttributes(
		attribute.String("booking.business_id", businessID),
		attribute.String("booking.service_id", serviceID),
		attribute.String("booking.initial_date", initialDate.String()),
		attribute.String("booking.final_date", finalDate.String()),
	))
	defer span.End()
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		e.metrics.ObserveQuery("multi_staff", outcomeOf(err), time.Since(started).Seconds())
	}()

	members, err := e.staff.ListStaffMembers(ctx, businessID)
	if err != nil {
		return nil, err
	}
	service, err := e.services.GetService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("booking.staff_count", len(members)))
	if len(members) == 0 {
		return []DayMergedSlots{}, nil
	}
	if service.Duration <= 0 {
		return nil, fmt.Errorf("%w: service %s has duration %d", ErrInvalidArgument, service.ID, service.Duration)
	}

	perStaff, err := e.computeStaff(ctx, businessID, members, service.Duration, initialDate, finalDate)
	if err != nil {
		return nil, err
	}
	merged = MergeStaffSlots(members, perStaff)
	e.logger.Debug("merged availability computed",
		"business_id", businessID,
		"service_id", serviceID,
		"staff_count", len(members),
		"days", len(merged),
	)
	return merged, nil
}

// computeStaff runs the per-staff walk for every member. Results are indexed by
// the member's position so the merge order never depends on scheduling.
func (e *Engine) computeStaff(ctx context.Context, businessID string, members []StaffMember, duration int, from, to civil.Date) ([][]DaySlots, error) {
	results := make([][]DaySlots, len(members))
	if e.staffConcurrency < 2 {
		for i, member := range members {
			days, err := e.staffRange(ctx, businessID, member, duration, from, to)
			if err != nil {
				return nil, err
			}
			results[i] = days
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.staffConcurrency)
	for i, member := range members {
		g.Go(func() error {
			days, err := e.staffRange(gctx, businessID, member, duration, from, to)
			if err != nil {
				return err
			}
			results[i] = days
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// staffRange walks [from, to] one civil day at a time. Appointments are fetched
// per day (or once for the range) and handed to ResolveDay by value.
func (e *Engine) staffRange(ctx context.Context, businessID string, staff StaffMember, duration int, from, to civil.Date) ([]DaySlots, error) {
	days := []DaySlots{}
	if from.After(to) {
		return days, nil
	}

	if ranged, ok := e.ledger.(RangeAppointmentLedger); ok {
		appointments, err := ranged.ListAppointmentsBetween(ctx, businessID, staff.ID, from, to)
		e.metrics.ObserveAppointmentFetch("range")
		if err != nil {
			return nil, err
		}
		byDate := partitionByDate(appointments)
		for date := from; !date.After(to); date = date.AddDays(1) {
			day, err := ResolveDay(staff, date, duration, byDate[date])
			if err != nil {
				return nil, err
			}
			days = append(days, day)
		}
		return days, nil
	}

	for date := from; !date.After(to); date = date.AddDays(1) {
		appointments, err := e.ledger.ListAppointments(ctx, businessID, staff.ID, date)
		e.metrics.ObserveAppointmentFetch("day")
		if err != nil {
			return nil, err
		}
		day, err := ResolveDay(staff, date, duration, appointments)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func partitionByDate(appointments []Appointment) map[civil.Date][]Appointment {
	out := make(map[civil.Date][]Appointment)
	for _, appt := range appointments {
		out[appt.Date] = append(out[appt.Date], appt)
	}
	return out
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "error"
	}
}
