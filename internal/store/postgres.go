package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/barber-availability/internal/availability"
)

// pgQuerier is satisfied by *pgxpool.Pool and pgxmock pools.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore reads the same records as DynamoStore from relational tables.
type PostgresStore struct {
	db pgQuerier
}

var (
	_ availability.StaffDirectory         = (*PostgresStore)(nil)
	_ availability.ServiceCatalog         = (*PostgresStore)(nil)
	_ availability.AppointmentLedger      = (*PostgresStore)(nil)
	_ availability.RangeAppointmentLedger = (*PostgresStore)(nil)
)

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(db pgQuerier) *PostgresStore {
	if db == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetBusiness(ctx context.Context, businessID string) (availability.Business, error) {
	query := `
		SELECT id, name, description, image, url, address, city, state, zip, country, phone, email, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	var b availability.Business
	err := s.db.QueryRow(ctx, query, businessID).Scan(
		&b.ID, &b.Name, &b.Description, &b.Image, &b.URL, &b.Address, &b.City,
		&b.State, &b.Zip, &b.Country, &b.Phone, &b.Email, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Business{}, fmt.Errorf("store: business %s: %w", businessID, availability.ErrNotFound)
	}
	if err != nil {
		return availability.Business{}, fmt.Errorf("store: select business: %w", err)
	}
	return b, nil
}

const serviceColumns = `id, business_id, name, description, price, duration_minutes, created_at, updated_at`

func (s *PostgresStore) GetService(ctx context.Context, businessID, serviceID string) (availability.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE business_id = $1 AND id = $2`
	svc, err := scanService(s.db.QueryRow(ctx, query, businessID, serviceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Service{}, fmt.Errorf("store: service %s: %w", serviceID, availability.ErrNotFound)
	}
	if err != nil {
		return availability.Service{}, fmt.Errorf("store: select service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) ListServices(ctx context.Context, businessID string) ([]availability.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE business_id = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("store: list services: %w", err)
	}
	defer rows.Close()

	services := []availability.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list services: %w", err)
	}
	return services, nil
}

const staffColumns = `id, business_id, name, availability, created_at, updated_at`

func (s *PostgresStore) GetStaffMember(ctx context.Context, businessID, staffID string) (availability.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE business_id = $1 AND id = $2`
	member, err := scanStaff(s.db.QueryRow(ctx, query, businessID, staffID))
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.StaffMember{}, fmt.Errorf("store: staff %s: %w", staffID, availability.ErrNotFound)
	}
	if err != nil {
		return availability.StaffMember{}, fmt.Errorf("store: select staff: %w", err)
	}
	return member, nil
}

// ListStaffMembers returns staff ordered by id so merged calendars list staff stably.
func (s *PostgresStore) ListStaffMembers(ctx context.Context, businessID string) ([]availability.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE business_id = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("store: list staff: %w", err)
	}
	defer rows.Close()

	members := []availability.StaffMember{}
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan staff: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list staff: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) ListAppointments(ctx context.Context, businessID, staffID string, date civil.Date) ([]availability.Appointment, error) {
	return s.ListAppointmentsBetween(ctx, businessID, staffID, date, date)
}

func (s *PostgresStore) ListAppointmentsBetween(ctx context.Context, businessID, staffID string, from, to civil.Date) ([]availability.Appointment, error) {
	if from.After(to) {
		return []availability.Appointment{}, nil
	}
	query := `
		SELECT id, staff_id, appointment_date, initial_time, final_time
		FROM appointments
		WHERE business_id = $1 AND staff_id = $2 AND appointment_date BETWEEN $3 AND $4
		ORDER BY appointment_date, initial_time
	`
	rows, err := s.db.Query(ctx, query, businessID, staffID, from.In(time.UTC), to.In(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	appts := []availability.Appointment{}
	for rows.Next() {
		var (
			a                    availability.Appointment
			day                  time.Time
			initialRaw, finalRaw string
		)
		if err := rows.Scan(&a.ID, &a.StaffID, &day, &initialRaw, &finalRaw); err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		a.Date = civil.DateOf(day)
		if a.InitialTime, err = availability.ParseTimeOfDay(initialRaw); err != nil {
			return nil, fmt.Errorf("store: appointment %s: %v", a.ID, err)
		}
		if a.FinalTime, err = availability.ParseTimeOfDay(finalRaw); err != nil {
			return nil, fmt.Errorf("store: appointment %s: %v", a.ID, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	return appts, nil
}

// PutStaffMember upserts a staff record; the schedule must pass Validate.
func (s *PostgresStore) PutStaffMember(ctx context.Context, m availability.StaffMember) error {
	if err := m.Availability.Validate(); err != nil {
		return fmt.Errorf("store: staff %s: %w", m.ID, err)
	}
	weekly, err := json.Marshal(m.Availability)
	if err != nil {
		return fmt.Errorf("store: marshal availability: %w", err)
	}
	query := `
		INSERT INTO staff_members (id, business_id, name, availability)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (business_id, id) DO UPDATE
		SET name = EXCLUDED.name, availability = EXCLUDED.availability, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, m.ID, m.BusinessID, m.Name, weekly); err != nil {
		return fmt.Errorf("store: upsert staff: %w", err)
	}
	return nil
}

// PutBusiness upserts a business record.
func (s *PostgresStore) PutBusiness(ctx context.Context, b availability.Business) error {
	query := `
		INSERT INTO businesses (id, name, description, image, url, address, city, state, zip, country, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, image = EXCLUDED.image,
			url = EXCLUDED.url, address = EXCLUDED.address, city = EXCLUDED.city, state = EXCLUDED.state,
			zip = EXCLUDED.zip, country = EXCLUDED.country, phone = EXCLUDED.phone, email = EXCLUDED.email,
			updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, b.ID, b.Name, b.Description, b.Image, b.URL, b.Address,
		b.City, b.State, b.Zip, b.Country, b.Phone, b.Email); err != nil {
		return fmt.Errorf("store: upsert business: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutService(ctx context.Context, svc availability.Service) error {
	if svc.Duration <= 0 {
		return fmt.Errorf("store: service %s duration %d: %w", svc.ID, svc.Duration, availability.ErrInvalidArgument)
	}
	query := `
		INSERT INTO services (id, business_id, name, description, price, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (business_id, id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
			duration_minutes = EXCLUDED.duration_minutes, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, svc.ID, svc.BusinessID, svc.Name, svc.Description, svc.Price, svc.Duration); err != nil {
		return fmt.Errorf("store: upsert service: %w", err)
	}
	return nil
}

// PutAppointment upserts a booking. Times are stored as HH:MM text.
func (s *PostgresStore) PutAppointment(ctx context.Context, businessID string, a availability.Appointment) error {
	query := `
		INSERT INTO appointments (id, business_id, staff_id, appointment_date, initial_time, final_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (business_id, id) DO UPDATE
		SET staff_id = EXCLUDED.staff_id, appointment_date = EXCLUDED.appointment_date,
			initial_time = EXCLUDED.initial_time, final_time = EXCLUDED.final_time
	`
	if _, err := s.db.Exec(ctx, query, a.ID, businessID, a.StaffID, a.Date.In(time.UTC),
		a.InitialTime.String(), a.FinalTime.String()); err != nil {
		return fmt.Errorf("store: upsert appointment: %w", err)
	}
	return nil
}

func scanService(row pgx.Row) (availability.Service, error) {
	var svc availability.Service
	err := row.Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.Description, &svc.Price, &svc.Duration, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

func scanStaff(row pgx.Row) (availability.StaffMember, error) {
	var (
		m      availability.StaffMember
		weekly []byte
	)
	if err := row.Scan(&m.ID, &m.BusinessID, &m.Name, &weekly, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return m, err
	}
	// Bad stored data is flattened with %v so it never matches ErrInvalidArgument.
	if len(weekly) > 0 {
		if err := json.Unmarshal(weekly, &m.Availability); err != nil {
			return m, fmt.Errorf("decode availability for %s: %v", m.ID, err)
		}
	}
	if err := m.Availability.Validate(); err != nil {
		return m, fmt.Errorf("staff %s: %v", m.ID, err)
	}
	return m, nil
}
