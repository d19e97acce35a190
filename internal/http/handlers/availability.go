package handlers

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// AvailabilityQuerier is implemented by *availability.Engine.
type AvailabilityQuerier interface {
	GetAvailability(ctx context.Context, businessID, serviceID, staffID string, initialDate, finalDate civil.Date) ([]availability.DaySlots, error)
	GetAvailabilityAcrossStaff(ctx context.Context, businessID, serviceID string, initialDate, finalDate civil.Date) ([]availability.DayMergedSlots, error)
}

// AvailabilityHandlerConfig configures an AvailabilityHandler.
type AvailabilityHandlerConfig struct {
	Engine       AvailabilityQuerier
	Logger       *logging.Logger
	Location     *time.Location
	MaxRangeDays int
	Now          func() time.Time
}

// AvailabilityHandler serves free-slot queries.
type AvailabilityHandler struct {
	engine       AvailabilityQuerier
	logger       *logging.Logger
	location     *time.Location
	maxRangeDays int
	now          func() time.Time
}

type staffAvailabilityResponse struct {
	BusinessID string                  `json:"businessId"`
	StaffID    string                  `json:"staffId"`
	FreeSlots  []availability.DaySlots `json:"freeSlots"`
}

type mergedAvailabilityResponse struct {
	BusinessID string                        `json:"businessId"`
	FreeSlots  []availability.DayMergedSlots `json:"freeSlots"`
}

func NewAvailabilityHandler(cfg AvailabilityHandlerConfig) *AvailabilityHandler {
	if cfg.Engine == nil {
		panic("handlers: availability engine required")
	}
	h := &AvailabilityHandler{
		engine:       cfg.Engine,
		logger:       cfg.Logger,
		location:     cfg.Location,
		maxRangeDays: cfg.MaxRangeDays,
		now:          cfg.Now,
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}
	if h.location == nil {
		h.location = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// GetStaffAvailability handles GET /businesses/{businessID}/services/{serviceID}/staff/{staffID}/availability
func (h *AvailabilityHandler) GetStaffAvailability(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	serviceID := chi.URLParam(r, "serviceID")
	staffID := chi.URLParam(r, "staffID")

	initial, final, err := parseDateRange(r, h.now(), h.location, h.maxRangeDays)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	days, err := h.engine.GetAvailability(r.Context(), businessID, serviceID, staffID, initial, final)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffAvailabilityResponse{
		BusinessID: businessID,
		StaffID:    staffID,
		FreeSlots:  days,
	})
}

// GetServiceAvailability handles GET /businesses/{businessID}/services/{serviceID}/availability
func (h *AvailabilityHandler) GetServiceAvailability(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	serviceID := chi.URLParam(r, "serviceID")

	initial, final, err := parseDateRange(r, h.now(), h.location, h.maxRangeDays)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	merged, err := h.engine.GetAvailabilityAcrossStaff(r.Context(), businessID, serviceID, initial, final)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mergedAvailabilityResponse{
		BusinessID: businessID,
		FreeSlots:  merged,
	})
}
