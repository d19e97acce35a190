package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// BusinessReader exposes the catalog records behind the booking screens.
type BusinessReader interface {
	GetBusiness(ctx context.Context, businessID string) (availability.Business, error)
	ListServices(ctx context.Context, businessID string) ([]availability.Service, error)
	ListStaffMembers(ctx context.Context, businessID string) ([]availability.StaffMember, error)
}

// BusinessHandler serves business, service and staff listings.
type BusinessHandler struct {
	reader BusinessReader
	logger *logging.Logger
}

func NewBusinessHandler(reader BusinessReader, logger *logging.Logger) *BusinessHandler {
	if reader == nil {
		panic("handlers: business reader required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BusinessHandler{reader: reader, logger: logger}
}

// GetBusiness handles GET /businesses/{businessID}
func (h *BusinessHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	business, err := h.reader.GetBusiness(r.Context(), businessID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"business": business})
}

// ListServices handles GET /businesses/{businessID}/services
func (h *BusinessHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	services, err := h.reader.ListServices(r.Context(), businessID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if services == nil {
		services = []availability.Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"businessId": businessID,
		"services":   services,
	})
}

// ListStaff handles GET /businesses/{businessID}/staff
func (h *BusinessHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	staff, err := h.reader.ListStaffMembers(r.Context(), businessID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if staff == nil {
		staff = []availability.StaffMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"businessId": businessID,
		"staff":      staff,
	})
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
