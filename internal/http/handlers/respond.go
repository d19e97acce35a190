package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps availability sentinels to status codes. Anything else is a 500
// and is logged; its text never reaches the client.
func writeError(w http.ResponseWriter, logger *logging.Logger, r *http.Request, err error) {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, availability.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
