package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gagyebu/internal/core"
	applog "gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/store"
)

// apiError is the JSON error envelope every failure response uses.
type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Unmapped errors
// become an opaque 500 so storage details never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, store.ErrDuplicateCategory.Error())
	case errors.Is(err, services.ErrNoStats):
		writeError(w, http.StatusBadRequest, "no data to analyze")
	case errors.Is(err, services.ErrNoAnalyzer):
		writeError(w, http.StatusServiceUnavailable, "analysis not configured")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		fields := applog.NewFields().WithError(err)
		fields[applog.FieldMethod] = r.Method
		fields[applog.FieldPath] = r.URL.Path
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", fields.ToSlice()...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyPlace,
		core.ErrEmptyProductName,
		core.ErrEmptyName,
		core.ErrInvalidQuantity,
		core.ErrInvalidUnitPrice,
		core.ErrInvalidAmount,
		core.ErrInvalidPeriod,
		core.ErrTotalMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
