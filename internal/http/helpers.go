package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"nassets/internal/core"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// writeError maps domain errors onto the HTTP taxonomy. Anything
// unrecognized is a 500 with the detail withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	detail := err.Error()

	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		detail = "not found"
	case errors.Is(err, core.ErrUnauthenticated):
		status = http.StatusUnauthorized
		detail = "could not validate credentials"
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, core.ErrDuplicateUser):
		status = http.StatusBadRequest
		detail = "email or username already registered"
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
		detail = "conflicting concurrent update, retry"
	case isValidationErr(err):
		status = http.StatusUnprocessableEntity
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		status = http.StatusInternalServerError
		detail = "internal server error"
	}

	writeJSON(w, status, map[string]string{"detail": detail})
}

func isValidationErr(err error) bool {
	for _, target := range []error{
		core.ErrEmptyTitle,
		core.ErrTitleTooLong,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidRecurrence,
		core.ErrInvalidPercentage,
		core.ErrInvalidPeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"detail": detail})
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// parseYearMonth reads the mandatory year and month query parameters.
func parseYearMonth(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, core.ErrInvalidPeriod
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, core.ErrInvalidPeriod
	}
	return year, month, nil
}
