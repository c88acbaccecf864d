package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/fbaunit/internal/obs"
	"github.com/Simplici0/fbaunit/internal/pricing"
	"github.com/Simplici0/fbaunit/internal/profiles"
)

const maxBodyBytes = 1 << 20

type jsonError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		obs.Logger.Error("json_encode_failed",
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(jsonError{Error: "internal", RequestID: requestIDFromContext(r.Context())})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, details string) {
	writeJSON(w, r, status, jsonError{
		Error:     code,
		Details:   details,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeError maps engine and store errors to HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, pricing.ErrInfeasible):
		writeJSONError(w, r, http.StatusUnprocessableEntity, "infeasible", err.Error())
	case errors.Is(err, pricing.ErrAmbiguous):
		writeJSONError(w, r, http.StatusUnprocessableEntity, "ambiguous", err.Error())
	case errors.Is(err, profiles.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, "not_found", err.Error())
	default:
		obs.Logger.Error("request_failed",
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal", "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", pricing.ErrInvalidInput)
		}
		return fmt.Errorf("%w: decode request body: %v", pricing.ErrInvalidInput, err)
	}
	return nil
}

func parseNonNegativeInt(raw, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", pricing.ErrInvalidInput, field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0", pricing.ErrInvalidInput, field)
	}
	return value, nil
}

func checkFraction(value float64, field string) error {
	if value < 0 || value >= 1 {
		return fmt.Errorf("%w: %s must be in [0, 1)", pricing.ErrInvalidInput, field)
	}
	return nil
}

// queryUnits reads the optional ?units= projection size.
func queryUnits(r *http.Request) (int, bool, error) {
	raw := r.URL.Query().Get("units")
	if raw == "" {
		return 0, false, nil
	}
	units, err := parseNonNegativeInt(raw, "units")
	return units, err == nil, err
}
