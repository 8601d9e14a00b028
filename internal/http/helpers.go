package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bottega/internal/core"
	"bottega/internal/services"
	"bottega/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeBody parses a JSON request body into dst, rejecting unknown fields
// and oversized payloads.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseDateField parses a required YYYY-MM-DD field.
func parseDateField(name, value string) (core.CivilDate, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return core.CivilDate{}, fmt.Errorf("missing %s", name)
	}
	d, err := core.ParseCivilDate(value)
	if err != nil {
		return core.CivilDate{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// queryInt parses an integer query parameter, returning the fallback when
// absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// queryInt64 parses an int64 query parameter, 0 when absent or malformed.
func queryInt64(r *http.Request, name string) int64 {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// writeServiceError maps service and storage failures onto the response
// envelope: invalid input is the client's fault, missing rows are 404,
// anything else is a server error with the detail kept out of the body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidWindow),
		errors.Is(err, services.ErrInvalidGranularity),
		errors.Is(err, services.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrExportUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
