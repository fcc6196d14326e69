// Package api provides the HTTP surface of the Language Peer engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/asharanees/language-peer/internal/domain"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DomainError maps engine errors onto HTTP statuses and writes the
// response. Validation failures carry their field detail; everything
// unrecognized becomes a 500 with a generic body so internals never leak.
func DomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrAgentNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionInactive):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrExternalService):
		Error(w, http.StatusBadGateway, "upstream service failure")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses a request body into v, limiting the body size.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
