package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"betledger/internal/auth"
	"betledger/internal/log"
	"betledger/internal/services"
	"betledger/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string   `json:"error"`
	Warnings []string `json:"warnings,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	// Headers are gone by now; a failed write only means the client left.
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status for err. The message is the error
// text so that storage failures reach the client verbatim.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
	}
	respondError(w, status, err.Error())
}
