// Package shared centralizes the transport's response envelope so every
// handler answers the same shape: success is {message, result}, failure is
// {message} with a non-success status derived from the error code.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "firledger/pkg/domain-errors"
)

// Envelope is the success response body.
type Envelope struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// ErrorEnvelope is the failure response body.
type ErrorEnvelope struct {
	Message string `json:"message"`
}

// WriteSuccess encodes a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Message: message, Result: result})
}

// WriteError translates a domain error into its HTTP status and envelope.
// Uncoded errors respond 500 with a generic message; internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.HTTPStatus(code))
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Message: dErrors.MessageOf(err)})
}
