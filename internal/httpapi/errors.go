package httpapi

import (
	"encoding/json"
	"net/http"

	"modelkit/pkg/types"
)

// Stable error kinds surfaced in every failure payload.
const (
	kindInvalidInput   = "invalid_input"
	kindUnknownCommand = "unknown_command"
	kindSerialization  = "serialization_error"
	kindHandlerError   = "handler_error"
	kindTooBusy        = "too_busy"
	kindNotReady       = "not_ready"
	kindInternal       = "internal"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Kind: kind, Code: status})
}
