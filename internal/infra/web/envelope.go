package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ott-subscription-gateway/internal/domain"
)

// Envelope is the uniform response shape: status mirrors the HTTP code as
// a string, data is null on every failure.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:  strconv.Itoa(code),
		Message: message,
		Data:    data,
	})
}

// writeMessage is the bare {message} shape the auth middleware uses.
func writeMessage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// writeError maps any orchestration failure to its envelope exactly once,
// at the top level. The error kind decides the status code; the message
// text is surfaced verbatim, nothing else leaks.
func writeError(w http.ResponseWriter, err error) {
	code := domain.KindOf(err).HTTPStatus()
	msg := err.Error()
	if msg == "" {
		msg = "Internal server error"
	}
	writeEnvelope(w, code, msg, nil)
}
