package apierror

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json"

// Envelope is the error body for every non-2xx response.
type Envelope struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type Option func(*Envelope)

// WithDetails attaches structured context, typically field-level
// validation failures.
func WithDetails(details interface{}) Option {
	return func(e *Envelope) {
		e.Details = details
	}
}

// Write emits the error envelope and logs it. The underlying error
// text is attached as details only outside production; 5xx log at
// error level, 4xx at warn.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, err error, env string, opts ...Option) {
	envelope := Envelope{Error: message}
	for _, opt := range opts {
		opt(&envelope)
	}

	if envelope.Details == nil && err != nil && env != "production" {
		envelope.Details = err.Error()
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(envelope.Error)
	}

	writeEnvelope(w, status, envelope)
}

func writeEnvelope(w http.ResponseWriter, status int, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
