package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 64
	maxLoggedBodyBytes = 1024
)

type contextKey int

const requestIDKey contextKey = iota

// statusRecorder keeps the status code, the response size and the first
// maxLogBytes of the body for the access log.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	logBody      bytes.Buffer
	truncated    bool
	bytesWritten int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	n, err := s.ResponseWriter.Write(p)
	s.bytesWritten += n

	if s.maxLogBytes > 0 && n > 0 {
		chunk := p[:n]
		remaining := s.maxLogBytes - s.logBody.Len()
		if len(chunk) > remaining {
			chunk = chunk[:max(remaining, 0)]
			s.truncated = true
		}
		s.logBody.Write(chunk)
	}
	return n, err
}

func withRequestLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedBodyBytes,
		}
		next.ServeHTTP(recorder, r)

		var event *zerolog.Event
		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			event = log.Error()
		case recorder.statusCode >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event = event.
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.statusCode).
			Int("bytes", recorder.bytesWritten).
			Dur("duration", time.Since(start))
		if recorder.statusCode >= http.StatusBadRequest {
			event = event.Str("body", recorder.logBody.String()).Bool("body_truncated", recorder.truncated)
		}
		event.Msg("http request")
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
