package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/subtrack/internal/metrics"
)

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-Id"

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// BearerAuth attaches "Authorization: Bearer <token>" when the source holds
// a token. With no token the header is omitted, never sent empty.
// The token is read at send time so a login or logout takes effect on the
// next request.
func BearerAuth(source TokenSource) Interceptor {
	return func(next RoundTrip) RoundTrip {
		return func(req *http.Request) (*http.Response, error) {
			if token := source.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			} else {
				req.Header.Del("Authorization")
			}
			return next(req)
		}
	}
}

// RequestID stamps each request with a fresh UUID unless one is already set.
func RequestID() Interceptor {
	return func(next RoundTrip) RoundTrip {
		return func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) == "" {
				req.Header.Set(RequestIDHeader, uuid.New().String())
			}
			return next(req)
		}
	}
}

// Logging logs every API call with its status and duration.
func Logging(logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next RoundTrip) RoundTrip {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			duration := time.Since(start).Milliseconds()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(RequestIDHeader),
				"duration_ms", duration,
			}
			switch {
			case err != nil:
				logger.Warn("API call failed", append(attrs, "error", err)...)
			case resp.StatusCode >= 500:
				logger.Error("API error", append(attrs, "status", resp.StatusCode)...)
			case resp.StatusCode >= 400:
				logger.Warn("API error", append(attrs, "status", resp.StatusCode)...)
			default:
				logger.Debug("API ok", append(attrs, "status", resp.StatusCode)...)
			}
			return resp, err
		}
	}
}

// Metrics records request counts and latency.
func Metrics(m *metrics.Metrics) Interceptor {
	return func(next RoundTrip) RoundTrip {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			m.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

			status := "error"
			switch {
			case err == nil:
				status = strconv.Itoa(resp.StatusCode)
			case errors.Is(err, context.DeadlineExceeded):
				status = "timeout"
			}
			m.RequestsTotal.WithLabelValues(req.Method, status).Inc()
			return resp, err
		}
	}
}
