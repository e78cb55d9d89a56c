package web

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/infra/hitlog"
	"ott-subscription-gateway/internal/infra/logging"
	"ott-subscription-gateway/internal/infra/metrics"
)

type Middleware func(http.Handler) http.Handler

// TraceID stamps every request with a fresh correlation id, carried in
// the context and echoed in the X-Request-Id response header.
func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := uuid.NewString()
			w.Header().Set("X-Request-Id", tid)
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLog emits one structured line per request and feeds the HTTP
// request counter.
func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logging.With(r.Context(), logger)
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			metrics.IncHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(ww.status))
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// HitLog appends an audit line per API hit to the append-only hit log.
func HitLog(rec *hitlog.Recorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.Record(r.Method, r.URL.RequestURI(), clientIP(r))
			next.ServeHTTP(w, r)
		})
	}
}

// Auth validates the static x-api-key header and the bearer token against
// configuration. Either check failing rejects the request with 401 before
// any CRM call is made.
func Auth(cfg config.AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("x-api-key")
			if apiKey == "" || apiKey != cfg.APIKey {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing API Key")
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || token != cfg.BearerToken {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing Bearer Token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
