package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/infrastructure/influxdb"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUser      contextKey = "user"
	ctxKeyToken     contextKey = "token"
)

// Authorization chain stages and outcomes, used as metric labels.
const (
	stageToken      = "token"
	stageIdentity   = "identity"
	stageCapability = "capability"
	outcomeAllowed  = "allowed"
	outcomeDenied   = "denied"
)

// forbiddenMessages holds the 403 message for each capability.
var forbiddenMessages = map[auth.Capability]string{
	auth.CapAdminOnly:      msgAdminsOnly,
	auth.CapAdminOrManager: msgAdminsOrManagers,
	auth.CapUpdateOwnTask:  msgNotAssignee,
}

// requestIDMiddleware generates a unique request ID for each request.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request and records it in Prometheus and
// InfluxDB under its route pattern.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.prom.ObserveRequest(r.Method, route, wrapped.status, duration)
		s.influx.WriteRequest(r.Method, route, wrapped.status, duration)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", duration.Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(err)
				}
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeInternalError(w, "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles Cross-Origin Resource Sharing headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", joinOrDefault(s.cfg.CORS.AllowedMethods, "GET, POST, PUT, PATCH, DELETE, OPTIONS"))
			w.Header().Set("Access-Control-Allow-Headers", joinOrDefault(s.cfg.CORS.AllowedHeaders, "Authorization, Content-Type, X-Request-ID"))
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// protect requires "Authorization: Bearer <token>" naming the caller's
// current session. On success the user and raw token are stored in the
// request context.
func (s *Server) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.recordAuthDecision(stageToken, outcomeDenied, "", "missing_token")
			writeUnauthorized(w, msgNoToken)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), raw)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenInvalid):
			s.recordAuthDecision(stageToken, outcomeDenied, "", "invalid_token")
			writeUnauthorized(w, msgInvalidToken)
			return
		case errors.Is(err, auth.ErrTokenMismatch):
			s.recordAuthDecision(stageIdentity, outcomeDenied, "", "token_mismatch")
			writeUnauthorized(w, msgTokenMismatch)
			return
		default:
			s.logger.Error("resolving identity failed", "error", err,
				"request_id", r.Context().Value(ctxKeyRequestID))
			writeInternalError(w, "failed to authenticate request", err)
			return
		}

		s.recordAuthDecision(stageIdentity, outcomeAllowed, "", "")
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyToken, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability gates a route group on a resource-independent
// capability. It must run after protect.
func (s *Server) requireCapability(c auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.authorize(w, r, c, nil) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authorize evaluates c for the current user against resource. On denial
// it writes the capability's 403 and returns false.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, c auth.Capability, resource any) bool {
	if err := auth.Authorize(userFromContext(r.Context()), c, resource); err != nil {
		s.recordAuthDecision(stageCapability, outcomeDenied, string(c), "forbidden")
		writeForbidden(w, forbiddenMessages[c])
		return false
	}
	s.recordAuthDecision(stageCapability, outcomeAllowed, string(c), "")
	return true
}

func (s *Server) recordAuthDecision(stage, outcome, capability, reason string) {
	s.prom.ObserveAuthDecision(stage, outcome, capability)
	s.influx.WriteAuthDecision(influxdb.AuthDecision{
		Stage:      stage,
		Outcome:    outcome,
		Capability: capability,
		Reason:     reason,
	})
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// userFromContext returns the user set by protect, or nil.
func userFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(ctxKeyUser).(*auth.User) //nolint:errcheck // type assertion, not an error
	return u
}

// isAllowedOrigin checks if the origin is in the allowed list.
// An empty list allows all origins (dev mode).
func (s *Server) isAllowedOrigin(origin string) bool {
	if len(s.cfg.CORS.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CORS.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestIDBytes is the number of random bytes used for request IDs.
const requestIDBytes = 8

// generateRequestID creates a random hex request ID.
func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// joinOrDefault joins a string slice with ", " or returns the default if empty.
func joinOrDefault(values []string, defaultVal string) string {
	if len(values) == 0 {
		return defaultVal
	}
	return strings.Join(values, ", ")
}
