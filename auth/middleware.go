package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// APIKeyHeader is the request header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// Middleware authenticates requests by API key and checks the caller's role
// against the operation a route performs.
type Middleware struct {
	authorizer *Authorizer
	// anonymousRole is used for requests without an API key. Empty means
	// every request must carry a key.
	anonymousRole string
	logger        *zap.Logger
}

// NewMiddleware creates a middleware that requires an API key on every request.
func NewMiddleware(authorizer *Authorizer, logger *zap.Logger) *Middleware {
	return NewAnonymousMiddleware(authorizer, "", logger)
}

// NewAnonymousMiddleware creates a middleware that lets requests without an
// API key through as anonymousRole. Requests that do send a key are still
// validated.
func NewAnonymousMiddleware(authorizer *Authorizer, anonymousRole string, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		authorizer:    authorizer,
		anonymousRole: anonymousRole,
		logger:        logger,
	}
}

// Protect wraps next so it only runs for authenticated callers whose role
// may perform op.
func (m *Middleware) Protect(op Operation, next http.Handler) http.Handler {
	return m.Authenticate(m.Authorize(op)(next))
}

// Authenticate resolves the caller from the X-API-Key header and stores it
// in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)

		if apiKey == "" {
			if m.anonymousRole == "" {
				m.deny(w, r, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), nil, m.anonymousRole)))
			return
		}

		key, err := m.authorizer.AuthenticateAPIKey(apiKey)
		if err != nil {
			m.deny(w, r, "Invalid or expired API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), key, key.RoleName)))
	})
}

// Authorize checks that the authenticated role may perform operation.
func (m *Middleware) Authorize(operation Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				m.deny(w, r, "Unauthorized: no role found", http.StatusUnauthorized)
				return
			}

			allowed, err := m.authorizer.CheckPermission(role, operation)
			if err != nil {
				m.logger.Error("Permission check failed",
					zap.Error(err),
					zap.String("role", role),
					zap.String("operation", string(operation)),
					zap.String("request_id", RequestIDFromContext(r.Context())),
				)
				sendError(w, "Failed to check permissions", http.StatusInternalServerError)
				return
			}

			if !allowed {
				m.deny(w, r, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// deny logs a rejected request and writes the error response.
func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	m.logger.Info("Request denied",
		zap.String("path", r.URL.Path),
		zap.String("role", RoleFromContext(r.Context())),
		zap.String("reason", message),
		zap.Int("status", statusCode),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	sendError(w, message, statusCode)
}

func sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   http.StatusText(statusCode),
		"message": message,
		"code":    statusCode,
	})
}
