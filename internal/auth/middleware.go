package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(validator *JWTValidator, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: validator,
		logger:       logger,
	}
}

// Authenticate requires a valid Bearer token and stores the actor in the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "invalid authorization header format")
			return
		}

		actor, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "invalid or expired token")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("actor_id", actor.ID.String()),
			zap.String("role", actor.Role),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole middleware ensures the actor has one of roles
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := FromContext(r.Context())
			if !ok {
				writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "no authenticated actor")
				return
			}

			for _, role := range roles {
				if actor.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.Warn("role check failed",
				zap.String("path", r.URL.Path),
				zap.String("actor_id", actor.ID.String()),
				zap.String("role", actor.Role),
				zap.Strings("required", roles),
			)
			writeProblem(w, http.StatusForbidden, domain.ErrorTypeForbidden, "insufficient permissions")
		})
	}
}

func writeProblem(w http.ResponseWriter, status int, errType, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
