package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/totem-api/internal/api/shared"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/service/auth"
)

// AuthMiddleware derives the caller's principal from a bearer JWT.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates the Authorization header when one is present and
// stores the principal in the request context. Requests without the header
// continue as anonymous; role checks happen in the services.
// A malformed, invalid or expired token is rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) == 1 && strings.EqualFold(parts[0], "Bearer") {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Authentication required", auth.ErrMissingToken, shared.WithElevatedLogLevel())
			return
		}
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Invalid authorization format", auth.ErrInvalidToken, shared.WithElevatedLogLevel())
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Token expired", err, shared.WithElevatedLogLevel())
			case errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Authentication required", err, shared.WithElevatedLogLevel())
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Invalid token", err, shared.WithElevatedLogLevel())
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
					"Authentication error", err)
			}
			return
		}

		principal := claims.Principal()
		ctx := shared.WithPrincipal(r.Context(), principal)
		log := logger.FromContext(ctx).With(
			slog.Int64("user_id", principal.UserID),
			slog.String("role", string(principal.Role)),
		)
		ctx = logger.WithLogger(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
