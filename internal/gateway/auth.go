// Package gateway holds the request-level middleware that fronts every route:
// bearer-token authentication, request IDs, access logging, CORS and metrics.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/metrics"
	"storefront/internal/token"

	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is the gin context key holding the authenticated user ID.
const ContextUserIDKey = "user_id"

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the user ID attached by BearerAuth.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// CurrentUserID is the gin flavour of UserIDFrom.
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserIDKey)
	return id, id != ""
}

// Authenticate resolves the Authorization header value to a user ID.
func Authenticate(verifier token.Verifier, header string) (string, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return "", apperr.Unauthenticated("missing bearer token", nil)
	}

	userID, err := verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return "", apperr.Unauthenticated("token expired", err)
		}
		return "", apperr.Unauthenticated("invalid token", err)
	}

	return userID, nil
}

// BearerAuth rejects requests without a valid bearer token before any
// downstream handler runs, and injects the user ID otherwise.
func BearerAuth(verifier token.Verifier, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Authenticate(verifier, c.GetHeader("Authorization"))
		if err != nil {
			reason := failureReason(err)
			m.RecordAuthFailure(reason)
			slog.Warn("Rejected request",
				"reason", reason,
				"path", c.Request.URL.Path,
				"request_id", c.GetString("request_id"),
			)
			apperr.Respond(c, err)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrInvalidToken):
		return "invalid"
	default:
		return "missing"
	}
}
