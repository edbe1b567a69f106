package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-auth-api/internal/auth"
	apierrors "github.com/yukikurage/task-auth-api/internal/errors"
	"github.com/yukikurage/task-auth-api/internal/logging"
)

// ContextKeyIdentity is the gin context key holding the authenticated Identity.
const ContextKeyIdentity = "identity"

type identityKey struct{}

// Identity is the authenticated caller of a request.
type Identity struct {
	OwnerID  string
	Username string
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthFailureRecorder counts rejected requests by reason.
type AuthFailureRecorder interface {
	AuthFailure(reason string)
}

// Auth failure reasons. They appear in logs and metrics, never in responses.
const (
	ReasonMissingHeader = "missing_header"
	ReasonMalformed     = "malformed_header"
	ReasonExpired       = "expired"
	ReasonInvalid       = "invalid"
)

// RequireAuth verifies the bearer token on every request. All rejections share
// one response body so callers cannot tell why a token was refused.
func RequireAuth(tokens TokenVerifier, recorder AuthFailureRecorder) gin.HandlerFunc {
	reject := func(c *gin.Context, reason string, err error) {
		entry := logging.FromContext(c).WithField("reason", reason)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("Rejected unauthenticated request")

		if recorder != nil {
			recorder.AuthFailure(reason)
		}
		apierrors.Unauthorized(c, "", "")
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			reject(c, ReasonMissingHeader, nil)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
			reject(c, ReasonMalformed, nil)
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			reason := ReasonInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				reason = ReasonExpired
			}
			reject(c, reason, err)
			return
		}

		identity := Identity{OwnerID: claims.OwnerID, Username: claims.Username}
		c.Set(ContextKeyIdentity, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// CurrentIdentity retrieves the authenticated identity from the gin context.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return IdentityFromContext(c.Request.Context())
	}

	identity, ok := value.(Identity)
	return identity, ok
}
