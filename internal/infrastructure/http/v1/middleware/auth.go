package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/security"
)

const ctxActor = "actor"

// TokenValidator turns a bearer token into an actor.
type TokenValidator interface {
	ValidateToken(tokenString string) (security.Actor, error)
}

// Auth middleware validates the bearer token and stores the actor. The tenant
// of every request is the tenant of the token.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthenticated(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthenticated(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
			UserID:   actor.ID.String(),
			TenantID: actor.TenantID.String(),
			Roles:    actor.Roles,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set(ctxActor, actor)

		c.Next()
	}
}

// ActorFrom returns the authenticated actor of the request.
func ActorFrom(c *gin.Context) (security.Actor, bool) {
	v, ok := c.Get(ctxActor)
	if !ok {
		return security.Actor{}, false
	}
	actor, ok := v.(security.Actor)
	return actor, ok
}

func abortUnauthenticated(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthenticated(message))
	c.Abort()
}
