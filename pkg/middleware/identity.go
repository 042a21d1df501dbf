package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Caller identity is delegated to the hosted auth provider; the edge proxy
// verifies the session and forwards the subject in these headers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

const (
	RoleInfluencer = "influencer"
	RoleBrand      = "brand"
	RoleAdmin      = "admin"
)

// key type so the context entry cannot collide
type actorKey struct{}

type Actor struct {
	ID   string
	Role string
}

// Identity copies the auth-provider identity headers into the request
// context. Requests without an identity pass through; services reject them
// with an authentication error when the operation requires a caller.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderUserID)
		if id == "" {
			c.Next()
			return
		}

		actor := Actor{
			ID:   id,
			Role: c.GetHeader(HeaderUserRole),
		}

		ctx := WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller identity, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
