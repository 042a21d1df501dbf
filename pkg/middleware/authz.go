package middleware

import (
	"net/http"

	"creatorlink-platform/pkg/config"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var AccessControlModule = fx.Module("access_control",
	fx.Provide(NewEnforcer),
)

func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	enforcer, err := casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	if err != nil {
		zap.L().Error("failed to load access control policy", zap.Error(err))
		return nil, err
	}
	return enforcer, nil
}

// Authorize gates a route group by (role, path, method) against the casbin
// policy. Requests without an identity are left to the service layer, which
// reports the authentication error in the response envelope.
func Authorize(enforcer *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		allowed, err := enforcer.Enforce(actor.Role, c.FullPath(), c.Request.Method)
		if err != nil {
			zap.L().Error("access control enforcement failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "access control enforcement failed",
			})
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "role not permitted for this operation",
			})
			return
		}

		c.Next()
	}
}
