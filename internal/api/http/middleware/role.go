package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/userhub/internal/model"
)

// RequireRole lets a request through only if the authenticated principal has
// one of roles. It must run after Authenticate.
func RequireRole(contextManager model.ContextManager, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := contextManager.GetPrincipalFromContext(c.Request.Context())
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing authorization token")
			return
		}
		if !principal.Role.In(roles...) {
			abort(c, http.StatusForbidden, "forbidden", "role "+principal.Role.String()+" is not allowed")
			return
		}
		c.Next()
	}
}
