package middleware

import (
	"strings"

	"launchcontrol/internal/handlers/business"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the upstream auth gateway after it has verified
// the session. The engine never sees credentials, only the resulting
// principal and capability set.
const (
	HeaderPrincipalID    = "X-Principal-Id"
	HeaderPrincipalRoles = "X-Principal-Roles"
)

// PrincipalMiddleware extracts the acting principal into the request
// context. Requests without identity still pass through; handlers that
// need a principal reject them individually.
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderPrincipalID))
		if id == "" {
			c.Next()
			return
		}

		var roles []string
		for _, r := range strings.Split(c.GetHeader(HeaderPrincipalRoles), ",") {
			if trimmed := strings.TrimSpace(r); trimmed != "" {
				roles = append(roles, trimmed)
			}
		}

		c.Set("principal", business.Principal{ID: id, Roles: roles})
		c.Next()
	}
}
