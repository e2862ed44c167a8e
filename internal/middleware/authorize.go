package middleware

import (
	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
	"launchpad/internal/policy"
	"launchpad/internal/response"
)

// RequireCapability guards routes whose capability does not depend on a
// resource owner. Owner checks happen in the services once the record is
// loaded.
func RequireCapability(capability policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, apperr.Unauthorized("missing credential"))
			return
		}
		if err := policy.Authorize(user, capability, ""); err != nil {
			response.Error(c, apperr.From(err))
			return
		}
		c.Next()
	}
}
