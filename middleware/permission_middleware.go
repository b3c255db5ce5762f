package middleware

import (
	"github.com/gin-gonic/gin"

	"docveil/models"
	"docveil/services"
	"docveil/utils"
)

// RequirePermission gates a route on one evaluated permission. The route must
// carry :type and :id parameters naming the resource. Denied reads are
// reported as not-found so callers cannot probe for hidden resources.
func RequirePermission(access *services.AccessService, action models.PermissionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			utils.UnauthorizedResponse(c, "Not authenticated")
			c.Abort()
			return
		}

		kind, err := utils.ParseResourceKind(c.Param("type"))
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), nil)
			c.Abort()
			return
		}
		resourceID, err := utils.ParseObjectID(c.Param("id"), "resource id")
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), nil)
			c.Abort()
			return
		}

		allowed, err := access.Evaluate(c.Request.Context(), identity, kind, resourceID, action)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Permission check failed", nil)
			c.Abort()
			return
		}
		if !allowed {
			if action == models.PermissionView {
				utils.NotFoundResponse(c, "Resource not found")
			} else {
				utils.ForbiddenResponse(c, "Insufficient permissions")
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
