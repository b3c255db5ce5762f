package routes

import (
	"github.com/gin-gonic/gin"

	"docveil/controllers"
	"docveil/middleware"
)

func RegisterAccessRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	controller := controllers.NewAccessController(container.ACLService, container.AccessService)

	access := rg.Group("/access")
	access.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		access.POST("/:type/:id/grants", controller.Grant)
		access.GET("/:type/:id/grants", controller.ListGrants)
		access.DELETE("/:type/:id/grants/:subjectType/:subjectId", controller.Revoke)

		access.GET("/:type/:id/check", controller.Check)
		access.GET("/:type/:id/permissions", controller.EffectivePermissions)
	}
}
