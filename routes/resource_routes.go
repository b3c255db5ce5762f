package routes

import (
	"github.com/gin-gonic/gin"

	"docveil/controllers"
	"docveil/middleware"
	"docveil/models"
)

func RegisterResourceRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	controller := controllers.NewResourceController(container.ResourceService)

	resources := rg.Group("/resources")
	resources.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		resources.POST("/departments", controller.CreateDepartment)
		resources.POST("/folders", controller.CreateFolder)
		resources.POST("/documents", controller.CreateDocument)

		resources.GET("/:type/:id",
			middleware.RequirePermission(container.AccessService, models.PermissionView),
			controller.Get)

		// Structural operations, addressed by kind + id.
		resources.POST("/:type/:id/move", controller.Move)
		resources.DELETE("/:type/:id", controller.SoftDelete)
		resources.POST("/:type/:id/restore", controller.Restore)
		resources.DELETE("/:type/:id/permanent", controller.PermanentDelete)
	}

	containers := rg.Group("/containers")
	containers.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		containers.GET("/:id/contents", controller.GetContents)
	}

	trash := rg.Group("/trash")
	trash.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		trash.GET("/", controller.ListTrash)
	}
}
