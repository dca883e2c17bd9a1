package routes

import (
	"launchcontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAdminActionRoutes sets up all routes related to dual-control actions
func SetupAdminActionRoutes(r *gin.Engine) {
	actions := r.Group("/admin-actions")
	{
		actions.POST("", handlers.RequestAdminAction)
		actions.GET("", handlers.ListAdminActions)
		actions.GET("/:id", handlers.GetAdminAction)
		actions.POST("/:id/approve", handlers.ApproveAdminAction)
		actions.POST("/:id/reject", handlers.RejectAdminAction)
		actions.POST("/:id/execute", handlers.ExecuteAdminAction)
	}
}
