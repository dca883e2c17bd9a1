package routes

import (
	"launchcontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAllocationRoutes sets up all routes related to allocation proofs
func SetupAllocationRoutes(r *gin.Engine) {
	allocations := r.Group("/rounds/:id/allocations")
	{
		allocations.POST("/publish", handlers.PublishAllocations)
		allocations.GET("/:wallet/proof", handlers.GetAllocationProof)
	}
}
