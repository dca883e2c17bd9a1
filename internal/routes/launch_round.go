package routes

import (
	"launchcontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupLaunchRoundRoutes sets up all routes related to round lifecycle and gating
func SetupLaunchRoundRoutes(r *gin.Engine) {
	rounds := r.Group("/rounds")
	{
		rounds.POST("", handlers.CreateLaunchRound)
		rounds.GET("", handlers.ListLaunchRounds)
		rounds.GET("/:id", handlers.GetLaunchRound)
		rounds.POST("/:id/transition", handlers.TransitionLaunchRound)
		rounds.POST("/:id/settlement", handlers.ApplySettlementSignal)
		rounds.POST("/:id/vesting-status", handlers.UpdateVestingStatus)
		rounds.POST("/:id/lock-status", handlers.UpdateLockStatus)
		rounds.POST("/:id/finalize", handlers.FinalizeLaunchRound)
		rounds.POST("/:id/gate-evaluate", handlers.EvaluateRoundGates)
		rounds.GET("/:id/gate-status", handlers.GetRoundGateStatus)
	}

	// push feed of finalization events across all rounds
	r.GET("/gate-events", handlers.GateEventsFeed)
}
