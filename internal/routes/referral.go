package routes

import (
	"launchcontrol/internal/handlers"
	"launchcontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReferralRoutes sets up all routes related to the referral ledger
func SetupReferralRoutes(r *gin.Engine) {
	referral := r.Group("/referral")
	{
		referral.POST("/accrue", handlers.AccrueReferralReward)
		referral.POST("/claim", handlers.ClaimReferralRewards)
		referral.POST("/manual-adjust", handlers.ManualAdjustReferral)
		referral.GET("/entries", handlers.ListReferralEntries)
		referral.POST("/distribution-source", handlers.RegisterDistributionSource)
	}

	// Reconciliation sums the full ledger for the pair, so it is rate
	// limited per IP
	reconcile := r.Group("/referral")
	reconcile.Use(middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 0.5, // 1 request every 2 seconds
		Burst:             1,
	}))
	reconcile.GET("/reconcile", handlers.ReconcileReferrals)
}
