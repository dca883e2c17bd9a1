package handlers

import (
	"net/http"

	"launchcontrol/internal/handlers/business"
	"launchcontrol/internal/models"

	"github.com/gin-gonic/gin"
)

// AccrueReferralRequest represents a contribution-derived accrual
type AccrueReferralRequest struct {
	ReferrerID string `json:"referrer_id" binding:"required"`
	SourceRef  string `json:"source_ref" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Asset      string `json:"asset" binding:"required"`
	Chain      string `json:"chain" binding:"required"`
}

// AccrueReferralReward inserts a claimable entry, idempotent by source
// reference
func AccrueReferralReward(c *gin.Context) {
	var request AccrueReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := business.AccrueReferralReward(request.ReferrerID, models.ReferralSourceContribution,
		request.SourceRef, request.Amount, request.Asset, request.Chain)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ClaimReferralRewards claims a batch of entries for the acting principal
func ClaimReferralRewards(c *gin.Context) {
	var request struct {
		EntryIDs []uint `json:"entry_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	entries, err := business.ClaimReferralRewards(request.EntryIDs, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ManualAdjustRequest represents a dual-control manual ledger adjustment
type ManualAdjustRequest struct {
	ActionID   uint   `json:"action_id" binding:"required"`
	ReferrerID string `json:"referrer_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Asset      string `json:"asset" binding:"required"`
	Chain      string `json:"chain" binding:"required"`
	Reason     string `json:"reason"`
}

// ManualAdjustReferral applies an approved adjustment action to the
// ledger; it can never be called without one
func ManualAdjustReferral(c *gin.Context) {
	var request ManualAdjustRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	entry, err := business.ManualAdjustReferral(p, request.ActionID, request.ReferrerID,
		request.Amount, request.Asset, request.Chain, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListReferralEntries returns the acting principal's ledger entries
func ListReferralEntries(c *gin.Context) {
	p := currentPrincipal(c)
	referrerID := c.Query("referrer_id")
	if referrerID == "" {
		referrerID = p.ID
	}
	if referrerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	entries, err := business.ListReferralEntries(referrerID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// RegisterDistributionSource records an external fee-distribution total
func RegisterDistributionSource(c *gin.Context) {
	var request struct {
		Asset     string `json:"asset" binding:"required"`
		Chain     string `json:"chain" binding:"required"`
		Amount    string `json:"amount" binding:"required"`
		SourceRef string `json:"source_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := business.RegisterDistributionSource(request.Asset, request.Chain, request.Amount, request.SourceRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

// ReconcileReferrals compares the ledger against the external source of
// truth for an asset/chain pair
func ReconcileReferrals(c *gin.Context) {
	asset := c.Query("asset")
	chain := c.Query("chain")

	result, err := business.ReconcileReferrals(asset, chain)
	if err != nil {
		// negative drift still returns the comparison alongside the error
		if result != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":               err.Error(),
				"integrity_violation": true,
				"result":              result,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
