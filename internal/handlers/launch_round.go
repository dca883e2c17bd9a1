package handlers

import (
	"net/http"
	"strconv"

	"launchcontrol/internal/handlers/business"
	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"
	"launchcontrol/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LaunchRoundRequest represents the request body for creating a round
type LaunchRoundRequest struct {
	Name                  *string `json:"name"`
	Kind                  *string `json:"kind"`
	Chain                 *string `json:"chain"`
	TokenMint             *string `json:"token_mint"`
	RequiresLiquidityLock *bool   `json:"requires_liquidity_lock"`
	SoftCap               *string `json:"soft_cap"`
}

func roundIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

// CreateLaunchRound creates a new sale round together with its vesting
// and lock confirmation records.
func CreateLaunchRound(c *gin.Context) {
	var request LaunchRoundRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Name == nil || request.Kind == nil || request.SoftCap == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, kind and soft_cap are required"})
		return
	}
	if *request.Kind != models.RoundKindPresale && *request.Kind != models.RoundKindFairlaunch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be presale or fairlaunch"})
		return
	}
	if _, err := utils.ParseAmount(*request.SoftCap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokenMint := ""
	if request.TokenMint != nil && *request.TokenMint != "" {
		if _, err := solana.PublicKeyFromBase58(*request.TokenMint); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token_mint is not a valid address"})
			return
		}
		tokenMint = *request.TokenMint
	}

	chain := "solana"
	if request.Chain != nil && *request.Chain != "" {
		chain = *request.Chain
	}
	requiresLock := true
	if request.RequiresLiquidityLock != nil {
		requiresLock = *request.RequiresLiquidityLock
	}

	round := models.LaunchRound{
		Name:                  *request.Name,
		Kind:                  *request.Kind,
		Chain:                 chain,
		TokenMint:             tokenMint,
		RequiresLiquidityLock: requiresLock,
		Status:                models.RoundStatusSubmitted,
		SettleResult:          models.SettleResultNone,
		RaisedAmount:          "0",
		SoftCap:               *request.SoftCap,
	}

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&round).Error; err != nil {
			return err
		}
		return business.InitRoundRecords(tx, &round)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, round)
}

// ListLaunchRounds returns all rounds
func ListLaunchRounds(c *gin.Context) {
	var rounds []models.LaunchRound
	if err := dbconfig.DB.Order("id").Find(&rounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rounds)
}

// GetLaunchRound returns a specific round by ID
func GetLaunchRound(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, round)
}

// TransitionLaunchRound advances a round along the lifecycle
func TransitionLaunchRound(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request struct {
		To string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	round, err := business.TransitionRound(id, request.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// ApplySettlementSignal records a settlement tracking update
func ApplySettlementSignal(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request struct {
		Result       string `json:"result" binding:"required"`
		RaisedAmount string `json:"raised_amount"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	round, err := business.ApplySettlement(id, request.Result, request.RaisedAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// UpdateVestingStatus records a vesting-setup confirmation update
func UpdateVestingStatus(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request struct {
		Status      string `json:"status" binding:"required"`
		MerkleRoot  string `json:"merkle_root"`
		ScheduleRef string `json:"schedule_ref"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := business.UpdateVestingStatus(id, request.Status, request.MerkleRoot, request.ScheduleRef); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round_id": id, "status": request.Status})
}

// UpdateLockStatus records a liquidity-lock verification update
func UpdateLockStatus(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request struct {
		Status          string `json:"status" binding:"required"`
		LockTxSignature string `json:"lock_tx_signature"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.LockTxSignature != "" {
		if _, err := solana.SignatureFromBase58(request.LockTxSignature); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lock_tx_signature is not a valid transaction signature"})
			return
		}
	}

	if err := business.UpdateLockStatus(id, request.Status, request.LockTxSignature); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round_id": id, "status": request.Status})
}

// FinalizeLaunchRound settles an ended round against its soft cap
func FinalizeLaunchRound(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	round, err := business.FinalizeEndedRound(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// EvaluateRoundGates triggers a gate re-evaluation and, when all gates
// pass for the first time, stamps the round
func EvaluateRoundGates(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	eval, err := business.TryMarkSuccessGated(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

// GetRoundGateStatus returns the three gate booleans, the aggregate
// verdict and the missing-gate list
func GetRoundGateStatus(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	eval, err := business.GateStatus(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}
