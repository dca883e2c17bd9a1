package handlers

import (
	"encoding/json"
	"net/http"

	"launchcontrol/internal/handlers/business"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// PublishAllocationsRequest carries the off-chain computed allocation set
type PublishAllocationsRequest struct {
	ScheduleSalt string                     `json:"schedule_salt" binding:"required"`
	Allocations  []business.AllocationInput `json:"allocations" binding:"required"`
}

// PublishAllocations commits the Merkle root and proofs for a gated round
func PublishAllocations(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request PublishAllocationsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, a := range request.Allocations {
		if _, err := solana.PublicKeyFromBase58(a.Wallet); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wallet " + a.Wallet + " is not a valid address"})
			return
		}
	}

	root, err := business.PublishAllocations(id, request.ScheduleSalt, request.Allocations)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, root)
}

// GetAllocationProof serves the stored allocation and inclusion proof for
// a wallet. Responds 404 when the wallet holds no allocation; a zero
// allocation is never fabricated.
func GetAllocationProof(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	wallet := c.Param("wallet")
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet is not a valid address"})
		return
	}

	proof, root, err := business.GetAllocationProof(id, wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	if !business.VerifyStoredProof(root, proof) {
		log.WithFields(log.Fields{"round_id": id, "wallet": wallet}).Error("stored allocation proof failed verification")
		respondError(c, &business.IntegrityViolationError{Msg: "stored proof does not verify against the published root"})
		return
	}

	var proofHex []string
	if err := json.Unmarshal(proof.Proof, &proofHex); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"round_id":    id,
		"wallet":      proof.Wallet,
		"amount":      proof.Amount,
		"proof":       proofHex,
		"merkle_root": root.MerkleRoot,
	})
}
