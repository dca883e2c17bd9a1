package business

import (
	"encoding/json"
	"errors"
	"fmt"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"
	"launchcontrol/pkg/merkle"
	"launchcontrol/pkg/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AllocationInput is one computed (wallet, allocation) pair supplied by
// the off-chain allocation computation at publish time. After publication
// allocations are only ever read back from the store.
type AllocationInput struct {
	Wallet string `json:"wallet"`
	Amount string `json:"amount"` // base units, decimal string
}

// allocationScopeID builds the leaf scope for a round so proofs from one
// round can never validate against another.
func allocationScopeID(roundID uint) string {
	return fmt.Sprintf("round:%d", roundID)
}

// PublishAllocations commits the Merkle root and per-wallet proofs for a
// gated round in a single transaction. The root is immutable: a second
// publish for the same round is a ConflictError, never an overwrite.
func PublishAllocations(roundID uint, scheduleSalt string, allocations []AllocationInput) (*models.AllocationRoot, error) {
	if scheduleSalt == "" {
		return nil, &ValidationError{Msg: "schedule_salt is required"}
	}
	if len(allocations) == 0 {
		return nil, &ValidationError{Msg: "allocations is empty"}
	}

	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return nil, err
	}
	if round.SuccessGatedAt == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf("round %d is not success gated, allocations cannot be published", roundID)}
	}

	leaves := make([]merkle.Leaf, 0, len(allocations))
	for _, a := range allocations {
		if a.Wallet == "" {
			return nil, &ValidationError{Msg: "allocation wallet is empty"}
		}
		if _, err := utils.ParseAmount(a.Amount); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("allocation for %s: %v", a.Wallet, err)}
		}
		leaves = append(leaves, merkle.Leaf{Beneficiary: a.Wallet, Amount: a.Amount})
	}

	tree, err := merkle.Build(allocationScopeID(roundID), round.Chain, scheduleSalt, leaves)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	root := models.AllocationRoot{
		RoundID:      roundID,
		Chain:        round.Chain,
		ScheduleSalt: scheduleSalt,
		MerkleRoot:   tree.RootHex(),
		LeafCount:    len(leaves),
	}

	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.AllocationRoot
		if err := tx.Where("round_id = ?", roundID).First(&existing).Error; err == nil {
			return &ConflictError{Msg: fmt.Sprintf("allocations for round %d already published with root %s", roundID, existing.MerkleRoot)}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&root).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Msg: fmt.Sprintf("allocations for round %d already published", roundID)}
			}
			return err
		}

		for _, leaf := range leaves {
			proofHex, err := tree.ProofHex(leaf.Beneficiary)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(proofHex)
			if err != nil {
				return err
			}
			row := models.AllocationProof{
				RoundID: roundID,
				Wallet:  leaf.Beneficiary,
				Amount:  leaf.Amount,
				Proof:   raw,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"round_id":    roundID,
		"merkle_root": root.MerkleRoot,
		"leaf_count":  root.LeafCount,
	}).Info("allocation root published")
	publishGateEvent(GateEvent{RoundID: roundID, Type: GateEventAllocationsPublished, At: root.PublishedAt})
	return &root, nil
}

// GetAllocationProof serves the stored allocation and proof for a wallet.
// A wallet without a stored allocation gets a NotFoundError: "not
// eligible" is not the same thing as a verifiable zero-value claim.
func GetAllocationProof(roundID uint, wallet string) (*models.AllocationProof, *models.AllocationRoot, error) {
	var root models.AllocationRoot
	if err := dbconfig.DB.Where("round_id = ?", roundID).First(&root).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "allocation root for round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return nil, nil, err
	}

	var proof models.AllocationProof
	if err := dbconfig.DB.Where("round_id = ? AND wallet = ?", roundID, wallet).First(&proof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "allocation for wallet", Ref: wallet}
		}
		return nil, nil, err
	}
	return &proof, &root, nil
}

// VerifyStoredProof recomputes the root from a stored proof row. Used as
// a serving-side sanity check and by tests.
func VerifyStoredProof(root *models.AllocationRoot, proof *models.AllocationProof) bool {
	var proofHex []string
	if err := json.Unmarshal(proof.Proof, &proofHex); err != nil {
		return false
	}
	leaf := merkle.LeafHash(allocationScopeID(proof.RoundID), root.Chain, root.ScheduleSalt, proof.Wallet, proof.Amount)
	return merkle.VerifyHex(root.MerkleRoot, leaf, proofHex)
}
