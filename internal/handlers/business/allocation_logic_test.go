package business

import (
	"fmt"
	"testing"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedRound(t *testing.T) *models.LaunchRound {
	t.Helper()
	round := endAndSettleSuccess(t, true, models.LockStatusLocked)
	eval, err := TryMarkSuccessGated(round.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeGated, eval.Outcome)
	return round
}

func testAllocations(n int) []AllocationInput {
	allocations := make([]AllocationInput, 0, n)
	for i := 0; i < n; i++ {
		allocations = append(allocations, AllocationInput{
			Wallet: fmt.Sprintf("wallet-%03d", i),
			Amount: fmt.Sprintf("%d", (i+1)*1000),
		})
	}
	return allocations
}

func TestPublishAllocations(t *testing.T) {
	setupTestDB(t)

	t.Run("publishes root and per-wallet proofs", func(t *testing.T) {
		round := gatedRound(t)
		allocations := testAllocations(5)

		root, err := PublishAllocations(round.ID, "salt-1", allocations)
		require.NoError(t, err)
		assert.Len(t, root.MerkleRoot, 64)
		assert.Equal(t, 5, root.LeafCount)

		var proofs []models.AllocationProof
		require.NoError(t, dbconfig.DB.Where("round_id = ?", round.ID).Find(&proofs).Error)
		assert.Len(t, proofs, 5)
	})

	t.Run("republish is rejected, root is immutable", func(t *testing.T) {
		round := gatedRound(t)
		_, err := PublishAllocations(round.ID, "salt-1", testAllocations(3))
		require.NoError(t, err)

		_, err = PublishAllocations(round.ID, "salt-2", testAllocations(4))
		assert.IsType(t, &ConflictError{}, err)

		var root models.AllocationRoot
		require.NoError(t, dbconfig.DB.Where("round_id = ?", round.ID).First(&root).Error)
		assert.Equal(t, "salt-1", root.ScheduleSalt)
		assert.Equal(t, 3, root.LeafCount)
	})

	t.Run("ungated round cannot publish", func(t *testing.T) {
		round := endAndSettleSuccess(t, true, models.LockStatusPending)
		_, err := PublishAllocations(round.ID, "salt-1", testAllocations(2))
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("rejects duplicate wallets", func(t *testing.T) {
		round := gatedRound(t)
		allocations := testAllocations(2)
		allocations[1].Wallet = allocations[0].Wallet

		_, err := PublishAllocations(round.ID, "salt-1", allocations)
		assert.IsType(t, &ValidationError{}, err)
	})

	t.Run("rejects empty salt and empty set", func(t *testing.T) {
		round := gatedRound(t)
		_, err := PublishAllocations(round.ID, "", testAllocations(2))
		assert.IsType(t, &ValidationError{}, err)
		_, err = PublishAllocations(round.ID, "salt-1", nil)
		assert.IsType(t, &ValidationError{}, err)
	})
}

func TestGetAllocationProof(t *testing.T) {
	setupTestDB(t)
	round := gatedRound(t)
	allocations := testAllocations(7)
	_, err := PublishAllocations(round.ID, "salt-x", allocations)
	require.NoError(t, err)

	t.Run("every published wallet verifies against the root", func(t *testing.T) {
		for _, a := range allocations {
			proof, root, err := GetAllocationProof(round.ID, a.Wallet)
			require.NoError(t, err)
			assert.Equal(t, a.Amount, proof.Amount)
			assert.True(t, VerifyStoredProof(root, proof), "wallet %s", a.Wallet)
		}
	})

	t.Run("unknown wallet is not found, not zero", func(t *testing.T) {
		_, _, err := GetAllocationProof(round.ID, "wallet-999")
		require.Error(t, err)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "allocation for wallet", nf.Entity)
	})

	t.Run("round without a published root is not found", func(t *testing.T) {
		other := gatedRound(t)
		_, _, err := GetAllocationProof(other.ID, "wallet-000")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "allocation root for round", nf.Entity)
	})

	t.Run("tampered amount fails verification", func(t *testing.T) {
		proof, root, err := GetAllocationProof(round.ID, allocations[0].Wallet)
		require.NoError(t, err)
		proof.Amount = "999999999"
		assert.False(t, VerifyStoredProof(root, proof))
	})
}

func TestProofsAreRoundScoped(t *testing.T) {
	setupTestDB(t)

	first := gatedRound(t)
	second := gatedRound(t)
	allocations := testAllocations(4)

	_, err := PublishAllocations(first.ID, "same-salt", allocations)
	require.NoError(t, err)
	_, err = PublishAllocations(second.ID, "same-salt", allocations)
	require.NoError(t, err)

	proof, _, err := GetAllocationProof(first.ID, allocations[0].Wallet)
	require.NoError(t, err)
	_, otherRoot, err := GetAllocationProof(second.ID, allocations[0].Wallet)
	require.NoError(t, err)

	// identical wallets, amounts and salt, but the round scope keeps the
	// proof from validating against the other round's root
	assert.False(t, VerifyStoredProof(otherRoot, proof))
}
