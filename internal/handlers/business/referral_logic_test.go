package business

import (
	"encoding/json"
	"testing"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccrueReferralReward(t *testing.T) {
	setupTestDB(t)

	t.Run("accrues a claimable entry", func(t *testing.T) {
		entry, err := AccrueReferralReward("ref-1", models.ReferralSourceContribution, "contrib-100", "5000", "USDC", "solana")
		require.NoError(t, err)
		assert.Equal(t, models.ReferralStatusClaimable, entry.Status)
		assert.Equal(t, "5000", entry.Amount)
	})

	t.Run("duplicate source ref conflicts", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-1", models.ReferralSourceContribution, "contrib-100", "5000", "USDC", "solana")
		assert.IsType(t, &ConflictError{}, err)

		var count int64
		require.NoError(t, dbconfig.DB.Model(&models.ReferralLedgerEntry{}).
			Where("source_ref = ?", "contrib-100").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("same ref under another source type accrues", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-1", models.ReferralSourceManualAdjustment, "contrib-100", "1", "USDC", "solana")
		require.NoError(t, err)
	})

	t.Run("rejects bad amounts", func(t *testing.T) {
		for _, amount := range []string{"", "abc", "-5", "1.5"} {
			_, err := AccrueReferralReward("ref-1", models.ReferralSourceContribution, "contrib-"+amount, amount, "USDC", "solana")
			assert.IsType(t, &ValidationError{}, err, "amount %q", amount)
		}
	})

	t.Run("rejects unknown source type", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-1", "airdrop", "x-1", "10", "USDC", "solana")
		assert.IsType(t, &ValidationError{}, err)
	})
}

func TestClaimReferralRewards(t *testing.T) {
	setupTestDB(t)
	owner := Principal{ID: "ref-owner"}

	accrue := func(ref string) *models.ReferralLedgerEntry {
		entry, err := AccrueReferralReward(owner.ID, models.ReferralSourceContribution, ref, "100", "USDC", "solana")
		require.NoError(t, err)
		return entry
	}

	t.Run("claims a full batch", func(t *testing.T) {
		a := accrue("claim-a")
		b := accrue("claim-b")

		entries, err := ClaimReferralRewards([]uint{a.ID, b.ID, b.ID}, owner)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, models.ReferralStatusClaimed, e.Status)
			assert.NotNil(t, e.ClaimedAt)
		}
	})

	t.Run("already claimed entry rolls back the batch", func(t *testing.T) {
		fresh := accrue("claim-c")
		claimed := accrue("claim-d")
		_, err := ClaimReferralRewards([]uint{claimed.ID}, owner)
		require.NoError(t, err)

		_, err = ClaimReferralRewards([]uint{fresh.ID, claimed.ID}, owner)
		assert.IsType(t, &ConflictError{}, err)

		var current models.ReferralLedgerEntry
		require.NoError(t, dbconfig.DB.First(&current, fresh.ID).Error)
		assert.Equal(t, models.ReferralStatusClaimable, current.Status, "batch failure must not claim the fresh entry")
	})

	t.Run("foreign entry rolls back the batch", func(t *testing.T) {
		mine := accrue("claim-e")
		theirs, err := AccrueReferralReward("someone-else", models.ReferralSourceContribution, "claim-f", "100", "USDC", "solana")
		require.NoError(t, err)

		_, err = ClaimReferralRewards([]uint{mine.ID, theirs.ID}, owner)
		assert.IsType(t, &ConflictError{}, err)

		var current models.ReferralLedgerEntry
		require.NoError(t, dbconfig.DB.First(&current, mine.ID).Error)
		assert.Equal(t, models.ReferralStatusClaimable, current.Status)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := ClaimReferralRewards(nil, owner)
		assert.IsType(t, &ValidationError{}, err)
	})
}

func TestManualAdjustReferral(t *testing.T) {
	setupTestDB(t)

	requester := Principal{ID: "op-1", Roles: []string{RoleOperator}}
	approver := Principal{ID: "op-2", Roles: []string{RoleApprover}}
	executor := Principal{ID: "op-3", Roles: []string{RoleExecutor}}

	newApprovedAction := func(t *testing.T) *models.AdminAction {
		t.Helper()
		action, err := RequestAdminAction(requester, models.ActionTypeReferralManualAdjustment,
			json.RawMessage(`{"referrer_id":"ref-9","amount":"250"}`))
		require.NoError(t, err)
		_, err = ApproveAdminAction(action.ID, approver, "looks right")
		require.NoError(t, err)
		return action
	}

	t.Run("applies under an approved action and executes it", func(t *testing.T) {
		action := newApprovedAction(t)

		entry, err := ManualAdjustReferral(executor, action.ID, "ref-9", "250", "USDC", "solana", "support credit")
		require.NoError(t, err)
		assert.Equal(t, models.ReferralSourceManualAdjustment, entry.SourceType)
		assert.Equal(t, models.ReferralStatusClaimable, entry.Status)

		current, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusExecuted, current.Status)
	})

	t.Run("second application of the same action conflicts", func(t *testing.T) {
		action := newApprovedAction(t)
		_, err := ManualAdjustReferral(executor, action.ID, "ref-9", "250", "USDC", "solana", "")
		require.NoError(t, err)

		_, err = ManualAdjustReferral(executor, action.ID, "ref-9", "250", "USDC", "solana", "")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("pending action is not enough", func(t *testing.T) {
		action, err := RequestAdminAction(requester, models.ActionTypeReferralManualAdjustment, json.RawMessage(`{}`))
		require.NoError(t, err)

		_, err = ManualAdjustReferral(executor, action.ID, "ref-9", "10", "USDC", "solana", "")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("non executor rejected", func(t *testing.T) {
		action := newApprovedAction(t)
		_, err := ManualAdjustReferral(approver, action.ID, "ref-9", "250", "USDC", "solana", "")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("wrong action type rejected", func(t *testing.T) {
		action, err := RequestAdminAction(requester, models.ActionTypeRoundRuleChange, json.RawMessage(`{}`))
		require.NoError(t, err)
		_, err = ApproveAdminAction(action.ID, approver, "")
		require.NoError(t, err)

		_, err = ManualAdjustReferral(executor, action.ID, "ref-9", "10", "USDC", "solana", "")
		assert.IsType(t, &ValidationError{}, err)
	})
}

func TestReconcileReferrals(t *testing.T) {
	setupTestDB(t)

	t.Run("exact match", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-a", models.ReferralSourceContribution, "rc-1", "600000", "USDC", "solana")
		require.NoError(t, err)
		_, err = AccrueReferralReward("ref-b", models.ReferralSourceContribution, "rc-2", "400000", "USDC", "solana")
		require.NoError(t, err)
		_, err = RegisterDistributionSource("USDC", "solana", "1000000", "fee-batch-1")
		require.NoError(t, err)

		result, err := ReconcileReferrals("USDC", "solana")
		require.NoError(t, err)
		assert.True(t, result.Match)
		assert.Equal(t, "0", result.Drift)
		assert.Equal(t, "1000000", result.LedgerTotal)
		assert.Equal(t, "1000000", result.SourceTotal)
	})

	t.Run("claimed entries still count toward the ledger total", func(t *testing.T) {
		entry, err := AccrueReferralReward("ref-c", models.ReferralSourceContribution, "rc-3", "500", "SOL", "solana")
		require.NoError(t, err)
		_, err = ClaimReferralRewards([]uint{entry.ID}, Principal{ID: "ref-c"})
		require.NoError(t, err)
		_, err = RegisterDistributionSource("SOL", "solana", "500", "fee-batch-2")
		require.NoError(t, err)

		result, err := ReconcileReferrals("SOL", "solana")
		require.NoError(t, err)
		assert.True(t, result.Match)
	})

	t.Run("positive drift within split count is tolerated", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-d", models.ReferralSourceContribution, "rc-4", "999", "BONK", "solana")
		require.NoError(t, err)
		_, err = RegisterDistributionSource("BONK", "solana", "1000", "fee-batch-3")
		require.NoError(t, err)

		result, err := ReconcileReferrals("BONK", "solana")
		require.NoError(t, err)
		assert.False(t, result.Match)
		assert.Equal(t, "1", result.Drift)
	})

	t.Run("ledger over source is an integrity violation", func(t *testing.T) {
		_, err := AccrueReferralReward("ref-e", models.ReferralSourceContribution, "rc-5", "1000001", "JUP", "solana")
		require.NoError(t, err)
		_, err = RegisterDistributionSource("JUP", "solana", "1000000", "fee-batch-4")
		require.NoError(t, err)

		result, err := ReconcileReferrals("JUP", "solana")
		require.Error(t, err)
		assert.IsType(t, &IntegrityViolationError{}, err)
		require.NotNil(t, result, "violation still returns the computed figures")
		assert.Equal(t, "-1", result.Drift)
		assert.False(t, result.Match)
	})

	t.Run("pair with no data matches at zero", func(t *testing.T) {
		result, err := ReconcileReferrals("RAY", "solana")
		require.NoError(t, err)
		assert.True(t, result.Match)
		assert.Equal(t, "0", result.LedgerTotal)
	})
}

func TestRegisterDistributionSource(t *testing.T) {
	setupTestDB(t)

	_, err := RegisterDistributionSource("USDC", "solana", "777", "dup-ref")
	require.NoError(t, err)

	_, err = RegisterDistributionSource("USDC", "solana", "777", "dup-ref")
	assert.IsType(t, &ConflictError{}, err)
}

func TestListReferralEntries(t *testing.T) {
	setupTestDB(t)

	entry, err := AccrueReferralReward("ref-list", models.ReferralSourceContribution, "l-1", "10", "USDC", "solana")
	require.NoError(t, err)
	_, err = AccrueReferralReward("ref-list", models.ReferralSourceContribution, "l-2", "20", "USDC", "solana")
	require.NoError(t, err)
	_, err = ClaimReferralRewards([]uint{entry.ID}, Principal{ID: "ref-list"})
	require.NoError(t, err)

	all, err := ListReferralEntries("ref-list", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	claimable, err := ListReferralEntries("ref-list", models.ReferralStatusClaimable)
	require.NoError(t, err)
	require.Len(t, claimable, 1)
	assert.Equal(t, "l-2", claimable[0].SourceRef)
}
