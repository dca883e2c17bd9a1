package business

import (
	"encoding/json"
	"testing"
	"time"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	actionRequester = Principal{ID: "ops-alice", Roles: []string{RoleOperator, RoleApprover}}
	actionApprover  = Principal{ID: "ops-bob", Roles: []string{RoleApprover}}
	actionExecutor  = Principal{ID: "ops-carol", Roles: []string{RoleExecutor}}
)

func newPendingAction(t *testing.T) *models.AdminAction {
	t.Helper()
	action, err := RequestAdminAction(actionRequester, models.ActionTypeRoundRuleChange,
		json.RawMessage(`{"round_id":1,"field":"soft_cap","value":"2000000"}`))
	require.NoError(t, err)
	return action
}

// backdate moves an action's expiry into the past, simulating T+25h.
func backdate(t *testing.T, actionID uint) {
	t.Helper()
	require.NoError(t, dbconfig.DB.Model(&models.AdminAction{}).
		Where("id = ?", actionID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)
}

func TestAdminActionApproval(t *testing.T) {
	setupTestDB(t)

	t.Run("independent approval approves", func(t *testing.T) {
		action := newPendingAction(t)

		approved, err := ApproveAdminAction(action.ID, actionApprover, "checked the numbers")
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusApproved, approved.Status)

		loaded, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Decisions, 1)
		assert.Equal(t, actionApprover.ID, loaded.Decisions[0].Actor)
		assert.Equal(t, models.DecisionApprove, loaded.Decisions[0].Decision)
	})

	t.Run("requester cannot approve their own action", func(t *testing.T) {
		action := newPendingAction(t)

		_, err := ApproveAdminAction(action.ID, actionRequester, "lgtm")
		assert.IsType(t, &ConflictError{}, err)

		loaded, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusPending, loaded.Status)
		assert.Empty(t, loaded.Decisions, "a refused decision leaves no audit row")
	})

	t.Run("non approver cannot decide", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ApproveAdminAction(action.ID, actionExecutor, "")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("no decisions after rejection", func(t *testing.T) {
		action := newPendingAction(t)

		rejected, err := RejectAdminAction(action.ID, actionApprover, "wrong round")
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusRejected, rejected.Status)

		_, err = ApproveAdminAction(action.ID, actionApprover, "changed my mind")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := ApproveAdminAction(987654, actionApprover, "")
		assert.IsType(t, &NotFoundError{}, err)
	})
}

func TestAdminActionExpiry(t *testing.T) {
	setupTestDB(t)

	t.Run("lazy expiry on read", func(t *testing.T) {
		action := newPendingAction(t)
		backdate(t, action.ID)

		loaded, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusExpired, loaded.Status)
	})

	t.Run("expired action cannot be approved", func(t *testing.T) {
		action := newPendingAction(t)
		backdate(t, action.ID)

		_, err := ApproveAdminAction(action.ID, actionApprover, "")
		assert.IsType(t, &ExpiredActionError{}, err)

		// the failed approval persisted the expiry
		var stored models.AdminAction
		require.NoError(t, dbconfig.DB.First(&stored, action.ID).Error)
		assert.Equal(t, models.ActionStatusExpired, stored.Status)
	})

	t.Run("expiry binds pending approval, not approved actions", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ApproveAdminAction(action.ID, actionApprover, "")
		require.NoError(t, err)
		backdate(t, action.ID)

		executed, err := ExecuteAdminAction(action.ID, actionExecutor, "")
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusExecuted, executed.Status)
	})

	t.Run("expired pending action cannot execute", func(t *testing.T) {
		action := newPendingAction(t)
		backdate(t, action.ID)

		_, err := ExecuteAdminAction(action.ID, actionExecutor, "")
		assert.IsType(t, &ExpiredActionError{}, err)
	})

	t.Run("sweep persists expiry in bulk", func(t *testing.T) {
		first := newPendingAction(t)
		second := newPendingAction(t)
		backdate(t, first.ID)
		backdate(t, second.ID)
		fresh := newPendingAction(t)

		swept, err := SweepExpiredActions()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, swept, int64(2))

		var stored models.AdminAction
		require.NoError(t, dbconfig.DB.First(&stored, fresh.ID).Error)
		assert.Equal(t, models.ActionStatusPending, stored.Status)
	})
}

func TestExecuteAdminAction(t *testing.T) {
	setupTestDB(t)

	t.Run("executes an approved action with an audit row", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ApproveAdminAction(action.ID, actionApprover, "")
		require.NoError(t, err)

		executed, err := ExecuteAdminAction(action.ID, actionExecutor, "applied")
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusExecuted, executed.Status)

		loaded, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Decisions, 2)
		assert.Equal(t, models.DecisionExecute, loaded.Decisions[1].Decision)
	})

	t.Run("re-execution is a no-op success", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ApproveAdminAction(action.ID, actionApprover, "")
		require.NoError(t, err)
		_, err = ExecuteAdminAction(action.ID, actionExecutor, "")
		require.NoError(t, err)

		again, err := ExecuteAdminAction(action.ID, actionExecutor, "")
		require.NoError(t, err)
		assert.Equal(t, models.ActionStatusExecuted, again.Status)

		loaded, err := GetAdminAction(action.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Decisions, 2, "no duplicate execute rows")
	})

	t.Run("pending action cannot execute", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ExecuteAdminAction(action.ID, actionExecutor, "")
		assert.IsType(t, &ConflictError{}, err)
	})

	t.Run("executor capability required", func(t *testing.T) {
		action := newPendingAction(t)
		_, err := ApproveAdminAction(action.ID, actionApprover, "")
		require.NoError(t, err)

		_, err = ExecuteAdminAction(action.ID, actionApprover, "")
		assert.IsType(t, &ConflictError{}, err)
	})
}

func TestListAdminActions(t *testing.T) {
	setupTestDB(t)

	pending := newPendingAction(t)
	approvedAction := newPendingAction(t)
	_, err := ApproveAdminAction(approvedAction.ID, actionApprover, "")
	require.NoError(t, err)
	expired := newPendingAction(t)
	backdate(t, expired.ID)

	all, err := ListAdminActions("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyPending, err := ListAdminActions(models.ActionStatusPending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)

	onlyExpired, err := ListAdminActions(models.ActionStatusExpired)
	require.NoError(t, err)
	require.Len(t, onlyExpired, 1)
	assert.Equal(t, expired.ID, onlyExpired[0].ID, "lazy expiry applies to listings")
}
