package business

import (
	"testing"

	"launchcontrol/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateGates(t *testing.T) {
	tests := []struct {
		name          string
		settleResult  string
		vestingStatus string
		lockStatus    string
		allPassed     bool
		missing       []GateName
	}{
		{
			name:          "all gates pass",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusLocked,
			allPassed:     true,
			missing:       []GateName{},
		},
		{
			name:          "lock not applicable passes",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusNotApplicable,
			allPassed:     true,
			missing:       []GateName{},
		},
		{
			name:          "lock never checked does not pass",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusNone,
			allPassed:     false,
			missing:       []GateName{GateLockConfirmed},
		},
		{
			name:          "lock pending",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusPending,
			allPassed:     false,
			missing:       []GateName{GateLockConfirmed},
		},
		{
			name:          "unlocked lock does not pass",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusUnlocked,
			allPassed:     false,
			missing:       []GateName{GateLockConfirmed},
		},
		{
			name:          "vesting pending",
			settleResult:  models.SettleResultSuccess,
			vestingStatus: models.VestingStatusPending,
			lockStatus:    models.LockStatusLocked,
			allPassed:     false,
			missing:       []GateName{GateVestingConfirmed},
		},
		{
			name:          "settlement failed",
			settleResult:  models.SettleResultFailed,
			vestingStatus: models.VestingStatusConfirmed,
			lockStatus:    models.LockStatusLocked,
			allPassed:     false,
			missing:       []GateName{GateRoundSuccess},
		},
		{
			name:          "nothing confirmed",
			settleResult:  models.SettleResultNone,
			vestingStatus: models.VestingStatusNone,
			lockStatus:    models.LockStatusNone,
			allPassed:     false,
			missing:       []GateName{GateRoundSuccess, GateVestingConfirmed, GateLockConfirmed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateGates(tt.settleResult, tt.vestingStatus, tt.lockStatus)
			assert.Equal(t, tt.allPassed, result.AllPassed)
			assert.Equal(t, tt.missing, result.Missing)
		})
	}
}

func TestEvaluateGatesDeterministic(t *testing.T) {
	first := EvaluateGates(models.SettleResultSuccess, models.VestingStatusPending, models.LockStatusPending)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, EvaluateGates(models.SettleResultSuccess, models.VestingStatusPending, models.LockStatusPending))
	}
}

func TestEvaluateGatesMissingMatchesBooleans(t *testing.T) {
	settleValues := []string{models.SettleResultNone, models.SettleResultSuccess, models.SettleResultFailed}
	vestingValues := []string{models.VestingStatusNone, models.VestingStatusPending, models.VestingStatusConfirmed}
	lockValues := []string{models.LockStatusNone, models.LockStatusPending, models.LockStatusLocked,
		models.LockStatusUnlocked, models.LockStatusNotApplicable}

	for _, s := range settleValues {
		for _, v := range vestingValues {
			for _, l := range lockValues {
				result := EvaluateGates(s, v, l)

				expected := []GateName{}
				if !result.RoundSuccess {
					expected = append(expected, GateRoundSuccess)
				}
				if !result.VestingConfirmed {
					expected = append(expected, GateVestingConfirmed)
				}
				if !result.LockConfirmed {
					expected = append(expected, GateLockConfirmed)
				}

				assert.Equal(t, expected, result.Missing, "triple (%s, %s, %s)", s, v, l)
				assert.Equal(t, len(result.Missing) == 0, result.AllPassed, "triple (%s, %s, %s)", s, v, l)
			}
		}
	}
}
