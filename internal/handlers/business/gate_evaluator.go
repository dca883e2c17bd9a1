package business

import (
	"launchcontrol/internal/models"
)

// GateName identifies one of the three independent success gates.
type GateName string

const (
	GateRoundSuccess     GateName = "round_success"
	GateVestingConfirmed GateName = "vesting_confirmed"
	GateLockConfirmed    GateName = "lock_confirmed"
)

// GateResult is the aggregate verdict over all three gates. Missing
// enumerates every gate that did not pass, for operator diagnostics.
type GateResult struct {
	RoundSuccess     bool       `json:"round_success"`
	VestingConfirmed bool       `json:"vesting_confirmed"`
	LockConfirmed    bool       `json:"lock_confirmed"`
	AllPassed        bool       `json:"all_gates_passed"`
	Missing          []GateName `json:"missing"`
}

// EvaluateGates computes the gate verdict from the three status inputs.
// Pure: no I/O, no side effects. LOCKED and NOT_APPLICABLE both pass the
// lock gate; NOT_APPLICABLE is an explicit stored value for rounds that
// never list on a DEX, so an unchecked lock (NONE) can never slip
// through as confirmed.
func EvaluateGates(settleResult, vestingStatus, lockStatus string) GateResult {
	result := GateResult{
		RoundSuccess:     settleResult == models.SettleResultSuccess,
		VestingConfirmed: vestingStatus == models.VestingStatusConfirmed,
		LockConfirmed:    lockStatus == models.LockStatusLocked || lockStatus == models.LockStatusNotApplicable,
		Missing:          []GateName{},
	}

	if !result.RoundSuccess {
		result.Missing = append(result.Missing, GateRoundSuccess)
	}
	if !result.VestingConfirmed {
		result.Missing = append(result.Missing, GateVestingConfirmed)
	}
	if !result.LockConfirmed {
		result.Missing = append(result.Missing, GateLockConfirmed)
	}

	result.AllPassed = len(result.Missing) == 0
	return result
}
