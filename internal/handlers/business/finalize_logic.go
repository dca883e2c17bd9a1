package business

import (
	"errors"
	"fmt"
	"time"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"
	"launchcontrol/pkg/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Gate evaluation outcomes for TryMarkSuccessGated.
const (
	OutcomeGated        = "GATED"
	OutcomeAlreadyGated = "ALREADY_GATED"
	OutcomeNotReady     = "NOT_READY"
)

// GateEvaluation is the result of a gate read or gating attempt.
type GateEvaluation struct {
	Outcome string     `json:"outcome"`
	Result  GateResult `json:"result"`
	GatedAt *time.Time `json:"gated_at,omitempty"`
}

// Lifecycle edges on the settlement dimension. success/failed are
// terminal; the gate dimension only matters after success.
var validTransitions = map[string]string{
	models.RoundStatusSubmitted: models.RoundStatusApproved,
	models.RoundStatusApproved:  models.RoundStatusDeployed,
	models.RoundStatusDeployed:  models.RoundStatusLive,
	models.RoundStatusLive:      models.RoundStatusEnded,
}

// InitRoundRecords creates the per-round confirmation records. Rounds
// that never list on a DEX get an explicit NOT_APPLICABLE lock status so
// the lock gate passes without ever being inferred from absence.
func InitRoundRecords(tx *gorm.DB, round *models.LaunchRound) error {
	vesting := models.VestingConfirmation{
		RoundID: round.ID,
		Status:  models.VestingStatusNone,
	}
	if err := tx.Create(&vesting).Error; err != nil {
		return err
	}

	lockStatus := models.LockStatusNone
	if !round.RequiresLiquidityLock {
		lockStatus = models.LockStatusNotApplicable
	}
	lock := models.LiquidityLockConfirmation{
		RoundID: round.ID,
		Status:  lockStatus,
	}
	return tx.Create(&lock).Error
}

// TransitionRound advances a round along the pre-settlement lifecycle.
func TransitionRound(roundID uint, to string) (*models.LaunchRound, error) {
	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return nil, err
	}

	if to == models.RoundStatusSuccess || to == models.RoundStatusFailed {
		return nil, &ValidationError{Msg: "terminal statuses are set by finalize, not by transition"}
	}
	if validTransitions[round.Status] != to {
		return nil, &ConflictError{Msg: fmt.Sprintf("round %d cannot transition %s -> %s", roundID, round.Status, to)}
	}

	if err := dbconfig.DB.Model(&round).Update("status", to).Error; err != nil {
		return nil, err
	}
	round.Status = to

	publishGateEvent(GateEvent{RoundID: round.ID, Type: GateEventTransition, Status: to, At: time.Now()})
	return &round, nil
}

// ApplySettlement records the settlement result and raised amount
// reported by on-chain settlement tracking. An empty raisedAmount leaves
// the stored value untouched.
func ApplySettlement(roundID uint, result string, raisedAmount string) (*models.LaunchRound, error) {
	if result != models.SettleResultNone && result != models.SettleResultSuccess && result != models.SettleResultFailed {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid settlement result %q", result)}
	}

	updates := map[string]interface{}{"settle_result": result}
	if raisedAmount != "" {
		if _, err := utils.ParseAmount(raisedAmount); err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		updates["raised_amount"] = raisedAmount
	}

	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return nil, err
	}

	if err := dbconfig.DB.Model(&round).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

// UpdateVestingStatus applies a vesting-setup confirmation signal.
func UpdateVestingStatus(roundID uint, status, merkleRoot, scheduleRef string) error {
	if status != models.VestingStatusNone && status != models.VestingStatusPending && status != models.VestingStatusConfirmed {
		return &ValidationError{Msg: fmt.Sprintf("invalid vesting status %q", status)}
	}

	updates := map[string]interface{}{"status": status}
	if merkleRoot != "" {
		updates["merkle_root"] = merkleRoot
	}
	if scheduleRef != "" {
		updates["schedule_ref"] = scheduleRef
	}

	res := dbconfig.DB.Model(&models.VestingConfirmation{}).Where("round_id = ?", roundID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "vesting confirmation for round", Ref: fmt.Sprintf("%d", roundID)}
	}
	return nil
}

// UpdateLockStatus applies a liquidity-lock verification signal.
func UpdateLockStatus(roundID uint, status, lockTxSignature string) error {
	switch status {
	case models.LockStatusNone, models.LockStatusPending, models.LockStatusLocked,
		models.LockStatusUnlocked, models.LockStatusNotApplicable:
	default:
		return &ValidationError{Msg: fmt.Sprintf("invalid lock status %q", status)}
	}

	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return err
	}
	if status == models.LockStatusNotApplicable && round.RequiresLiquidityLock {
		return &ConflictError{Msg: fmt.Sprintf("round %d requires a liquidity lock", roundID)}
	}

	updates := map[string]interface{}{"status": status}
	if lockTxSignature != "" {
		updates["lock_tx_signature"] = lockTxSignature
	}

	res := dbconfig.DB.Model(&models.LiquidityLockConfirmation{}).Where("round_id = ?", roundID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "lock confirmation for round", Ref: fmt.Sprintf("%d", roundID)}
	}
	return nil
}

// FinalizeEndedRound settles an ended round: SUCCESS when the raised
// amount meets the soft cap, FAILED otherwise. FAILED short-circuits
// gating entirely. Calling it again on an already finalized round is a
// no-op returning the current state.
func FinalizeEndedRound(roundID uint) (*models.LaunchRound, error) {
	var round models.LaunchRound
	if err := dbconfig.DB.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		return nil, err
	}

	if round.Status == models.RoundStatusSuccess || round.Status == models.RoundStatusFailed {
		return &round, nil
	}
	if round.Status != models.RoundStatusEnded {
		return nil, &ConflictError{Msg: fmt.Sprintf("round %d is %s, only ended rounds can be finalized", roundID, round.Status)}
	}

	met, err := utils.AmountGTE(round.RaisedAmount, round.SoftCap)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	status := models.RoundStatusFailed
	settle := models.SettleResultFailed
	if met {
		status = models.RoundStatusSuccess
		settle = models.SettleResultSuccess
	}

	if err := dbconfig.DB.Model(&round).Updates(map[string]interface{}{
		"status":        status,
		"settle_result": settle,
	}).Error; err != nil {
		return nil, err
	}
	round.Status = status
	round.SettleResult = settle

	logrus.WithFields(logrus.Fields{
		"round_id":      round.ID,
		"status":        status,
		"raised_amount": round.RaisedAmount,
		"soft_cap":      round.SoftCap,
	}).Info("round finalized")
	publishGateEvent(GateEvent{RoundID: round.ID, Type: GateEventFinalized, Status: status, At: time.Now()})

	return &round, nil
}

// readGateSnapshot loads round, vesting and lock state in one consistent
// transaction. The gates could flip between independent reads, so they
// are never read separately.
func readGateSnapshot(roundID uint) (*models.LaunchRound, string, string, error) {
	var round models.LaunchRound
	vestingStatus := models.VestingStatusNone
	lockStatus := models.LockStatusNone

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&round, roundID).Error; err != nil {
			return err
		}

		var vesting models.VestingConfirmation
		if err := tx.Where("round_id = ?", roundID).First(&vesting).Error; err == nil {
			vestingStatus = vesting.Status
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var lock models.LiquidityLockConfirmation
		if err := tx.Where("round_id = ?", roundID).First(&lock).Error; err == nil {
			lockStatus = lock.Status
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", &NotFoundError{Entity: "round", Ref: fmt.Sprintf("%d", roundID)}
		}
		// fail closed: NotReady is never derived from partial data
		return nil, "", "", err
	}

	return &round, vestingStatus, lockStatus, nil
}

// GateStatus reads the current gate verdict for a round without
// attempting to stamp it.
func GateStatus(roundID uint) (*GateEvaluation, error) {
	round, vestingStatus, lockStatus, err := readGateSnapshot(roundID)
	if err != nil {
		return nil, err
	}

	result := EvaluateGates(round.SettleResult, vestingStatus, lockStatus)
	eval := &GateEvaluation{Result: result, GatedAt: round.SuccessGatedAt}
	switch {
	case round.SuccessGatedAt != nil:
		eval.Outcome = OutcomeAlreadyGated
	case result.AllPassed:
		eval.Outcome = OutcomeGated
	default:
		eval.Outcome = OutcomeNotReady
	}
	return eval, nil
}

// TryMarkSuccessGated evaluates the three gates and, on the first
// all-pass evaluation, stamps success_gated_at exactly once. Safe to call
// repeatedly and concurrently: the stamp is a conditional update on
// "previous value is null", so a race yields one GATED and the rest
// ALREADY_GATED.
func TryMarkSuccessGated(roundID uint) (*GateEvaluation, error) {
	round, vestingStatus, lockStatus, err := readGateSnapshot(roundID)
	if err != nil {
		return nil, err
	}

	if round.Status == models.RoundStatusFailed {
		return nil, &ConflictError{Msg: fmt.Sprintf("round %d failed, gates are not evaluated", roundID)}
	}

	result := EvaluateGates(round.SettleResult, vestingStatus, lockStatus)
	if round.SuccessGatedAt != nil {
		return &GateEvaluation{Outcome: OutcomeAlreadyGated, Result: result, GatedAt: round.SuccessGatedAt}, nil
	}
	if !result.AllPassed {
		return &GateEvaluation{Outcome: OutcomeNotReady, Result: result}, nil
	}

	now := time.Now()
	res := dbconfig.DB.Model(&models.LaunchRound{}).
		Where("id = ? AND success_gated_at IS NULL", roundID).
		Update("success_gated_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// another caller won the stamp
		var current models.LaunchRound
		if err := dbconfig.DB.First(&current, roundID).Error; err != nil {
			return nil, err
		}
		return &GateEvaluation{Outcome: OutcomeAlreadyGated, Result: result, GatedAt: current.SuccessGatedAt}, nil
	}

	logrus.WithFields(logrus.Fields{"round_id": roundID, "gated_at": now}).Info("round success gated")
	publishGateEvent(GateEvent{RoundID: roundID, Type: GateEventGated, Status: models.RoundStatusSuccess, At: now})

	return &GateEvaluation{Outcome: OutcomeGated, Result: result, GatedAt: &now}, nil
}

// ListUngatedRounds returns SUCCESS-settled rounds that have not been
// gated yet, for the periodic sweep.
func ListUngatedRounds() ([]models.LaunchRound, error) {
	var rounds []models.LaunchRound
	err := dbconfig.DB.
		Where("settle_result = ? AND success_gated_at IS NULL", models.SettleResultSuccess).
		Find(&rounds).Error
	return rounds, err
}
