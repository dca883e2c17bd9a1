package business

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"
	"launchcontrol/pkg/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AccrueReferralReward inserts a CLAIMABLE ledger entry. Idempotent under
// redelivery: a second accrual for the same (sourceType, sourceRef) is
// rejected with a ConflictError, never silently re-credited.
func AccrueReferralReward(referrerID, sourceType, sourceRef, amount, asset, chain string) (*models.ReferralLedgerEntry, error) {
	if referrerID == "" || sourceRef == "" || asset == "" || chain == "" {
		return nil, &ValidationError{Msg: "referrer_id, source_ref, asset and chain are required"}
	}
	if sourceType != models.ReferralSourceContribution && sourceType != models.ReferralSourceManualAdjustment {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid source type %q", sourceType)}
	}
	if _, err := utils.ParseAmount(amount); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	var existing models.ReferralLedgerEntry
	err := dbconfig.DB.Where("source_type = ? AND source_ref = ?", sourceType, sourceRef).First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf("accrual for %s %s already recorded as entry %d", sourceType, sourceRef, existing.ID)}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entry := models.ReferralLedgerEntry{
		ReferrerID: referrerID,
		SourceType: sourceType,
		SourceRef:  sourceRef,
		Amount:     amount,
		Asset:      asset,
		Chain:      chain,
		Status:     models.ReferralStatusClaimable,
	}
	if err := dbconfig.DB.Create(&entry).Error; err != nil {
		// the unique index backstops the pre-check under races
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Msg: fmt.Sprintf("accrual for %s %s already recorded", sourceType, sourceRef)}
		}
		return nil, err
	}
	return &entry, nil
}

// ClaimReferralRewards transitions a batch of CLAIMABLE entries owned by
// the claimant to CLAIMED, all-or-nothing. Any entry that is missing,
// already claimed or owned by someone else rolls back the whole batch.
func ClaimReferralRewards(entryIDs []uint, claimant Principal) ([]models.ReferralLedgerEntry, error) {
	if len(entryIDs) == 0 {
		return nil, &ValidationError{Msg: "entry_ids is empty"}
	}

	seen := make(map[uint]bool, len(entryIDs))
	ids := make([]uint, 0, len(entryIDs))
	for _, id := range entryIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	now := time.Now()
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ReferralLedgerEntry{}).
			Where("id IN ? AND referrer_id = ? AND status = ?", ids, claimant.ID, models.ReferralStatusClaimable).
			Updates(map[string]interface{}{
				"status":     models.ReferralStatusClaimed,
				"claimed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return &ConflictError{Msg: fmt.Sprintf("claim rejected: %d of %d entries are not claimable by %s",
				int64(len(ids))-res.RowsAffected, len(ids), claimant.ID)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var entries []models.ReferralLedgerEntry
	if err := dbconfig.DB.Where("id IN ?", ids).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ManualAdjustReferral inserts a MANUAL_ADJUSTMENT entry under an
// APPROVED dual-control action, and marks that action EXECUTED in the
// same transaction. The action reference doubles as the idempotency key:
// one approved action yields at most one ledger entry.
func ManualAdjustReferral(p Principal, actionID uint, referrerID, amount, asset, chain, reason string) (*models.ReferralLedgerEntry, error) {
	if !p.HasRole(RoleExecutor) {
		return nil, &ConflictError{Msg: fmt.Sprintf("principal %s lacks the executor capability", p.ID)}
	}
	if referrerID == "" || asset == "" || chain == "" {
		return nil, &ValidationError{Msg: "referrer_id, asset and chain are required"}
	}
	if _, err := utils.ParseAmount(amount); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	sourceRef := fmt.Sprintf("admin_action:%d", actionID)
	var entry models.ReferralLedgerEntry

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var action models.AdminAction
		if err := tx.First(&action, actionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "admin action", Ref: fmt.Sprintf("%d", actionID)}
			}
			return err
		}
		if action.ActionType != models.ActionTypeReferralManualAdjustment {
			return &ValidationError{Msg: fmt.Sprintf("admin action %d is %s, not a referral adjustment", actionID, action.ActionType)}
		}
		if status := effectiveStatus(&action, time.Now()); status != models.ActionStatusApproved {
			if status == models.ActionStatusExpired {
				return &ExpiredActionError{ActionID: actionID}
			}
			return &ConflictError{Msg: fmt.Sprintf("admin action %d is %s, manual adjustments need an approved action", actionID, status)}
		}

		entry = models.ReferralLedgerEntry{
			ReferrerID: referrerID,
			SourceType: models.ReferralSourceManualAdjustment,
			SourceRef:  sourceRef,
			Amount:     amount,
			Asset:      asset,
			Chain:      chain,
			Status:     models.ReferralStatusClaimable,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Msg: fmt.Sprintf("admin action %d was already applied", actionID)}
			}
			return err
		}

		res := tx.Model(&models.AdminAction{}).
			Where("id = ? AND status = ?", actionID, models.ActionStatusApproved).
			Update("status", models.ActionStatusExecuted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Msg: fmt.Sprintf("admin action %d changed state during execution", actionID)}
		}

		decision := models.AdminActionDecision{
			ActionID: actionID,
			Actor:    p.ID,
			Decision: models.DecisionExecute,
			Reason:   reason,
		}
		return tx.Create(&decision).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"action_id":   actionID,
		"referrer_id": referrerID,
		"amount":      amount,
		"executed_by": p.ID,
	}).Info("manual referral adjustment applied")
	return &entry, nil
}

// RegisterDistributionSource records an externally-sourced distributable
// amount designated for referrals. Idempotent by source_ref.
func RegisterDistributionSource(asset, chain, amount, sourceRef string) (*models.FeeDistributionSource, error) {
	if asset == "" || chain == "" || sourceRef == "" {
		return nil, &ValidationError{Msg: "asset, chain and source_ref are required"}
	}
	if _, err := utils.ParseAmount(amount); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	var existing models.FeeDistributionSource
	err := dbconfig.DB.Where("source_ref = ?", sourceRef).First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf("distribution source %s already registered", sourceRef)}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	source := models.FeeDistributionSource{Asset: asset, Chain: chain, Amount: amount, SourceRef: sourceRef}
	if err := dbconfig.DB.Create(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Msg: fmt.Sprintf("distribution source %s already registered", sourceRef)}
		}
		return nil, err
	}
	return &source, nil
}

// ReconcileResult reports the ledger-versus-source comparison for one
// asset/chain pair. Drift is sourceTotal - ledgerTotal as a decimal
// string; negative drift means the ledger has over-distributed.
type ReconcileResult struct {
	Asset       string `json:"asset"`
	Chain       string `json:"chain"`
	Match       bool   `json:"match"`
	Drift       string `json:"drift"`
	LedgerTotal string `json:"ledger_total"`
	SourceTotal string `json:"source_total"`
	SplitCount  int    `json:"split_count"`
}

// ReconcileReferrals sums every CLAIMABLE and CLAIMED entry for the pair
// and compares against the external distributable total. Negative drift
// is a fatal integrity violation; a non-negative remainder bounded by the
// number of contributing splits is tolerated and logged, never silently
// corrected.
func ReconcileReferrals(asset, chain string) (*ReconcileResult, error) {
	if asset == "" || chain == "" {
		return nil, &ValidationError{Msg: "asset and chain are required"}
	}

	var entries []models.ReferralLedgerEntry
	if err := dbconfig.DB.
		Where("asset = ? AND chain = ? AND status IN ?", asset, chain,
			[]string{models.ReferralStatusClaimable, models.ReferralStatusClaimed}).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	var sources []models.FeeDistributionSource
	if err := dbconfig.DB.Where("asset = ? AND chain = ?", asset, chain).Find(&sources).Error; err != nil {
		return nil, err
	}

	ledgerTotal := new(big.Int)
	for _, e := range entries {
		v, err := utils.ParseAmount(e.Amount)
		if err != nil {
			return nil, &IntegrityViolationError{Msg: fmt.Sprintf("ledger entry %d has unparseable amount %q", e.ID, e.Amount)}
		}
		ledgerTotal.Add(ledgerTotal, v)
	}

	sourceTotal := new(big.Int)
	for _, s := range sources {
		v, err := utils.ParseAmount(s.Amount)
		if err != nil {
			return nil, &IntegrityViolationError{Msg: fmt.Sprintf("distribution source %d has unparseable amount %q", s.ID, s.Amount)}
		}
		sourceTotal.Add(sourceTotal, v)
	}

	drift := new(big.Int).Sub(sourceTotal, ledgerTotal)
	result := &ReconcileResult{
		Asset:       asset,
		Chain:       chain,
		Match:       drift.Sign() == 0,
		Drift:       drift.String(),
		LedgerTotal: ledgerTotal.String(),
		SourceTotal: sourceTotal.String(),
		SplitCount:  len(sources),
	}

	if drift.Sign() < 0 {
		logrus.WithFields(logrus.Fields{
			"asset": asset, "chain": chain,
			"ledger_total": result.LedgerTotal,
			"source_total": result.SourceTotal,
			"drift":        result.Drift,
		}).Error("referral ledger exceeds distribution source")
		return result, &IntegrityViolationError{Msg: fmt.Sprintf(
			"referral ledger for %s/%s exceeds source by %s", asset, chain, new(big.Int).Neg(drift).String())}
	}

	if drift.Sign() > 0 {
		bound := big.NewInt(int64(len(sources)))
		fields := logrus.Fields{
			"asset": asset, "chain": chain, "drift": result.Drift, "split_count": len(sources),
		}
		if drift.Cmp(bound) <= 0 {
			logrus.WithFields(fields).Info("referral reconciliation within rounding remainder")
		} else {
			logrus.WithFields(fields).Warn("referral reconciliation drift exceeds rounding remainder")
		}
	}

	return result, nil
}

// ListReferralEntries returns a principal's ledger entries, optionally
// filtered by status.
func ListReferralEntries(referrerID, status string) ([]models.ReferralLedgerEntry, error) {
	if referrerID == "" {
		return nil, &ValidationError{Msg: "referrer_id is required"}
	}
	q := dbconfig.DB.Where("referrer_id = ?", referrerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var entries []models.ReferralLedgerEntry
	if err := q.Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
