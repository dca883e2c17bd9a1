package business

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"launchcontrol/internal/models"
	dbconfig "launchcontrol/pkg/config"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ActionExpiry is the fixed window an action stays actionable after
// creation. There is no requester-side cancellation: only rejection by an
// approver or natural expiry.
const ActionExpiry = 24 * time.Hour

// RequiredApprovals is the quorum of approvers distinct from the
// requester. The observed two-man rule is requester + one independent
// approver.
const RequiredApprovals = 1

// effectiveStatus applies lazy expiry: a PENDING action past its expiry
// reads as EXPIRED even before the sweep has persisted it.
func effectiveStatus(a *models.AdminAction, now time.Time) string {
	if a.Status == models.ActionStatusPending && now.After(a.ExpiresAt) {
		return models.ActionStatusExpired
	}
	return a.Status
}

// RequestAdminAction proposes a high-risk mutation for dual control.
func RequestAdminAction(p Principal, actionType string, payload json.RawMessage) (*models.AdminAction, error) {
	if p.ID == "" {
		return nil, &ValidationError{Msg: "requester identity is required"}
	}
	if actionType == "" {
		return nil, &ValidationError{Msg: "action_type is required"}
	}

	action := models.AdminAction{
		ActionType:  actionType,
		Payload:     payload,
		RequestedBy: p.ID,
		Status:      models.ActionStatusPending,
		ExpiresAt:   time.Now().Add(ActionExpiry),
	}
	if err := dbconfig.DB.Create(&action).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"action_id":    action.ID,
		"action_type":  actionType,
		"requested_by": p.ID,
	}).Info("admin action requested")
	return &action, nil
}

// GetAdminAction loads an action with its audit trail, reporting lazy
// expiry.
func GetAdminAction(actionID uint) (*models.AdminAction, error) {
	var action models.AdminAction
	if err := dbconfig.DB.Preload("Decisions").First(&action, actionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "admin action", Ref: fmt.Sprintf("%d", actionID)}
		}
		return nil, err
	}
	action.Status = effectiveStatus(&action, time.Now())
	return &action, nil
}

// ListAdminActions returns actions, optionally filtered by status, with
// lazy expiry applied to each.
func ListAdminActions(status string) ([]models.AdminAction, error) {
	q := dbconfig.DB.Preload("Decisions").Order("id desc")
	var actions []models.AdminAction
	if err := q.Find(&actions).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]models.AdminAction, 0, len(actions))
	for i := range actions {
		actions[i].Status = effectiveStatus(&actions[i], now)
		if status == "" || actions[i].Status == status {
			out = append(out, actions[i])
		}
	}
	return out, nil
}

// decide records an approve/reject decision under dual-control rules.
func decide(actionID uint, p Principal, decision, reason string) (*models.AdminAction, error) {
	if !p.HasRole(RoleApprover) {
		return nil, &ConflictError{Msg: fmt.Sprintf("principal %s lacks the approver capability", p.ID)}
	}

	var action models.AdminAction
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&action, actionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "admin action", Ref: fmt.Sprintf("%d", actionID)}
			}
			return err
		}

		now := time.Now()
		if effectiveStatus(&action, now) == models.ActionStatusExpired {
			// persist what the lazy read already reports
			if action.Status == models.ActionStatusPending {
				if err := tx.Model(&action).Update("status", models.ActionStatusExpired).Error; err != nil {
					return err
				}
			}
			return &ExpiredActionError{ActionID: actionID}
		}
		if action.Status != models.ActionStatusPending {
			return &ConflictError{Msg: fmt.Sprintf("admin action %d is %s, no further decisions accepted", actionID, action.Status)}
		}
		if action.RequestedBy == p.ID {
			return &ConflictError{Msg: fmt.Sprintf("requester %s cannot decide on their own action", p.ID)}
		}

		row := models.AdminActionDecision{
			ActionID: actionID,
			Actor:    p.ID,
			Decision: decision,
			Reason:   reason,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if decision == models.DecisionReject {
			action.Status = models.ActionStatusRejected
			return tx.Model(&models.AdminAction{}).Where("id = ?", actionID).
				Update("status", models.ActionStatusRejected).Error
		}

		var approvals int64
		if err := tx.Model(&models.AdminActionDecision{}).
			Where("action_id = ? AND decision = ?", actionID, models.DecisionApprove).
			Distinct("actor").Count(&approvals).Error; err != nil {
			return err
		}
		if approvals >= RequiredApprovals {
			action.Status = models.ActionStatusApproved
			return tx.Model(&models.AdminAction{}).Where("id = ?", actionID).
				Update("status", models.ActionStatusApproved).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"action_id": actionID,
		"actor":     p.ID,
		"decision":  decision,
		"status":    action.Status,
	}).Info("admin action decision recorded")
	return &action, nil
}

// ApproveAdminAction records an approval from a non-requester approver.
func ApproveAdminAction(actionID uint, p Principal, reason string) (*models.AdminAction, error) {
	return decide(actionID, p, models.DecisionApprove, reason)
}

// RejectAdminAction rejects a pending action.
func RejectAdminAction(actionID uint, p Principal, reason string) (*models.AdminAction, error) {
	return decide(actionID, p, models.DecisionReject, reason)
}

// ExecuteAdminAction executes an APPROVED action. Execution needs the
// elevated executor capability and is idempotent: executing an action
// that is already EXECUTED is a no-op success so retried requests don't
// fail.
func ExecuteAdminAction(actionID uint, p Principal, reason string) (*models.AdminAction, error) {
	if !p.HasRole(RoleExecutor) {
		return nil, &ConflictError{Msg: fmt.Sprintf("principal %s lacks the executor capability", p.ID)}
	}

	var action models.AdminAction
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&action, actionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "admin action", Ref: fmt.Sprintf("%d", actionID)}
			}
			return err
		}

		if action.Status == models.ActionStatusExecuted {
			return nil
		}
		now := time.Now()
		if effectiveStatus(&action, now) == models.ActionStatusExpired {
			return &ExpiredActionError{ActionID: actionID}
		}
		if action.Status != models.ActionStatusApproved {
			return &ConflictError{Msg: fmt.Sprintf("admin action %d is %s, only approved actions execute", actionID, action.Status)}
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
		action.Status = models.ActionStatusExecuted

		row := models.AdminActionDecision{
			ActionID: actionID,
			Actor:    p.ID,
			Decision: models.DecisionExecute,
			Reason:   reason,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"action_id": actionID, "executed_by": p.ID}).Info("admin action executed")
	return &action, nil
}

// SweepExpiredActions persists EXPIRED for every PENDING action past its
// expiry. Lazy reads already report them as expired, so correctness never
// depends on the sweep's timing.
func SweepExpiredActions() (int64, error) {
	res := dbconfig.DB.Model(&models.AdminAction{}).
		Where("status = ? AND expires_at <= ?", models.ActionStatusPending, time.Now()).
		Update("status", models.ActionStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logrus.Infof("expired %d pending admin actions", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
