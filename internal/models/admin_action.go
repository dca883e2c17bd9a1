package models

import (
	"encoding/json"
	"time"
)

// Admin action statuses
const (
	ActionStatusPending  = "PENDING"
	ActionStatusApproved = "APPROVED"
	ActionStatusRejected = "REJECTED"
	ActionStatusExpired  = "EXPIRED"
	ActionStatusExecuted = "EXECUTED"
)

// Admin action decision kinds
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionExecute = "execute"
)

// Known high-risk action types routed through dual control
const (
	ActionTypeReferralManualAdjustment = "referral_manual_adjustment"
	ActionTypeRoundRuleChange          = "round_rule_change"
)

// AdminAction is a proposed high-risk mutation awaiting dual control.
// ExpiresAt is a fixed offset from creation; reads past expiry must
// report PENDING actions as EXPIRED even before the sweep runs.
type AdminAction struct {
	ID          uint                  `gorm:"primarykey" json:"id"`
	ActionType  string                `gorm:"size:64;not null" json:"action_type"`
	Payload     json.RawMessage       `gorm:"type:jsonb" json:"payload"`
	RequestedBy string                `gorm:"size:100;not null" json:"requested_by"`
	Status      string                `gorm:"size:10;not null;default:'PENDING'" json:"status"`
	ExpiresAt   time.Time             `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time             `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time             `json:"updated_at" gorm:"autoUpdateTime"`
	Decisions   []AdminActionDecision `gorm:"foreignKey:ActionID" json:"decisions"`
}

func (AdminAction) TableName() string {
	return "admin_action"
}

// AdminActionDecision is the immutable audit trail: one row per
// transition, never updated or deleted.
type AdminActionDecision struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ActionID  uint      `gorm:"not null;index" json:"action_id"`
	Actor     string    `gorm:"size:100;not null" json:"actor"`
	Decision  string    `gorm:"size:10;not null" json:"decision"`
	Reason    string    `gorm:"size:255" json:"reason"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (AdminActionDecision) TableName() string {
	return "admin_action_decision"
}
