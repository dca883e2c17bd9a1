package models

import (
	"time"
)

// Round lifecycle statuses
const (
	RoundStatusSubmitted = "submitted"
	RoundStatusApproved  = "approved"
	RoundStatusDeployed  = "deployed"
	RoundStatusLive      = "live"
	RoundStatusEnded     = "ended"
	RoundStatusSuccess   = "success"
	RoundStatusFailed    = "failed"
)

// Round kinds
const (
	RoundKindPresale    = "presale"
	RoundKindFairlaunch = "fairlaunch"
)

// Settlement results reported by on-chain settlement tracking
const (
	SettleResultNone    = "NONE"
	SettleResultSuccess = "SUCCESS"
	SettleResultFailed  = "FAILED"
)

type LaunchRound struct {
	ID                    uint       `gorm:"primarykey" json:"id"`
	Name                  string     `gorm:"size:64;not null" json:"name"`
	Kind                  string     `gorm:"size:20;not null;default:'presale'" json:"kind"` // 'presale' or 'fairlaunch'
	Chain                 string     `gorm:"size:20;not null;default:'solana'" json:"chain"`
	TokenMint             string     `gorm:"size:44" json:"token_mint"`
	RequiresLiquidityLock bool       `gorm:"default:true" json:"requires_liquidity_lock"`
	Status                string     `gorm:"size:20;not null;default:'submitted'" json:"status"`
	SettleResult          string     `gorm:"size:10;not null;default:'NONE'" json:"settle_result"`
	RaisedAmount          string     `gorm:"size:78;not null;default:'0'" json:"raised_amount"` // base units, decimal string
	SoftCap               string     `gorm:"size:78;not null;default:'0'" json:"soft_cap"`
	SuccessGatedAt        *time.Time `json:"success_gated_at"`
	CreatedAt             time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LaunchRound) TableName() string {
	return "launch_round"
}

// Vesting confirmation statuses (off-chain vesting-setup process)
const (
	VestingStatusNone      = "NONE"
	VestingStatusPending   = "PENDING"
	VestingStatusConfirmed = "CONFIRMED"
)

type VestingConfirmation struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	RoundID     uint      `gorm:"not null;uniqueIndex" json:"round_id"`
	Status      string    `gorm:"size:10;not null;default:'NONE'" json:"status"`
	MerkleRoot  string    `gorm:"size:64" json:"merkle_root"`
	ScheduleRef string    `gorm:"size:100" json:"schedule_ref"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (VestingConfirmation) TableName() string {
	return "vesting_confirmation"
}

// Liquidity lock statuses (off-chain lock-verification process).
// NOT_APPLICABLE is written at round creation for rounds without a DEX
// listing; it is a first-class value so that "never checked" and
// "no lock needed" can never be confused.
const (
	LockStatusNone          = "NONE"
	LockStatusPending       = "PENDING"
	LockStatusLocked        = "LOCKED"
	LockStatusUnlocked      = "UNLOCKED"
	LockStatusNotApplicable = "NOT_APPLICABLE"
)

type LiquidityLockConfirmation struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	RoundID         uint      `gorm:"not null;uniqueIndex" json:"round_id"`
	Status          string    `gorm:"size:20;not null;default:'NONE'" json:"status"`
	LockTxSignature string    `gorm:"size:100" json:"lock_tx_signature"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LiquidityLockConfirmation) TableName() string {
	return "liquidity_lock_confirmation"
}
