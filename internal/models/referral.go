package models

import (
	"time"
)

// Referral ledger entry source types
const (
	ReferralSourceContribution     = "CONTRIBUTION"
	ReferralSourceManualAdjustment = "MANUAL_ADJUSTMENT"
)

// Referral ledger entry statuses
const (
	ReferralStatusClaimable = "CLAIMABLE"
	ReferralStatusClaimed   = "CLAIMED"
)

// ReferralLedgerEntry is append-oriented: rows are inserted by
// contribution tracking or approved manual adjustments and the only
// mutation ever applied is CLAIMABLE -> CLAIMED.
type ReferralLedgerEntry struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	ReferrerID string     `gorm:"size:100;not null;index" json:"referrer_id"`
	SourceType string     `gorm:"size:20;not null;uniqueIndex:idx_referral_source" json:"source_type"`
	SourceRef  string     `gorm:"size:100;not null;uniqueIndex:idx_referral_source" json:"source_ref"`
	Amount     string     `gorm:"size:78;not null" json:"amount"` // base units, decimal string
	Asset      string     `gorm:"size:44;not null" json:"asset"`
	Chain      string     `gorm:"size:20;not null" json:"chain"`
	Status     string     `gorm:"size:10;not null;default:'CLAIMABLE'" json:"status"`
	ClaimedAt  *time.Time `json:"claimed_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (ReferralLedgerEntry) TableName() string {
	return "referral_ledger_entry"
}

// FeeDistributionSource records the externally-sourced distributable
// amounts designated for referrals. It is the reconciliation target the
// ledger must never exceed.
type FeeDistributionSource struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Asset     string    `gorm:"size:44;not null;index:idx_fee_source_pair" json:"asset"`
	Chain     string    `gorm:"size:20;not null;index:idx_fee_source_pair" json:"chain"`
	Amount    string    `gorm:"size:78;not null" json:"amount"` // base units, decimal string
	SourceRef string    `gorm:"size:100;not null;uniqueIndex" json:"source_ref"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (FeeDistributionSource) TableName() string {
	return "fee_distribution_source"
}
