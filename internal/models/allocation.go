package models

import (
	"encoding/json"
	"time"
)

// AllocationRoot is the published Merkle commitment for a round's token
// allocations. One row per round, immutable once written.
type AllocationRoot struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RoundID      uint      `gorm:"not null;uniqueIndex" json:"round_id"`
	Chain        string    `gorm:"size:20;not null" json:"chain"`
	ScheduleSalt string    `gorm:"size:64;not null" json:"schedule_salt"`
	MerkleRoot   string    `gorm:"size:64;not null" json:"merkle_root"`
	LeafCount    int       `gorm:"not null" json:"leaf_count"`
	PublishedAt  time.Time `json:"published_at" gorm:"autoCreateTime"`
}

func (AllocationRoot) TableName() string {
	return "allocation_root"
}

// AllocationProof stores the precomputed inclusion proof for one wallet.
// Proofs are only ever served from here, never recomputed from
// client-supplied allocations.
type AllocationProof struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	RoundID   uint            `gorm:"not null;uniqueIndex:idx_alloc_round_wallet" json:"round_id"`
	Wallet    string          `gorm:"size:44;not null;uniqueIndex:idx_alloc_round_wallet" json:"wallet"`
	Amount    string          `gorm:"size:78;not null" json:"amount"` // base units, decimal string
	Proof     json.RawMessage `gorm:"type:jsonb" json:"proof"`        // ordered sibling hashes, hex
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (AllocationProof) TableName() string {
	return "allocation_proof"
}
