package models

import "time"

const (
	LedgerEntryTypeCredit   = "credit"
	LedgerReasonMatchReward = "match_reward"
)

// GoldLedgerEntry is one append-only gold movement. Entries are never
// updated or deleted; BalanceAfter is recorded on every entry so balances
// can be reconciled against the ledger.
type GoldLedgerEntry struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	MatchID      string    `gorm:"index;not null" json:"match_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	EntryType    string    `gorm:"type:varchar(16);not null" json:"entry_type"`
	Reason       string    `gorm:"type:varchar(32);not null" json:"reason"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
