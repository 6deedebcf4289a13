package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types
const (
	LedgerPracticeReward    = "PRACTICE_REWARD"
	LedgerCompetitionReward = "COMPETITION_REWARD"
)

type Wallet struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	GemsBalance float64   `json:"gems_balance"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LedgerEntry struct {
	ID        uuid.UUID `json:"id"`
	WalletID  uuid.UUID `json:"wallet_id"`
	Amount    float64   `json:"amount"`
	EntryType string    `json:"entry_type"`
	RefType   string    `json:"ref_type"`
	RefID     uuid.UUID `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}
