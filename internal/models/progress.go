package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord is the persisted per-user, per-activity engagement state.
// AccumulatedSeconds never decreases; RewardGranted flips false→true at
// most once. Records are never deleted.
type ProgressRecord struct {
	UserID             uuid.UUID `json:"user_id"`
	ActivityID         uuid.UUID `json:"activity_id"`
	AccumulatedSeconds int       `json:"accumulated_seconds"`
	Completed          bool      `json:"completed"`
	RewardGranted      bool      `json:"reward_granted"`
	RewardAmount       float64   `json:"reward_amount"`
	Degraded           bool      `json:"degraded"`
	LastUpdateAt       time.Time `json:"last_update_at"`
	CreatedAt          time.Time `json:"created_at"`
}
