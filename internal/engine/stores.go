package engine

import (
	"context"

	"github.com/google/uuid"

	"learnpulse-backend/internal/models"
)

// ProgressStore persists per-user, per-activity engagement. The
// implementation must keep accumulated_seconds monotone: a save carrying a
// lower value than what is stored is a no-op for that column.
type ProgressStore interface {
	GetOrCreate(ctx context.Context, userID, activityID uuid.UUID) (*models.ProgressRecord, error)
	SaveProgress(ctx context.Context, userID, activityID uuid.UUID, accumulatedSeconds int, completed bool) error
	MarkDegraded(ctx context.Context, userID, activityID uuid.UUID) error
}

// Settlement is everything the finalizer hands to the store in one atomic
// write: the session result plus the reward to grant.
type Settlement struct {
	SessionID        uuid.UUID
	UserID           uuid.UUID
	ActivityID       uuid.UUID
	ActivityKind     string
	Score            int
	TotalQuestions   int
	TimeSpentSeconds int
	RewardAmount     float64
	Reason           string
}

// SettlementStore performs exactly-once reward settlement. Settle writes
// the session result and, only if the progress record's reward_granted
// flag is still clear, credits the wallet and appends a ledger entry, all
// in one transaction. The boolean result is true when the session was
// already settled, in which case the previously stored result is returned
// unchanged and nothing is credited.
type SettlementStore interface {
	Settle(ctx context.Context, s Settlement) (*models.SessionResult, bool, error)
	ResultBySession(ctx context.Context, sessionID uuid.UUID) (*models.SessionResult, error)
}

// EventPublisher pushes session events (warnings, termination, awards)
// toward the user's connected clients. Best-effort: delivery failures do
// not affect engine state.
type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}
