package models

import (
	"time"

	"github.com/google/uuid"
)

// Session termination reasons.
const (
	ReasonCompleted   = "normal-completion"
	ReasonTimeExpired = "time-expired"
	ReasonAbuse       = "abuse-detected"
	ReasonUserExit    = "user-exit"
)

// SessionResult is the write-once snapshot recorded when a session ends.
type SessionResult struct {
	SessionID         uuid.UUID `json:"session_id"`
	UserID            uuid.UUID `json:"user_id"`
	ActivityID        uuid.UUID `json:"activity_id"`
	Score             int       `json:"score"`
	TotalQuestions    int       `json:"total_questions"`
	RewardEarned      float64   `json:"reward_earned"`
	TimeSpentSeconds  int       `json:"time_spent_seconds"`
	TerminationReason string    `json:"termination_reason"`
	CreatedAt         time.Time `json:"created_at"`
}

type StartSessionRequest struct {
	ActivityID uuid.UUID `json:"activity_id"`
}

type TickRequest struct {
	DeltaSeconds int `json:"delta_seconds"`
}

type TickResponse struct {
	AccumulatedSeconds int  `json:"accumulated_seconds"`
	Complete           bool `json:"complete"`
	FirstTransition    bool `json:"first_transition"`
	Degraded           bool `json:"degraded"`
}

type SignalRequest struct {
	SignalType string `json:"signal_type"`
}

type SignalResponse struct {
	GuardState string         `json:"guard_state"`
	Counts     map[string]int `json:"counts"`
}

type AnswerRequest struct {
	QuestionIndex int  `json:"question_index"`
	Correct       bool `json:"correct"`
}

type AnswerResponse struct {
	Score          int     `json:"score"`
	Answered       int     `json:"answered"`
	GemsEarned     float64 `json:"gems_earned"`
	TotalQuestions int     `json:"total_questions"`
}

type FinalizeRequest struct {
	Reason string `json:"reason"`
}

// FinalizeJob is what the teardown beacon pushes onto the redis queue; the
// worker pool retries it until settlement sticks.
type FinalizeJob struct {
	SessionID  uuid.UUID `json:"session_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	RetryCount int       `json:"retry_count"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
