package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity kinds
const (
	KindLesson      = "lesson"
	KindPractice    = "practice"
	KindCompetition = "competition"
)

// Activity is one timed learning unit: a daily video lesson, a practice
// question set, or a live competition round. Once attempts exist only the
// active flag may change.
type Activity struct {
	ID                     uuid.UUID       `json:"id"`
	Kind                   string          `json:"kind"`
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	VideoURL               *string         `json:"video_url,omitempty"`
	ThumbnailURL           *string         `json:"thumbnail_url,omitempty"`
	Difficulty             string          `json:"difficulty"` // "easy" | "medium" | "hard"
	TotalDurationSeconds   int             `json:"total_duration_seconds"`
	RequiredEngagedSeconds int             `json:"required_engaged_seconds"`
	GemsReward             *float64        `json:"gems_reward,omitempty"` // per-activity override
	RewardScheduleJSON     json.RawMessage `json:"reward_schedule"`       // difficulty → gems
	EntryPriceGems         float64         `json:"entry_price_gems"`
	StartsAt               *time.Time      `json:"starts_at,omitempty"`
	EndsAt                 *time.Time      `json:"ends_at,omitempty"`
	Active                 bool            `json:"active"`
	AttemptCount           int             `json:"attempt_count"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

type CreateActivityRequest struct {
	Kind                   string          `json:"kind"`
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	VideoURL               *string         `json:"video_url"`
	Difficulty             string          `json:"difficulty"`
	TotalDurationSeconds   int             `json:"total_duration_seconds"`
	RequiredEngagedSeconds int             `json:"required_engaged_seconds"`
	GemsReward             *float64        `json:"gems_reward"`
	RewardScheduleJSON     json.RawMessage `json:"reward_schedule"`
	EntryPriceGems         float64         `json:"entry_price_gems"`
	StartsAt               *time.Time      `json:"starts_at"`
	EndsAt                 *time.Time      `json:"ends_at"`
}

// ActivityStatus is the catalog view: activity plus the caller's progress.
type ActivityStatus struct {
	Activity
	AccumulatedSeconds int     `json:"accumulated_seconds"`
	Completed          bool    `json:"completed"`
	RewardGranted      bool    `json:"reward_granted"`
	GemsEarned         float64 `json:"gems_earned"`
}

type LeaderboardEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	GemsEarned   float64   `json:"gems_earned"`
	CorrectTotal int       `json:"correct_total"`
	AvgTimeMs    int       `json:"avg_time_ms"`
	UpdatedAt    time.Time `json:"updated_at"`
}
