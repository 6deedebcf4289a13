package engine

import (
	"encoding/json"
	"fmt"

	"learnpulse-backend/internal/models"
)

// Base practice rewards per difficulty, in gems. Fractional amounts are
// the norm: gems are a fine-grained currency.
var defaultSchedule = map[string]float64{
	"easy":   0.001,
	"medium": 0.005,
	"hard":   0.1,
}

// CompetitionMultiplier scales the practice base for competition context.
const CompetitionMultiplier = 10.0

// maxTimeBonus caps the competition finish-time bonus at +50%.
const maxTimeBonus = 0.5

// ComputeReward returns the base reward unit for an activity: the amount
// paid for completing a lesson, or per correct answer for practice and
// competition questions. A configured per-activity gems_reward takes
// precedence over the difficulty schedule; the activity's own schedule
// takes precedence over the default table. Side-effect free; the caller
// is responsible for the atomic grant.
func ComputeReward(a models.Activity) float64 {
	if a.GemsReward != nil && *a.GemsReward >= 0 {
		return *a.GemsReward
	}

	amount, ok := scheduleAmount(a.RewardScheduleJSON, a.Difficulty)
	if !ok {
		amount = defaultSchedule[a.Difficulty]
	}

	if a.Kind == models.KindCompetition {
		amount *= CompetitionMultiplier
	}
	return amount
}

// TimeBonusMultiplier rewards fast competition finishes: up to +50% of the
// earned gems, scaled linearly by the fraction of the clock left unused.
func TimeBonusMultiplier(limitSeconds, spentSeconds int) float64 {
	if limitSeconds <= 0 {
		return 1
	}
	remaining := float64(limitSeconds-spentSeconds) / float64(limitSeconds)
	if remaining < 0 {
		remaining = 0
	}
	return 1 + remaining*maxTimeBonus
}

// ValidateActivity checks the configuration a session depends on. It runs
// once at session start so a malformed activity never begins tracking.
func ValidateActivity(a models.Activity) error {
	if a.RequiredEngagedSeconds <= 0 {
		return &ConfigurationError{Message: "activity has non-positive required engaged seconds"}
	}
	if a.TotalDurationSeconds < 0 {
		return &ConfigurationError{Message: "activity has negative total duration"}
	}
	if a.GemsReward != nil && *a.GemsReward < 0 {
		return &ConfigurationError{Message: "activity has negative gems reward"}
	}
	if len(a.RewardScheduleJSON) > 0 && string(a.RewardScheduleJSON) != "null" {
		var schedule map[string]float64
		if err := json.Unmarshal(a.RewardScheduleJSON, &schedule); err != nil {
			return &ConfigurationError{Message: fmt.Sprintf("activity has malformed reward schedule: %v", err)}
		}
		for difficulty, amount := range schedule {
			if amount < 0 {
				return &ConfigurationError{Message: fmt.Sprintf("reward schedule has negative amount for %q", difficulty)}
			}
		}
	}
	return nil
}

func scheduleAmount(raw json.RawMessage, difficulty string) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var schedule map[string]float64
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return 0, false
	}
	amount, ok := schedule[difficulty]
	return amount, ok
}
