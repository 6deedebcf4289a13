package engine

import (
	"encoding/json"
	"math"
	"testing"

	"learnpulse-backend/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeReward_DifficultyTable(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		difficulty string
		expected   float64
	}{
		{"practice easy", models.KindPractice, "easy", 0.001},
		{"practice medium", models.KindPractice, "medium", 0.005},
		{"practice hard", models.KindPractice, "hard", 0.1},
		{"competition easy is 10x", models.KindCompetition, "easy", 0.01},
		{"competition medium is 10x", models.KindCompetition, "medium", 0.05},
		{"competition hard is 10x", models.KindCompetition, "hard", 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := models.Activity{Kind: tc.kind, Difficulty: tc.difficulty}
			got := ComputeReward(a)
			if !almostEqual(got, tc.expected) {
				t.Errorf("Expected %v gems, got %v", tc.expected, got)
			}
		})
	}
}

func TestComputeReward_CompetitionIsTenTimesPractice(t *testing.T) {
	practice := models.Activity{Kind: models.KindPractice, Difficulty: "hard"}
	competition := models.Activity{Kind: models.KindCompetition, Difficulty: "hard"}

	if !almostEqual(ComputeReward(competition), 10*ComputeReward(practice)) {
		t.Errorf("Competition hard %v is not 10x practice hard %v",
			ComputeReward(competition), ComputeReward(practice))
	}
}

func TestComputeReward_ConfiguredOverrideWins(t *testing.T) {
	override := 2.5
	a := models.Activity{
		Kind:               models.KindLesson,
		Difficulty:         "hard",
		GemsReward:         &override,
		RewardScheduleJSON: json.RawMessage(`{"hard": 0.2}`),
	}

	if got := ComputeReward(a); !almostEqual(got, 2.5) {
		t.Errorf("Expected configured reward 2.5, got %v", got)
	}
}

func TestComputeReward_ActivityScheduleOverridesDefaults(t *testing.T) {
	a := models.Activity{
		Kind:               models.KindPractice,
		Difficulty:         "medium",
		RewardScheduleJSON: json.RawMessage(`{"medium": 0.02}`),
	}

	if got := ComputeReward(a); !almostEqual(got, 0.02) {
		t.Errorf("Expected schedule amount 0.02, got %v", got)
	}
}

func TestTimeBonusMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		spent    int
		expected float64
	}{
		{"instant finish gets full bonus", 1800, 0, 1.5},
		{"half time gets half bonus", 1800, 900, 1.25},
		{"full time gets no bonus", 1800, 1800, 1.0},
		{"overtime clamps to no bonus", 1800, 2400, 1.0},
		{"no limit means no bonus", 0, 100, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeBonusMultiplier(tc.limit, tc.spent); !almostEqual(got, tc.expected) {
				t.Errorf("Expected multiplier %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestValidateActivity(t *testing.T) {
	reward := 0.5
	negative := -1.0

	tests := []struct {
		name    string
		a       models.Activity
		wantErr bool
	}{
		{"valid lesson", models.Activity{RequiredEngagedSeconds: 120, TotalDurationSeconds: 300}, false},
		{"required beyond duration is allowed", models.Activity{RequiredEngagedSeconds: 400, TotalDurationSeconds: 300}, false},
		{"zero required", models.Activity{RequiredEngagedSeconds: 0, TotalDurationSeconds: 300}, true},
		{"negative required", models.Activity{RequiredEngagedSeconds: -10, TotalDurationSeconds: 300}, true},
		{"negative duration", models.Activity{RequiredEngagedSeconds: 60, TotalDurationSeconds: -1}, true},
		{"valid override", models.Activity{RequiredEngagedSeconds: 60, GemsReward: &reward}, false},
		{"negative override", models.Activity{RequiredEngagedSeconds: 60, GemsReward: &negative}, true},
		{"malformed schedule", models.Activity{RequiredEngagedSeconds: 60, RewardScheduleJSON: json.RawMessage(`{"easy":`)}, true},
		{"negative schedule amount", models.Activity{RequiredEngagedSeconds: 60, RewardScheduleJSON: json.RawMessage(`{"easy": -0.1}`)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateActivity(tc.a)
			if tc.wantErr && err == nil {
				t.Error("Expected configuration error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tc.wantErr {
				if _, ok := err.(*ConfigurationError); !ok {
					t.Errorf("Expected *ConfigurationError, got %T", err)
				}
			}
		})
	}
}
