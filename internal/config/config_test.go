package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsInt(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt_PanicsOnMalformedValue(t *testing.T) {
	os.Setenv("TEST_INT_BAD", "ninety")
	defer os.Unsetenv("TEST_INT_BAD")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for non-numeric value")
		}
	}()

	getEnvAsInt("TEST_INT_BAD", 90)
}

func TestLoad_EngineDefaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/learnpulse_test")
	os.Setenv("REDIS_URL", "redis://localhost:6379")
	os.Setenv("JWT_SECRET", "test-secret")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("JWT_SECRET")
	}()

	cfg := Load()

	if cfg.TrackerDebounceSeconds != 2 {
		t.Errorf("Expected debounce default 2, got %d", cfg.TrackerDebounceSeconds)
	}
	if cfg.SessionIdleTimeoutSeconds != 90 {
		t.Errorf("Expected idle timeout default 90, got %d", cfg.SessionIdleTimeoutSeconds)
	}
	if cfg.GuardInputWarn != 2 || cfg.GuardInputTerminate != 3 {
		t.Errorf("Expected input thresholds 2/3, got %d/%d", cfg.GuardInputWarn, cfg.GuardInputTerminate)
	}
	if cfg.GuardFocusWarn != 1 || cfg.GuardFocusTerminate != 2 {
		t.Errorf("Expected focus thresholds 1/2, got %d/%d", cfg.GuardFocusWarn, cfg.GuardFocusTerminate)
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}
