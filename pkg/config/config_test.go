package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsNegativeBudget(t *testing.T) {
	cfg := &Config{
		DatabaseDSN:         "postgres://x",
		RateLimitWindow:     1,
		HopLimit:            6,
		ConfidenceThreshold: 80,
		ImagesPerQuery:      5,
		Budgets:             BudgetConfig{Search: -1, Recog: 100, LLM: 15},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "budgets")
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	cfg := &Config{
		DatabaseDSN:         "postgres://x",
		RateLimitWindow:     1,
		HopLimit:            6,
		ConfidenceThreshold: 150,
		ImagesPerQuery:      5,
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIDENCE_THRESHOLD")
}

func TestValidateRejectsEmptyOriginEntry(t *testing.T) {
	cfg := &Config{
		DatabaseDSN:         "postgres://x",
		RateLimitWindow:     1,
		HopLimit:            6,
		ConfidenceThreshold: 80,
		ImagesPerQuery:      5,
		AllowedOrigins:      []string{"https://a.example", ""},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ALLOWED_ORIGINS")
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{
		DatabaseDSN:         "postgres://x",
		RateLimitMax:        50,
		RateLimitWindow:     1,
		HopLimit:            6,
		ConfidenceThreshold: 80,
		ImagesPerQuery:      5,
		Budgets:             BudgetConfig{Search: 20, Recog: 100, LLM: 15},
	}
	assert.NoError(t, cfg.Validate())
}

func TestEnvIntFallsBackToDefaultOnGarbage(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "not-a-number")
	assert.Equal(t, 42, envInt("TEST_ENV_INT", 42))
}

func TestEnvListSplitsAndTrims(t *testing.T) {
	t.Setenv("TEST_ENV_LIST", "a, b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, envList("TEST_ENV_LIST"))
}

func TestEnvListAbsentIsNil(t *testing.T) {
	assert.Nil(t, envList("TEST_ENV_LIST_MISSING_XYZ"))
}
