package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "rulesets/default.yaml", cfg.RuleSet)
	assert.Equal(t, "corpora", cfg.CorpusDir)
	assert.Equal(t, 0.98, cfg.Threshold)
	assert.Equal(t, 3, cfg.ConsistencyRuns)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "first", cfg.HitPolicy)
	assert.Equal(t, "keyword", cfg.Extractor.Type)
	assert.NotEmpty(t, cfg.HistoryDB)

	assert.NoError(t, cfg.Validate())
}

func TestValidateThresholdRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 1.5
	require.Error(t, cfg.Validate())
	assert.Contains(t, cfg.Validate().Error(), "threshold")

	cfg.Threshold = -0.1
	assert.Error(t, cfg.Validate())

	cfg.Threshold = 1.0
	assert.NoError(t, cfg.Validate())
}

func TestValidateHitPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HitPolicy = "collect-all"
	assert.NoError(t, cfg.Validate())

	cfg.HitPolicy = "best-match"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hit_policy")
}

func TestValidateExtractorType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extractor.Type = "regex"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor type")
}

func TestValidateOpenAIRequiresBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extractor.Type = "openai"
	cfg.Extractor.BaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")

	cfg.Extractor.BaseURL = "http://localhost:11434/v1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateClampsRunsAndWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConsistencyRuns = 0
	cfg.Workers = -2
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.ConsistencyRuns)
	assert.Equal(t, 4, cfg.Workers)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SHELVER_TEST_KEY", "sk-secret")

	assert.Equal(t, "sk-secret", expandEnv("$SHELVER_TEST_KEY"))
	assert.Equal(t, "Bearer sk-secret", expandEnv("Bearer $SHELVER_TEST_KEY"))
	assert.Equal(t, "$UNSET_VARIABLE_XYZ", expandEnv("$UNSET_VARIABLE_XYZ"))
	assert.Equal(t, "plain", expandEnv("plain"))
}
