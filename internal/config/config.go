// Package config loads the routing tool's configuration from the usual
// places: config.yaml on the search path, then SHELVER_* environment
// variables, with flags layered on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RuleSet         string          `yaml:"rule_set" mapstructure:"rule_set"`
	CorpusDir       string          `yaml:"corpus_dir" mapstructure:"corpus_dir"`
	Threshold       float64         `yaml:"threshold" mapstructure:"threshold"`
	ConsistencyRuns int             `yaml:"consistency_runs" mapstructure:"consistency_runs"`
	Workers         int             `yaml:"workers" mapstructure:"workers"`
	Strict          bool            `yaml:"strict" mapstructure:"strict"`
	HitPolicy       string          `yaml:"hit_policy" mapstructure:"hit_policy"`
	HistoryDB       string          `yaml:"history_db" mapstructure:"history_db"`
	Extractor       ExtractorConfig `yaml:"extractor" mapstructure:"extractor"`
}

type ExtractorConfig struct {
	Type       string `yaml:"type" mapstructure:"type"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Model      string `yaml:"model" mapstructure:"model"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		RuleSet:         "rulesets/default.yaml",
		CorpusDir:       "corpora",
		Threshold:       0.98,
		ConsistencyRuns: 3,
		Workers:         4,
		HitPolicy:       "first",
		HistoryDB:       filepath.Join(home, ".shelver", "history.db"),
		Extractor: ExtractorConfig{
			Type:       "keyword",
			BaseURL:    "http://localhost:11434/v1",
			Model:      "qwen2.5:7b",
			MaxRetries: 3,
		},
	}
}

func configPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shelver", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "shelver", "config.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths
	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "shelver"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "shelver"))

	// Environment variables
	viper.SetEnvPrefix("SHELVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error produced
			return nil, err
		}
		// Config file not found; ignore and use defaults
	}

	// Unmarshal
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Manual expansion for keys in config file
	cfg.Extractor.APIKey = expandEnv(cfg.Extractor.APIKey)
	cfg.Extractor.BaseURL = expandEnv(cfg.Extractor.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("config: threshold %.3f out of range (must be 0..1)", c.Threshold)
	}
	validPolicies := map[string]bool{"first": true, "collect-all": true}
	if !validPolicies[c.HitPolicy] {
		return fmt.Errorf("config: hit_policy %q is invalid (must be first or collect-all)", c.HitPolicy)
	}
	validExtractors := map[string]bool{"keyword": true, "openai": true}
	if !validExtractors[c.Extractor.Type] {
		return fmt.Errorf("config: extractor type %q is invalid (must be keyword or openai)", c.Extractor.Type)
	}
	if c.Extractor.Type == "openai" && c.Extractor.BaseURL == "" {
		return fmt.Errorf("config: extractor type openai requires base_url")
	}
	if c.ConsistencyRuns < 1 {
		c.ConsistencyRuns = 3
	}
	if c.Workers < 1 {
		c.Workers = 4
	}
	return nil
}
