package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
)

// AppConfig is the optional TOML tuning file for agent and extraction
// behavior. Every field has a working default; the file only overrides.
type AppConfig struct {
	Agent      AgentConfig      `toml:"agent"`
	Extraction ExtractionConfig `toml:"extraction"`

	// ContextWindows overrides the per-model context budget in characters
	ContextWindows map[string]int `toml:"context_windows"`
}

// AgentConfig tunes the sense/plan/execute loop
type AgentConfig struct {
	MaxSteps int `toml:"max_steps"`
}

// ExtractionConfig tunes the extraction pipeline
type ExtractionConfig struct {
	DedupThreshold float64 `toml:"dedup_threshold"`
	Concurrency    int     `toml:"concurrency"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Agent.MaxSteps < 0 {
		return goerr.New("agent.max_steps must not be negative", goerr.V("max_steps", a.Agent.MaxSteps))
	}
	if a.Extraction.DedupThreshold < 0 || a.Extraction.DedupThreshold > 1 {
		return goerr.New("extraction.dedup_threshold must be within [0, 1]",
			goerr.V("threshold", a.Extraction.DedupThreshold))
	}
	if a.Extraction.Concurrency < 0 {
		return goerr.New("extraction.concurrency must not be negative",
			goerr.V("concurrency", a.Extraction.Concurrency))
	}
	for model, window := range a.ContextWindows {
		if window <= 0 {
			return goerr.New("context window must be positive",
				goerr.V("model", model), goerr.V("window", window))
		}
	}
	return nil
}

// UseCaseOptions converts the configured overrides into use-case options
func (a *AppConfig) UseCaseOptions() []usecase.Option {
	var opts []usecase.Option
	if a.Agent.MaxSteps > 0 {
		opts = append(opts, usecase.WithMaxSteps(a.Agent.MaxSteps))
	}
	if a.Extraction.DedupThreshold > 0 {
		opts = append(opts, usecase.WithDedupThreshold(a.Extraction.DedupThreshold))
	}
	if a.Extraction.Concurrency > 0 {
		opts = append(opts, usecase.WithExtractConcurrency(a.Extraction.Concurrency))
	}
	return opts
}

// WindowFor returns the configured context window for the model, or zero
// when no override exists
func (a *AppConfig) WindowFor(model string) int {
	return a.ContextWindows[model]
}

// LoadAppConfiguration loads the application configuration from a TOML
// file. An empty path yields the zero config, meaning all defaults.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	var config AppConfig
	if path == "" {
		return &config, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", path))
	}

	return &config, nil
}
