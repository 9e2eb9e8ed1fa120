// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "weekender/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClassifierConfig holds settings for the context classification stage.
type ClassifierConfig struct {
	// Model is the chat model used for city analysis.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the completion API endpoint (tests, proxies).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of re-classification attempts after a
	// validation failure (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds one classification call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// EngineConfig holds settings for the fan-out execution engine.
type EngineConfig struct {
	// GlobalConcurrency caps tasks in flight across all sources (default 8).
	GlobalConcurrency int `json:"global_concurrency" yaml:"global_concurrency"`

	// TaskTimeout bounds one task attempt (default 20s).
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// MaxRetries is the retry budget for transient failures (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// CacheConfig holds settings for the raw-response cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database.
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a cached source response stays fresh (default 72h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// SynthesisConfig holds tunables for dedup and ranking.
type SynthesisConfig struct {
	// FuzzyDistance is the maximum Levenshtein distance at which two
	// normalized names still count as the same entity (default 2).
	FuzzyDistance int `json:"fuzzy_distance" yaml:"fuzzy_distance"`

	// MaxPerCategory caps the items returned per category (0 = no cap).
	MaxPerCategory int `json:"max_per_category" yaml:"max_per_category"`
}

// Config groups all stage configurations for a run.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`

	// Deadline bounds the whole run; zero means no deadline.
	Deadline time.Duration `json:"deadline" yaml:"deadline"`
}

// Defaults fills zero fields with working defaults.
func (c *Config) Defaults() {
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 15 * time.Second
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = "weekender/0.1"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Classifier.MaxRetries == 0 {
		c.Classifier.MaxRetries = 2
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 30 * time.Second
	}
	if c.Engine.GlobalConcurrency == 0 {
		c.Engine.GlobalConcurrency = 8
	}
	if c.Engine.TaskTimeout == 0 {
		c.Engine.TaskTimeout = 20 * time.Second
	}
	if c.Engine.MaxRetries == 0 {
		c.Engine.MaxRetries = 2
	}
	if c.Engine.RetryBaseDelay == 0 {
		c.Engine.RetryBaseDelay = 2 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 72 * time.Hour
	}
	if c.Synthesis.FuzzyDistance == 0 {
		c.Synthesis.FuzzyDistance = 2
	}
}
