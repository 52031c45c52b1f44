// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "code-finder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig holds settings for candidate aggregation and officiality
// selection over links extracted from a paper's document.
type DiscoveryConfig struct {
	// AllowedHosts is the allow-list of code-hosting domains. URLs on any
	// other domain are dropped silently.
	AllowedHosts []string `json:"allowed_hosts" yaml:"allowed_hosts"`

	// ContextWindow is the number of characters of surrounding text kept on
	// each side of an extracted link (default 100).
	ContextWindow int `json:"context_window" yaml:"context_window"`

	// AuthoritativePosition is the document-position fraction below which a
	// link counts as conventionally authoritative (abstract/first-page area).
	AuthoritativePosition float64 `json:"authoritative_position" yaml:"authoritative_position"`
}

// SearchConfig holds settings for the code-search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of search results to consider (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Token is an optional API token for higher rate limits.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// MinRelevance is the judge-reported relevance below which a search
	// candidate is discarded rather than deprioritized (default 0.3).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`
}

// QualityConfig holds the rule-filter thresholds and semantic-evaluation
// settings for the quality gate.
type QualityConfig struct {
	// MinCodeFiles is the minimum number of recognized code files in the
	// repository root (default 1).
	MinCodeFiles int `json:"min_code_files" yaml:"min_code_files"`

	// MinRepoSizeKB is the minimum repository size in kilobytes (default 10).
	MinRepoSizeKB int `json:"min_repo_size_kb" yaml:"min_repo_size_kb"`

	// AbandonedAfter is how long without a push a repository counts as
	// abandoned (default 3 years). An abandoned repository fails only when it
	// is also unpopular: both conditions must hold.
	AbandonedAfter time.Duration `json:"abandoned_after" yaml:"abandoned_after"`

	// MinStarsForOldRepo is the star count an abandoned repository needs to
	// survive the rule filter (default 5).
	MinStarsForOldRepo int `json:"min_stars_for_old_repo" yaml:"min_stars_for_old_repo"`

	// MeaningfulThreshold is the score at or above which a repository is
	// meaningful (default 0.5). QualityAssessment.IsMeaningful is derived
	// from this threshold, never taken verbatim from the judge.
	MeaningfulThreshold float64 `json:"meaningful_threshold" yaml:"meaningful_threshold"`

	// NeutralScore replaces a missing or malformed judge score (default 0.5).
	NeutralScore float64 `json:"neutral_score" yaml:"neutral_score"`

	// MaxReadmeChars is how much README text is sent for semantic evaluation
	// (default 4000).
	MaxReadmeChars int `json:"max_readme_chars" yaml:"max_readme_chars"`
}

// JudgeConfig holds settings for the judgment-service collaborator.
type JudgeConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxConcurrent bounds in-flight judge calls across workers (default 1).
	// The judge is a shared, externally rate-limited resource; excess calls
	// queue rather than fail.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Search    SearchConfig    `json:"search" yaml:"search"`
	Quality   QualityConfig   `json:"quality" yaml:"quality"`
	Judge     JudgeConfig     `json:"judge" yaml:"judge"`

	// PapersDir is the base directory for papers (contains metadata/, markdown/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// RecordsDir is the base directory for produced records and the index DB.
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// Workers is the number of papers processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`
}
