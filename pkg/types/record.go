// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RepoType classifies the outcome of repository discovery for one paper.
type RepoType string

const (
	// RepoOfficial means the selected repository is the authors' own implementation.
	RepoOfficial RepoType = "official"

	// RepoUnofficial means the selected repository is a third-party reimplementation.
	RepoUnofficial RepoType = "unofficial"

	// RepoNoneFound means no repository was discovered for the paper.
	RepoNoneFound RepoType = "none_found"
)

// QualityAssessment is the quality gate's verdict for a single repository.
//
// IsMeaningful is always a thresholded function of Score against the
// configured meaningful threshold, never an independent judgment. When the
// rule filter alone failed the repository, Score is the zero sentinel and
// Reasons names the rule that failed.
type QualityAssessment struct {
	// Score is the overall quality score in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// IsMeaningful reports whether Score met the configured threshold.
	IsMeaningful bool `json:"is_meaningful" yaml:"is_meaningful"`

	// Reason is a short human-readable summary of the verdict.
	Reason string `json:"reason" yaml:"reason"`

	// Reasons lists supporting and detracting observations in order.
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// RepoRecord is the pipeline's durable output for one paper. Its JSON field
// names are a wire contract consumed by downstream tooling; do not rename.
type RepoRecord struct {
	// OfficialRepoURL is the authors' repository, if one was identified.
	OfficialRepoURL string `json:"official_repo_url,omitempty" yaml:"official_repo_url,omitempty"`

	// UnofficialRepoURLs lists third-party reimplementations in rank order.
	UnofficialRepoURLs []string `json:"unofficial_repo_urls,omitempty" yaml:"unofficial_repo_urls,omitempty"`

	// SelectedRepoURL is the repository the pipeline chose for the paper.
	// Absent exactly when RepoType is none_found.
	SelectedRepoURL string `json:"selected_repo_url,omitempty" yaml:"selected_repo_url,omitempty"`

	// RepoType classifies the selection.
	RepoType RepoType `json:"repo_type" yaml:"repo_type"`

	// Quality is the gate's verdict for SelectedRepoURL. Nil when validation
	// was skipped or no repository was selected.
	Quality *QualityAssessment `json:"quality,omitempty" yaml:"quality,omitempty"`

	// ExtractionSource records which collaborator produced the candidates.
	ExtractionSource CandidateSource `json:"extraction_source,omitempty" yaml:"extraction_source,omitempty"`

	// ProcessedAt is when the record was produced (ISO-8601 in JSON).
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// Wellformed reports whether the record satisfies its structural invariants.
// Resume only honors wellformed records; anything else is reprocessed.
func (r RepoRecord) Wellformed() bool {
	if r.ProcessedAt.IsZero() {
		return false
	}
	switch r.RepoType {
	case RepoNoneFound:
		return r.SelectedRepoURL == "" && r.Quality == nil
	case RepoOfficial:
		return r.SelectedRepoURL != "" && r.SelectedRepoURL == r.OfficialRepoURL
	case RepoUnofficial:
		if r.SelectedRepoURL == "" {
			return false
		}
		for _, u := range r.UnofficialRepoURLs {
			if u == r.SelectedRepoURL {
				return true
			}
		}
		return false
	default:
		return false
	}
}
