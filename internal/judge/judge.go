// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge is the single seam for semantic judgments in the pipeline.
// Each prompt kind has a typed input and a typed verdict; verdicts are
// parsed strictly with defined fallbacks so that an untyped model payload
// never flows directly into invariant-bearing fields.
// See docs/ARCHITECTURE § Judgment Service.
package judge

import "context"

// Kind identifies one class of semantic judgment. Implementations may batch
// or cache calls of the same kind.
type Kind string

const (
	KindSelectOfficial   Kind = "select_official"
	KindFilterCandidates Kind = "filter_candidates"
	KindRankRelevance    Kind = "rank_relevance"
	KindAssessQuality    Kind = "assess_quality"
)

// PaperInfo is the paper context attached to every judgment request.
type PaperInfo struct {
	Title    string `json:"title"`
	Venue    string `json:"venue,omitempty"`
	Year     int    `json:"year,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}

// CandidateInfo is one discovered URL with its surrounding text, as shown to
// the judge when selecting an official repository.
type CandidateInfo struct {
	URL     string `json:"url"`
	Context string `json:"context,omitempty"`
}

// SelectOfficialInput asks the judge to pick at most one official repository
// from the supplied candidate set.
type SelectOfficialInput struct {
	Paper      PaperInfo
	Candidates []CandidateInfo
}

// SelectOfficialVerdict is the parsed answer to a select_official call.
// SelectedURL is empty when the judge declined to pick ("none"), and callers
// must additionally verify the URL is drawn from the supplied set.
type SelectOfficialVerdict struct {
	SelectedURL string
	Reason      string
}

// RepoSummary is the search-result metadata shown to the judge when
// filtering candidate implementations.
type RepoSummary struct {
	FullName    string `json:"full_name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars"`
	Language    string `json:"language,omitempty"`
}

// FilterCandidatesInput asks the judge which search results plausibly
// implement the paper.
type FilterCandidatesInput struct {
	Paper PaperInfo
	Repos []RepoSummary
}

// RepoVerdict is the judge's per-repository answer to a filter_candidates call.
type RepoVerdict struct {
	FullName         string
	URL              string
	IsImplementation bool
	Relevance        float64
	Reason           string
}

// FilterCandidatesVerdict holds the per-repository verdicts, in the judge's
// preference order.
type FilterCandidatesVerdict struct {
	Repos []RepoVerdict
}

// RankRelevanceInput asks the judge to order a set of repository URLs by
// relevance to the paper. Used when the search backend supplies no usable
// activity signal for ranking.
type RankRelevanceInput struct {
	Paper PaperInfo
	URLs  []string
}

// RankRelevanceVerdict lists the input URLs in descending relevance order.
// URLs the judge invented are discarded during parsing; URLs it omitted are
// appended in input order so the verdict is always a permutation of the input.
type RankRelevanceVerdict struct {
	Ranked []string
}

// RepoFacts is the evidence bundle for a quality assessment: host metadata,
// a root-structure summary, and a truncated README.
type RepoFacts struct {
	URL           string
	Stars         int
	Forks         int
	Language      string
	SizeKB        int
	LastPush      string
	Archived      bool
	CodeFileCount int
	TypicalLayout bool
	TreeSummary   string
	Readme        string
}

// AssessQualityInput asks the judge whether a repository is a substantive,
// maintained implementation of the paper.
type AssessQualityInput struct {
	Paper PaperInfo
	Repo  RepoFacts
}

// AssessQualityVerdict is the parsed answer to an assess_quality call.
// Score is nil when the judge's numeric score was missing or malformed; the
// caller substitutes its configured neutral value. Meaningful is the judge's
// raw boolean and is advisory only: the quality gate re-derives the final
// flag from the score and threshold.
type AssessQualityVerdict struct {
	Score      *float64
	Meaningful bool
	Reasons    []string
}

// Judge is the judgment-service collaborator. Every method is a blocking
// I/O boundary: implementations apply timeouts and bounded retries, and
// callers treat an error as "no judgment available" and degrade per stage.
type Judge interface {
	SelectOfficial(ctx context.Context, in SelectOfficialInput) (SelectOfficialVerdict, error)
	FilterCandidates(ctx context.Context, in FilterCandidatesInput) (FilterCandidatesVerdict, error)
	RankRelevance(ctx context.Context, in RankRelevanceInput) (RankRelevanceVerdict, error)
	AssessQuality(ctx context.Context, in AssessQualityInput) (AssessQualityVerdict, error)
}
