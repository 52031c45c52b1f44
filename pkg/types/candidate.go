// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the code-finder pipeline.
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// Host identifies the code-hosting platform of a candidate URL.
type Host string

const (
	HostGitHub    Host = "github"
	HostGitLab    Host = "gitlab"
	HostBitbucket Host = "bitbucket"
	HostOther     Host = "other"
)

// CandidateSource identifies where a candidate repository URL was discovered.
type CandidateSource string

const (
	// SourceDocument marks candidates extracted from the paper itself.
	SourceDocument CandidateSource = "document"

	// SourceSearch marks candidates returned by the code-search collaborator.
	SourceSearch CandidateSource = "search"
)

// DocumentLink is a raw URL found in a paper's text, before any filtering.
type DocumentLink struct {
	// URL is the link exactly as it appeared in the text.
	URL string `json:"url" yaml:"url"`

	// Context is the surrounding text window, used by the officiality heuristics.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	// Position is the link's offset in the document as a fraction in [0,1].
	// Links near the abstract or footer carry authority weight.
	Position float64 `json:"position" yaml:"position"`
}

// Candidate is a normalized, deduplicated code-repository URL discovered for
// a paper. Two candidates with the same canonical URL are the same entity;
// the aggregator merges them, unioning contexts and sources.
type Candidate struct {
	// URL is the canonical repository-root form (https scheme, no www,
	// owner/repo path only, no query, fragment, or .git suffix).
	URL string `json:"url" yaml:"url"`

	// Host is the hosting platform derived from the URL.
	Host Host `json:"host" yaml:"host"`

	// Sources lists where the candidate was found, in discovery order.
	Sources []CandidateSource `json:"sources" yaml:"sources"`

	// Contexts holds every distinct text snippet that surrounded the URL.
	Contexts []string `json:"contexts,omitempty" yaml:"contexts,omitempty"`

	// Position is the earliest document position at which the URL appeared.
	// Zero for candidates that only came from search.
	Position float64 `json:"position" yaml:"position"`
}

// FromSource reports whether the candidate was discovered via src.
func (c Candidate) FromSource(src CandidateSource) bool {
	for _, s := range c.Sources {
		if s == src {
			return true
		}
	}
	return false
}
