// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper holds the metadata the pipeline needs about one scholarly paper.
// Records live under papers/metadata/[id].yaml; the converted full text,
// when present, lives under papers/markdown/[id].md.
type Paper struct {
	// ID is a slug uniquely identifying the paper (e.g. "2301.07041" or a
	// conference-derived name).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Venue is the conference or journal (e.g. "CVPR").
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is the publication year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SourceURL is where the paper's document was obtained from.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}
