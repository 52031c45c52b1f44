// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package official decides which of a paper's candidate repositories is the
// authors' own implementation and which are third-party.
// See docs/ARCHITECTURE § Officiality Selection.
package official

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/pkg/types"
)

// officialMarkers are context phrases that indicate the paper's authors are
// pointing at their own repository.
var officialMarkers = []string{
	"our code",
	"our implementation",
	"official implementation",
	"official code",
	"we release",
	"we provide",
	"we publish",
	"code is available",
	"code and models are available",
	"source code",
	"project page",
}

// defaultAuthoritativePosition is the document-position fraction below which
// a link counts as authoritative (title/abstract area) when the config does
// not set one.
const defaultAuthoritativePosition = 0.12

// Selection is the selector's output. Official, when present, never appears
// in Unofficial; Unofficial preserves document order.
type Selection struct {
	Official   string
	Unofficial []string
}

// Select classifies candidates from a single paper as official or unofficial.
//
// Stage A marks a candidate provisionally official when its context carries
// an authorship marker or the link sits in an authoritative document
// position. Stage B invokes the judge once to disambiguate when Stage A
// found more than one official, or none among several candidates. A judge
// failure degrades to "none official": discovery still completes.
func Select(ctx context.Context, paper types.Paper, candidates []types.Candidate, j judge.Judge, cfg types.DiscoveryConfig, w io.Writer) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}

	// A lone document candidate is taken as the official repository: papers
	// overwhelmingly link their own code, and there is nothing to
	// disambiguate against.
	if len(candidates) == 1 {
		return Selection{Official: candidates[0].URL}
	}

	authoritative := cfg.AuthoritativePosition
	if authoritative <= 0 {
		authoritative = defaultAuthoritativePosition
	}

	var provisional []types.Candidate
	for _, c := range candidates {
		if isProvisionalOfficial(c, authoritative) {
			provisional = append(provisional, c)
		}
	}

	switch {
	case len(provisional) == 1:
		// Single deterministic pick; Stage B skipped.
		return partition(candidates, provisional[0].URL)

	case len(provisional) > 1:
		// Ambiguous: several candidates claim authorship.
		if url := askJudge(ctx, paper, candidates, j, w); url != "" {
			return partition(candidates, url)
		}
		// Degraded or declined: none official. Guessing among rival
		// authorship claims would fabricate officiality.
		return partition(candidates, "")

	default:
		// No marker anywhere but multiple candidates exist.
		if url := askJudge(ctx, paper, candidates, j, w); url != "" {
			return partition(candidates, url)
		}
		return partition(candidates, "")
	}
}

// isProvisionalOfficial applies the Stage A heuristics to one candidate.
func isProvisionalOfficial(c types.Candidate, authoritative float64) bool {
	for _, snippet := range c.Contexts {
		lower := strings.ToLower(snippet)
		for _, marker := range officialMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	// Links placed near the abstract or first-page footer are conventionally
	// the authors' own, with or without surrounding prose.
	return c.Position > 0 && c.Position < authoritative
}

// askJudge makes the single Stage B disambiguation call. It returns the
// selected canonical URL, or "" when the judge declined, erred, or named a
// URL outside the candidate set (fail-closed: never fabricate a selection).
func askJudge(ctx context.Context, paper types.Paper, candidates []types.Candidate, j judge.Judge, w io.Writer) string {
	if j == nil {
		return ""
	}

	in := judge.SelectOfficialInput{
		Paper: judge.PaperInfo{
			Title:    paper.Title,
			Venue:    paper.Venue,
			Year:     paper.Year,
			Abstract: paper.Abstract,
		},
	}
	for _, c := range candidates {
		in.Candidates = append(in.Candidates, judge.CandidateInfo{
			URL:     c.URL,
			Context: strings.Join(c.Contexts, " ... "),
		})
	}

	verdict, err := j.SelectOfficial(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "warning: select_official judgment failed, treating all candidates as unofficial: %v\n", err)
		return ""
	}
	if verdict.SelectedURL == "" {
		return ""
	}

	answer := strings.TrimRight(strings.TrimSpace(verdict.SelectedURL), "/")
	for _, c := range candidates {
		if strings.EqualFold(answer, c.URL) {
			return c.URL
		}
	}
	fmt.Fprintf(w, "warning: judge selected %q which is not in the candidate set, ignoring\n", verdict.SelectedURL)
	return ""
}

// partition splits candidates around the official URL, preserving document
// order for the unofficial remainder.
func partition(candidates []types.Candidate, official string) Selection {
	sel := Selection{Official: official}
	for _, c := range candidates {
		if c.URL == official {
			continue
		}
		sel.Unofficial = append(sel.Unofficial, c.URL)
	}
	return sel
}
