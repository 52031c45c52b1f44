// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searchrank finds candidate implementations via the code-search
// collaborator when a paper's document yielded none, filters them with a
// semantic judgment, and ranks the survivors.
// See docs/ARCHITECTURE § Search Ranking.
package searchrank

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/code-finder/internal/aggregate"
	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/pkg/types"
)

// Searcher is the code-search collaborator seam.
type Searcher interface {
	SearchRepositories(ctx context.Context, query string, max int) ([]types.RepoMeta, error)
}

// Ranked is one surviving search result with its judged relevance.
type Ranked struct {
	Meta      types.RepoMeta
	Relevance float64
	Reason    string
}

// defaultMinRelevance discards judge-kept repositories the judge itself was
// lukewarm about.
const defaultMinRelevance = 0.3

// SearchAndRank queries the search collaborator for implementations of the
// paper, deduplicates by canonical URL, filters to repositories the judge
// says plausibly implement the paper, and orders the survivors by stars
// descending with most-recent-push as the tie break.
//
// An empty result is a legitimate outcome, not an error: it maps to
// repo_type none_found upstream. Only the search collaborator failing is an
// error. With a nil judge (rule-only mode) the filter is skipped.
func SearchAndRank(ctx context.Context, paper types.Paper, searcher Searcher, j judge.Judge, cfg types.SearchConfig, hosts []string, w io.Writer) ([]Ranked, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	query := BuildQuery(paper)
	found, err := searcher.SearchRepositories(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", paper.Title, err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	candidates := dedupeByCanonicalURL(found, hosts)

	var kept []Ranked
	if j != nil {
		kept, err = filterWithJudge(ctx, paper, candidates, j, cfg, w)
		if err != nil {
			return nil, err
		}
	} else {
		kept = asRanked(candidates)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	// Stars are the activity proxy for ordering. When the backend supplied
	// no star signal at all there is nothing to rank on, so ask the judge
	// to order the set instead.
	if j != nil && allStarless(kept) {
		rankByJudge(ctx, paper, kept, j, w)
	} else {
		sort.SliceStable(kept, func(a, b int) bool {
			if kept[a].Meta.Stars != kept[b].Meta.Stars {
				return kept[a].Meta.Stars > kept[b].Meta.Stars
			}
			return kept[a].Meta.LastPush.After(kept[b].Meta.LastPush)
		})
	}

	return kept, nil
}

// BuildQuery constructs the search query from the paper's title, scoped to
// name, description, and README matches.
func BuildQuery(paper types.Paper) string {
	title := strings.TrimSpace(paper.Title)
	return fmt.Sprintf("%q in:name,description,readme", title)
}

// dedupeByCanonicalURL merges search results whose URLs normalize to the
// same repository, keeping the first occurrence's metadata.
func dedupeByCanonicalURL(repos []types.RepoMeta, hosts []string) []types.RepoMeta {
	if len(hosts) == 0 {
		hosts = aggregate.DefaultAllowedHosts
	}
	seen := make(map[string]bool)
	var out []types.RepoMeta
	for _, r := range repos {
		canonical, _, ok := aggregate.Canonical(r.URL, hosts)
		if !ok {
			// Search should only return allow-listed hosts; anything else
			// is dropped the same way the aggregator drops it.
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		r.URL = canonical
		out = append(out, r)
	}
	return out
}

// filterWithJudge keeps only repositories the judge says implement the
// paper, above the relevance cutoff. Repositories outside the subset are
// discarded, not deprioritized.
func filterWithJudge(ctx context.Context, paper types.Paper, candidates []types.RepoMeta, j judge.Judge, cfg types.SearchConfig, w io.Writer) ([]Ranked, error) {
	in := judge.FilterCandidatesInput{
		Paper: judge.PaperInfo{Title: paper.Title, Venue: paper.Venue, Year: paper.Year, Abstract: paper.Abstract},
	}
	for _, r := range candidates {
		in.Repos = append(in.Repos, judge.RepoSummary{
			FullName:    r.FullName,
			URL:         r.URL,
			Description: r.Description,
			Stars:       r.Stars,
			Language:    r.Language,
		})
	}

	verdict, err := j.FilterCandidates(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("filter_candidates judgment: %w", err)
	}

	minRelevance := cfg.MinRelevance
	if minRelevance <= 0 {
		minRelevance = defaultMinRelevance
	}

	byName := make(map[string]types.RepoMeta, len(candidates))
	for _, r := range candidates {
		byName[r.FullName] = r
	}

	var kept []Ranked
	for _, rv := range verdict.Repos {
		if !rv.IsImplementation || rv.Relevance < minRelevance {
			continue
		}
		meta, ok := byName[rv.FullName]
		if !ok {
			fmt.Fprintf(w, "warning: judge kept unknown repository %q, ignoring\n", rv.FullName)
			continue
		}
		kept = append(kept, Ranked{Meta: meta, Relevance: rv.Relevance, Reason: rv.Reason})
	}
	return kept, nil
}

// rankByJudge orders kept in place per a rank_relevance judgment. A judge
// failure leaves the existing (search) order, which is still usable.
func rankByJudge(ctx context.Context, paper types.Paper, kept []Ranked, j judge.Judge, w io.Writer) {
	in := judge.RankRelevanceInput{
		Paper: judge.PaperInfo{Title: paper.Title, Venue: paper.Venue, Year: paper.Year, Abstract: paper.Abstract},
	}
	for _, k := range kept {
		in.URLs = append(in.URLs, k.Meta.URL)
	}

	verdict, err := j.RankRelevance(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "warning: rank_relevance judgment failed, keeping search order: %v\n", err)
		return
	}

	pos := make(map[string]int, len(verdict.Ranked))
	for i, u := range verdict.Ranked {
		pos[u] = i
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return pos[kept[a].Meta.URL] < pos[kept[b].Meta.URL]
	})
}

func asRanked(repos []types.RepoMeta) []Ranked {
	out := make([]Ranked, 0, len(repos))
	for _, r := range repos {
		out = append(out, Ranked{Meta: r})
	}
	return out
}

func allStarless(kept []Ranked) bool {
	for _, k := range kept {
		if k.Meta.Stars > 0 {
			return false
		}
	}
	return true
}
