// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searchrank

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/code-finder/internal/aggregate"
	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/pkg/types"
)

type fakeSearcher struct {
	repos []types.RepoMeta
	err   error
	query string
}

func (f *fakeSearcher) SearchRepositories(_ context.Context, query string, _ int) ([]types.RepoMeta, error) {
	f.query = query
	return f.repos, f.err
}

type fakeJudge struct {
	judge.Judge

	filterVerdict judge.FilterCandidatesVerdict
	filterErr     error
	filterCalls   int

	rankVerdict judge.RankRelevanceVerdict
	rankErr     error
	rankCalls   int
}

func (f *fakeJudge) FilterCandidates(_ context.Context, _ judge.FilterCandidatesInput) (judge.FilterCandidatesVerdict, error) {
	f.filterCalls++
	return f.filterVerdict, f.filterErr
}

func (f *fakeJudge) RankRelevance(_ context.Context, _ judge.RankRelevanceInput) (judge.RankRelevanceVerdict, error) {
	f.rankCalls++
	return f.rankVerdict, f.rankErr
}

func repo(fullName string, stars int, pushed time.Time) types.RepoMeta {
	return types.RepoMeta{
		URL:      "https://github.com/" + fullName,
		Name:     fullName[strings.IndexByte(fullName, '/')+1:],
		FullName: fullName,
		Stars:    stars,
		LastPush: pushed,
	}
}

func keep(fullName string, relevance float64) judge.RepoVerdict {
	return judge.RepoVerdict{
		FullName:         fullName,
		URL:              "https://github.com/" + fullName,
		IsImplementation: true,
		Relevance:        relevance,
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(types.Paper{Title: "  Deep Residual Learning  "})
	want := `"Deep Residual Learning" in:name,description,readme`
	if q != want {
		t.Fatalf("BuildQuery = %q, want %q", q, want)
	}
}

func TestSearchAndRankOrdersByStarsThenPush(t *testing.T) {
	now := time.Now()
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/resnet", 12, now.Add(-48*time.Hour)),
		repo("bob/resnet-fork", 900, now.Add(-365*24*time.Hour)),
		repo("carol/resnet-impl", 12, now.Add(-time.Hour)),
	}}
	j := &fakeJudge{filterVerdict: judge.FilterCandidatesVerdict{Repos: []judge.RepoVerdict{
		keep("alice/resnet", 0.9),
		keep("bob/resnet-fork", 0.6),
		keep("carol/resnet-impl", 0.8),
	}}}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "ResNet"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	got := fullNames(ranked)
	want := []string{"bob/resnet-fork", "carol/resnet-impl", "alice/resnet"}
	if !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestSearchAndRankDropsIrrelevantAndLowRelevance(t *testing.T) {
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/impl", 5, time.Now()),
		repo("bob/awesome-list", 5000, time.Now()),
		repo("carol/maybe", 3, time.Now()),
	}}
	j := &fakeJudge{filterVerdict: judge.FilterCandidatesVerdict{Repos: []judge.RepoVerdict{
		keep("alice/impl", 0.9),
		{FullName: "bob/awesome-list", URL: "https://github.com/bob/awesome-list", IsImplementation: false, Relevance: 0.9},
		keep("carol/maybe", 0.2),
	}}}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	got := fullNames(ranked)
	if !equalStrings(got, []string{"alice/impl"}) {
		t.Fatalf("kept = %v, want only alice/impl", got)
	}
}

func TestSearchAndRankDedupesCanonicalURLs(t *testing.T) {
	dup := repo("alice/impl", 5, time.Now())
	dup.URL = "https://www.github.com/alice/impl.git"
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/impl", 5, time.Now()),
		dup,
	}}
	j := &fakeJudge{filterVerdict: judge.FilterCandidatesVerdict{Repos: []judge.RepoVerdict{
		keep("alice/impl", 0.9),
	}}}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d results, want 1 after dedupe", len(ranked))
	}
	if ranked[0].Meta.URL != "https://github.com/alice/impl" {
		t.Fatalf("URL = %q, want canonical form", ranked[0].Meta.URL)
	}
}

func TestSearchAndRankEmptyResultIsNotAnError(t *testing.T) {
	s := &fakeSearcher{}
	j := &fakeJudge{}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	if ranked != nil {
		t.Fatalf("got %v, want nil", ranked)
	}
	if j.filterCalls != 0 {
		t.Fatalf("judge called %d times on empty search results", j.filterCalls)
	}
}

func TestSearchAndRankSearchErrorPropagates(t *testing.T) {
	s := &fakeSearcher{err: errors.New("rate limited")}
	if _, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, &fakeJudge{}, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard); err == nil {
		t.Fatal("want error when search fails")
	}
}

func TestSearchAndRankJudgeErrorPropagates(t *testing.T) {
	s := &fakeSearcher{repos: []types.RepoMeta{repo("alice/impl", 5, time.Now())}}
	j := &fakeJudge{filterErr: errors.New("judge down")}
	if _, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard); err == nil {
		t.Fatal("want error when filter judgment fails")
	}
}

func TestSearchAndRankRuleOnlyKeepsSearchOrder(t *testing.T) {
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/impl", 0, time.Time{}),
		repo("bob/impl", 0, time.Time{}),
	}}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, nil, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	got := fullNames(ranked)
	if !equalStrings(got, []string{"alice/impl", "bob/impl"}) {
		t.Fatalf("order = %v, want search order", got)
	}
}

func TestSearchAndRankStarlessFallsBackToJudgeRanking(t *testing.T) {
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/impl", 0, time.Time{}),
		repo("bob/impl", 0, time.Time{}),
	}}
	j := &fakeJudge{
		filterVerdict: judge.FilterCandidatesVerdict{Repos: []judge.RepoVerdict{
			keep("alice/impl", 0.7),
			keep("bob/impl", 0.8),
		}},
		rankVerdict: judge.RankRelevanceVerdict{Ranked: []string{
			"https://github.com/bob/impl",
			"https://github.com/alice/impl",
		}},
	}

	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, io.Discard)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	if j.rankCalls != 1 {
		t.Fatalf("rank called %d times, want 1", j.rankCalls)
	}
	got := fullNames(ranked)
	if !equalStrings(got, []string{"bob/impl", "alice/impl"}) {
		t.Fatalf("order = %v, want judge order", got)
	}
}

func TestSearchAndRankJudgeRankFailureDegradesToSearchOrder(t *testing.T) {
	s := &fakeSearcher{repos: []types.RepoMeta{
		repo("alice/impl", 0, time.Time{}),
		repo("bob/impl", 0, time.Time{}),
	}}
	j := &fakeJudge{
		filterVerdict: judge.FilterCandidatesVerdict{Repos: []judge.RepoVerdict{
			keep("alice/impl", 0.7),
			keep("bob/impl", 0.8),
		}},
		rankErr: errors.New("judge down"),
	}

	var warnings strings.Builder
	ranked, err := SearchAndRank(context.Background(), types.Paper{Title: "p"}, s, j, types.SearchConfig{}, aggregate.DefaultAllowedHosts, &warnings)
	if err != nil {
		t.Fatalf("SearchAndRank: %v", err)
	}
	got := fullNames(ranked)
	if !equalStrings(got, []string{"alice/impl", "bob/impl"}) {
		t.Fatalf("order = %v, want search order after ranking failure", got)
	}
	if !strings.Contains(warnings.String(), "rank_relevance") {
		t.Fatalf("expected ranking warning, got %q", warnings.String())
	}
}

func fullNames(ranked []Ranked) []string {
	var out []string
	for _, r := range ranked {
		out = append(out, r.Meta.FullName)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
