// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/pkg/types"
)

type fakeCatalog struct {
	papers []types.Paper
}

func (f *fakeCatalog) List() ([]types.Paper, error) {
	return f.papers, nil
}

func (f *fakeCatalog) Load(paperID string) (*types.Paper, error) {
	for _, p := range f.papers {
		if p.ID == paperID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("paper %s not found", paperID)
}

type fakeExtractor struct {
	mu    sync.Mutex
	links map[string][]types.DocumentLink
	calls int
}

func (f *fakeExtractor) ExtractLinks(paperID string) ([]types.DocumentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if links, ok := f.links[paperID]; ok {
		return links, nil
	}
	return nil, nil
}

type fakeSearcher struct {
	mu    sync.Mutex
	repos []types.RepoMeta
	calls int
}

func (f *fakeSearcher) SearchRepositories(_ context.Context, _ string, _ int) ([]types.RepoMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.repos, nil
}

type fakeInspector struct {
	mu    sync.Mutex
	metas map[string]types.RepoMeta
	calls int
}

func (f *fakeInspector) Repo(_ context.Context, owner, repo string) (types.RepoMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if meta, ok := f.metas[owner+"/"+repo]; ok {
		return meta, nil
	}
	return types.RepoMeta{}, fmt.Errorf("unknown repository %s/%s", owner, repo)
}

func (f *fakeInspector) Readme(_ context.Context, _, _ string) (string, error) {
	return "# readme", nil
}

func (f *fakeInspector) Contents(_ context.Context, _, _ string) ([]types.RepoEntry, error) {
	return []types.RepoEntry{{Name: "train.py"}, {Name: "model.py"}, {Name: "src", IsDir: true}}, nil
}

type fakeJudge struct {
	judge.Judge

	mu          sync.Mutex
	assessCalls int
	assessErr   error
	filterCalls int
	selectCalls int
	assessScore float64
}

func (f *fakeJudge) AssessQuality(_ context.Context, _ judge.AssessQualityInput) (judge.AssessQualityVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessCalls++
	if f.assessErr != nil {
		return judge.AssessQualityVerdict{}, f.assessErr
	}
	score := f.assessScore
	return judge.AssessQualityVerdict{Score: &score}, nil
}

func (f *fakeJudge) FilterCandidates(_ context.Context, in judge.FilterCandidatesInput) (judge.FilterCandidatesVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterCalls++
	var verdict judge.FilterCandidatesVerdict
	for _, r := range in.Repos {
		verdict.Repos = append(verdict.Repos, judge.RepoVerdict{
			FullName:         r.FullName,
			URL:              r.URL,
			IsImplementation: true,
			Relevance:        0.9,
		})
	}
	return verdict, nil
}

func (f *fakeJudge) SelectOfficial(_ context.Context, in judge.SelectOfficialInput) (judge.SelectOfficialVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectCalls++
	return judge.SelectOfficialVerdict{SelectedURL: in.Candidates[0].URL}, nil
}

type memStore struct {
	mu      sync.Mutex
	records map[string]*types.RepoRecord
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*types.RepoRecord)}
}

func (m *memStore) Load(paperID string) (*types.RepoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[paperID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (m *memStore) Save(_ context.Context, paperID string, record *types.RepoRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[paperID] = &clone
	m.saves++
	return nil
}

func healthyMeta(fullName string) types.RepoMeta {
	return types.RepoMeta{
		URL:      "https://github.com/" + fullName,
		FullName: fullName,
		Stars:    50,
		SizeKB:   200,
		LastPush: time.Now().Add(-30 * 24 * time.Hour),
	}
}

func newOrchestrator(papers []types.Paper) (*Orchestrator, *fakeExtractor, *fakeSearcher, *fakeInspector, *fakeJudge, *memStore) {
	extractor := &fakeExtractor{links: make(map[string][]types.DocumentLink)}
	searcher := &fakeSearcher{}
	inspector := &fakeInspector{metas: make(map[string]types.RepoMeta)}
	j := &fakeJudge{assessScore: 0.8}
	records := newMemStore()
	o := &Orchestrator{
		Catalog:   &fakeCatalog{papers: papers},
		Extractor: extractor,
		Searcher:  searcher,
		Inspector: inspector,
		Judge:     j,
		Records:   records,
	}
	return o, extractor, searcher, inspector, j, records
}

func TestRunSingleCandidateBecomesOfficialWithoutSearch(t *testing.T) {
	o, extractor, searcher, inspector, _, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	extractor.links["p1"] = []types.DocumentLink{
		{URL: "https://github.com/alice/impl", Context: "we release our code at", Position: 0.05},
	}
	inspector.metas["alice/impl"] = healthyMeta("alice/impl")

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{Resume: true}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if searcher.calls != 0 {
		t.Errorf("search called %d times for a paper with a document candidate", searcher.calls)
	}

	rec := records.records["p1"]
	if rec == nil {
		t.Fatal("no record saved")
	}
	if rec.RepoType != types.RepoOfficial || rec.SelectedRepoURL != "https://github.com/alice/impl" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ExtractionSource != types.SourceDocument {
		t.Errorf("ExtractionSource = %q", rec.ExtractionSource)
	}
	if rec.Quality == nil || rec.Quality.Score != 0.8 {
		t.Errorf("quality = %+v", rec.Quality)
	}
	if snap.Official != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRunFallsBackToSearchAndMarksUnofficial(t *testing.T) {
	o, _, searcher, inspector, _, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	low := healthyMeta("alice/small")
	low.Stars = 3
	high := healthyMeta("bob/big")
	high.Stars = 400
	searcher.repos = []types.RepoMeta{low, high}
	inspector.metas["bob/big"] = high

	var out strings.Builder
	if _, err := o.Run(context.Background(), Options{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec := records.records["p1"]
	if rec.RepoType != types.RepoUnofficial {
		t.Errorf("RepoType = %q", rec.RepoType)
	}
	if rec.SelectedRepoURL != "https://github.com/bob/big" {
		t.Errorf("SelectedRepoURL = %q, want top-ranked search result", rec.SelectedRepoURL)
	}
	if rec.OfficialRepoURL != "" {
		t.Errorf("OfficialRepoURL = %q, want empty for search results", rec.OfficialRepoURL)
	}
	if rec.ExtractionSource != types.SourceSearch {
		t.Errorf("ExtractionSource = %q", rec.ExtractionSource)
	}
	if !rec.Wellformed() {
		t.Error("record not wellformed")
	}
}

func TestRunNoneFoundRecordHasNoSelectionOrQuality(t *testing.T) {
	o, _, _, _, j, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := records.records["p1"]
	if rec.RepoType != types.RepoNoneFound {
		t.Errorf("RepoType = %q", rec.RepoType)
	}
	if rec.SelectedRepoURL != "" || rec.Quality != nil {
		t.Errorf("none_found record carries selection or quality: %+v", rec)
	}
	if !rec.Wellformed() {
		t.Error("record not wellformed")
	}
	if j.assessCalls != 0 {
		t.Errorf("quality judged %d times with nothing selected", j.assessCalls)
	}
	if snap.NoneFound != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRunResumeSkipsWithoutCollaboratorCalls(t *testing.T) {
	o, extractor, searcher, _, j, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	records.records["p1"] = &types.RepoRecord{
		OfficialRepoURL: "https://github.com/alice/impl",
		SelectedRepoURL: "https://github.com/alice/impl",
		RepoType:        types.RepoOfficial,
		ProcessedAt:     time.Now().Add(-time.Hour),
	}

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{Resume: true}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if extractor.calls != 0 || searcher.calls != 0 || j.selectCalls != 0 || j.assessCalls != 0 {
		t.Errorf("collaborators invoked on resume: extract=%d search=%d select=%d assess=%d",
			extractor.calls, searcher.calls, j.selectCalls, j.assessCalls)
	}
	if records.saves != 0 {
		t.Errorf("record rewritten %d times on resume", records.saves)
	}
	if snap.Skipped != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if !strings.Contains(out.String(), "skipped p1") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunMalformedRecordIsReprocessed(t *testing.T) {
	o, extractor, _, _, _, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	// selected URL missing for an official record: not wellformed.
	records.records["p1"] = &types.RepoRecord{
		RepoType:    types.RepoOfficial,
		ProcessedAt: time.Now(),
	}

	var out strings.Builder
	if _, err := o.Run(context.Background(), Options{Resume: true}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if extractor.calls != 1 {
		t.Errorf("extract calls = %d, want reprocessing", extractor.calls)
	}
}

func TestRunErrorIsolation(t *testing.T) {
	papers := []types.Paper{{ID: "p1", Title: "A"}, {ID: "p2", Title: "B"}}
	o, extractor, _, inspector, j, records := newOrchestrator(papers)
	extractor.links["p1"] = []types.DocumentLink{{URL: "https://github.com/alice/impl", Context: "our code", Position: 0.05}}
	extractor.links["p2"] = []types.DocumentLink{{URL: "https://github.com/bob/impl", Context: "our code", Position: 0.05}}
	inspector.metas["alice/impl"] = healthyMeta("alice/impl")
	inspector.metas["bob/impl"] = healthyMeta("bob/impl")
	j.assessErr = errors.New("judge down")

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{}, &out)
	if err == nil {
		t.Fatal("want non-nil error when papers fail")
	}
	if snap.Errors != 2 || snap.Processed != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	// Both papers were attempted; the first failure did not abort the batch.
	if len(records.records) != 0 {
		t.Errorf("failed papers wrote records: %v", records.records)
	}
}

func TestRunSkipValidateLeavesQualityEmpty(t *testing.T) {
	o, extractor, _, _, j, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	extractor.links["p1"] = []types.DocumentLink{{URL: "https://github.com/alice/impl", Context: "our code", Position: 0.05}}

	var out strings.Builder
	if _, err := o.Run(context.Background(), Options{SkipValidate: true}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := records.records["p1"]
	if rec.Quality != nil {
		t.Errorf("quality = %+v, want nil with validation skipped", rec.Quality)
	}
	if rec.SelectedRepoURL == "" || rec.RepoType != types.RepoOfficial {
		t.Errorf("discovery fields missing: %+v", rec)
	}
	if j.assessCalls != 0 {
		t.Errorf("assess called %d times with validation skipped", j.assessCalls)
	}
}

func TestRunRuleOnlyNeverCallsJudge(t *testing.T) {
	o, extractor, _, inspector, j, records := newOrchestrator([]types.Paper{{ID: "p1", Title: "T"}})
	extractor.links["p1"] = []types.DocumentLink{
		{URL: "https://github.com/alice/impl", Context: "see also", Position: 0.5},
		{URL: "https://github.com/bob/impl", Context: "baseline from", Position: 0.6},
	}
	inspector.metas["alice/impl"] = healthyMeta("alice/impl")

	var out strings.Builder
	if _, err := o.Run(context.Background(), Options{RuleOnly: true}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.selectCalls != 0 || j.assessCalls != 0 || j.filterCalls != 0 {
		t.Errorf("judge invoked in rule-only mode: select=%d assess=%d filter=%d",
			j.selectCalls, j.assessCalls, j.filterCalls)
	}
	rec := records.records["p1"]
	if rec.RepoType != types.RepoUnofficial {
		t.Errorf("RepoType = %q, want unofficial with no official signal", rec.RepoType)
	}
}

func TestRunLimitCapsScope(t *testing.T) {
	papers := []types.Paper{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	o, _, _, _, _, records := newOrchestrator(papers)

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{Limit: 2}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Total != 2 || len(records.records) != 2 {
		t.Errorf("snapshot = %+v, records = %d", snap, len(records.records))
	}
}

func TestRunSingleScope(t *testing.T) {
	papers := []types.Paper{{ID: "p1"}, {ID: "p2"}}
	o, _, _, _, _, records := newOrchestrator(papers)

	var out strings.Builder
	if _, err := o.Run(context.Background(), Options{Single: "p2"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records.records) != 1 || records.records["p2"] == nil {
		t.Errorf("records = %v, want only p2", records.records)
	}
}

func TestRunConcurrentWorkers(t *testing.T) {
	var papers []types.Paper
	for i := 0; i < 8; i++ {
		papers = append(papers, types.Paper{ID: fmt.Sprintf("p%d", i), Title: "T"})
	}
	o, _, _, _, _, records := newOrchestrator(papers)

	var out strings.Builder
	snap, err := o.Run(context.Background(), Options{Workers: 4}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Processed != 8 || len(records.records) != 8 {
		t.Errorf("snapshot = %+v, records = %d", snap, len(records.records))
	}
}
