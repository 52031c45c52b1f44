// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the per-paper discovery state machine: extract
// links from the paper's document, fall back to code search when the
// document yields nothing, classify candidates as official or unofficial,
// validate the selected repository, and persist a record. Papers are
// isolated: one paper's failure never aborts the batch.
// See docs/ARCHITECTURE § Pipeline Orchestration.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/code-finder/internal/aggregate"
	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/internal/official"
	"github.com/pdiddy/code-finder/internal/quality"
	"github.com/pdiddy/code-finder/internal/searchrank"
	"github.com/pdiddy/code-finder/pkg/types"
)

// Catalog lists the papers in scope and loads their metadata.
type Catalog interface {
	List() ([]types.Paper, error)
	Load(paperID string) (*types.Paper, error)
}

// Extractor produces the raw links found in a paper's document.
type Extractor interface {
	ExtractLinks(paperID string) ([]types.DocumentLink, error)
}

// RecordStore persists and recalls per-paper records.
type RecordStore interface {
	Load(paperID string) (*types.RepoRecord, error)
	Save(ctx context.Context, paperID string, record *types.RepoRecord) error
}

// Options are the per-run switches.
type Options struct {
	// Single restricts the run to one paper ID. Empty processes all papers.
	Single string

	// Limit caps how many papers are processed; zero means no cap.
	Limit int

	// RuleOnly disables every semantic judgment: officiality falls back to
	// heuristics and validation stops after the rule filter.
	RuleOnly bool

	// SkipExtract bypasses document extraction, going straight to search.
	SkipExtract bool

	// SkipValidate bypasses the quality gate; discovery fields are still
	// populated.
	SkipValidate bool

	// Resume skips papers that already have a wellformed record.
	Resume bool

	// Workers is the number of papers processed concurrently (minimum 1).
	Workers int
}

// Orchestrator wires the pipeline's collaborators. All fields except Judge
// are required; a nil Judge is rule-only mode.
type Orchestrator struct {
	Catalog   Catalog
	Extractor Extractor
	Searcher  searchrank.Searcher
	Inspector quality.Inspector
	Judge     judge.Judge
	Records   RecordStore
	Config    types.PipelineConfig
}

// Run processes the papers in scope and reports progress to w. It returns
// the final snapshot and an error when one or more papers ended in error;
// per-paper failures are recorded and reported but never stop the batch.
func (o *Orchestrator) Run(ctx context.Context, opts Options, w io.Writer) (Snapshot, error) {
	papers, err := o.scope(opts)
	if err != nil {
		return Snapshot{}, err
	}
	if len(papers) == 0 {
		fmt.Fprintln(w, "no papers to process")
		return Snapshot{}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	j := o.Judge
	if opts.RuleOnly {
		j = nil
	}

	stats := newStats(len(papers))
	var mu sync.Mutex // guards w

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, paper := range papers {
		paper := paper
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()

			mu.Lock()
			fmt.Fprintf(w, "processing %s\n", paper.ID)
			mu.Unlock()

			out := o.processPaper(gctx, paper, j, opts, w, &mu)
			o.note(stats, paper, out, time.Since(start), w, &mu)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Snapshot(), err
	}

	snap := stats.Snapshot()
	fmt.Fprintf(w, "\nprocessed: %d, official: %d, unofficial: %d, none found: %d, skipped: %d, errors: %d\n",
		snap.Processed, snap.Official, snap.Unofficial, snap.NoneFound, snap.Skipped, snap.Errors)

	if snap.Errors > 0 {
		return snap, fmt.Errorf("%d of %d papers ended in error", snap.Errors, snap.Total)
	}
	return snap, nil
}

// outcome is the per-paper terminal state the orchestrator owns.
type outcome struct {
	state   types.ProcessingState
	record  *types.RepoRecord
	resumed bool
}

// scope resolves Options into a concrete list of papers.
func (o *Orchestrator) scope(opts Options) ([]types.Paper, error) {
	if opts.Single != "" {
		paper, err := o.Catalog.Load(opts.Single)
		if err != nil {
			return nil, fmt.Errorf("loading paper %s: %w", opts.Single, err)
		}
		return []types.Paper{*paper}, nil
	}
	papers, err := o.Catalog.List()
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	if opts.Limit > 0 && len(papers) > opts.Limit {
		papers = papers[:opts.Limit]
	}
	return papers, nil
}

// processPaper runs the state machine for one paper. Every return path has
// either saved a record or recorded an error; panics are not recovered
// because collaborators are plain functions over their inputs.
func (o *Orchestrator) processPaper(ctx context.Context, paper types.Paper, j judge.Judge, opts Options, w io.Writer, mu *sync.Mutex) outcome {
	state := types.ProcessingState{Status: types.StatusInProgress, Attempts: 1}

	// Resume: an existing wellformed record means this paper is done and no
	// collaborator is invoked at all.
	if opts.Resume {
		existing, err := o.Records.Load(paper.ID)
		if err != nil {
			return errOutcome(state, fmt.Errorf("checking existing record: %w", err))
		}
		if existing != nil && existing.Wellformed() {
			state.Status = types.StatusDone
			return outcome{state: state, record: existing, resumed: true}
		}
	}

	// EXTRACT. A missing or unreadable document is not fatal; the search
	// stage covers papers without a converted document.
	var candidates []types.Candidate
	if !opts.SkipExtract {
		links, err := o.Extractor.ExtractLinks(paper.ID)
		if err != nil {
			mu.Lock()
			fmt.Fprintf(w, "warning: %s: %v, falling back to search\n", paper.ID, err)
			mu.Unlock()
		}
		candidates = aggregate.Aggregate(links, o.Config.Discovery)
	}

	record := &types.RepoRecord{ProcessedAt: time.Now().UTC()}

	if len(candidates) > 0 {
		// SELECT over document candidates.
		record.ExtractionSource = types.SourceDocument
		sel := official.Select(ctx, paper, candidates, j, o.Config.Discovery, lockedWriter(w, mu))
		record.OfficialRepoURL = sel.Official
		record.UnofficialRepoURLs = sel.Unofficial
		switch {
		case sel.Official != "":
			record.SelectedRepoURL = sel.Official
			record.RepoType = types.RepoOfficial
		case len(sel.Unofficial) > 0:
			record.SelectedRepoURL = sel.Unofficial[0]
			record.RepoType = types.RepoUnofficial
		default:
			record.RepoType = types.RepoNoneFound
		}
	} else {
		// SEARCH. Everything found here is by definition unofficial.
		record.ExtractionSource = types.SourceSearch
		ranked, err := searchrank.SearchAndRank(ctx, paper, o.Searcher, j, o.Config.Search, o.Config.Discovery.AllowedHosts, lockedWriter(w, mu))
		if err != nil {
			return errOutcome(state, err)
		}
		for _, r := range ranked {
			record.UnofficialRepoURLs = append(record.UnofficialRepoURLs, r.Meta.URL)
		}
		if len(ranked) > 0 {
			record.SelectedRepoURL = ranked[0].Meta.URL
			record.RepoType = types.RepoUnofficial
		} else {
			record.RepoType = types.RepoNoneFound
		}
	}

	// VALIDATE. Skipping leaves discovery fields intact with no quality
	// verdict, and none_found papers have nothing to validate.
	if !opts.SkipValidate && record.SelectedRepoURL != "" {
		qa, err := quality.Validate(ctx, record.SelectedRepoURL, paper, o.Inspector, j, o.Config.Quality)
		if err != nil {
			return errOutcome(state, err)
		}
		record.Quality = &qa
	}

	if err := o.Records.Save(ctx, paper.ID, record); err != nil {
		return errOutcome(state, err)
	}

	if opts.SkipValidate {
		state.Status = types.StatusSkipped
	} else {
		state.Status = types.StatusDone
	}
	return outcome{state: state, record: record}
}

// note updates the accumulator and prints the per-paper progress line.
func (o *Orchestrator) note(stats *Stats, paper types.Paper, out outcome, elapsed time.Duration, w io.Writer, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()

	switch {
	case out.state.Status == types.StatusError:
		stats.observeError(elapsed)
		fmt.Fprintf(w, "error   %s: %s\n", paper.ID, out.state.LastError)
	case out.resumed:
		stats.observeSkip()
		fmt.Fprintf(w, "skipped %s (already processed)\n", paper.ID)
	case out.state.Status == types.StatusSkipped:
		stats.observeDone(string(out.record.RepoType), elapsed)
		fmt.Fprintf(w, "done    %s (%s, validation skipped)\n", paper.ID, out.record.RepoType)
	default:
		stats.observeDone(string(out.record.RepoType), elapsed)
		fmt.Fprintf(w, "done    %s (%s)\n", paper.ID, out.record.RepoType)
	}

	snap := stats.Snapshot()
	if snap.Processed < snap.Total && snap.ETA > 0 {
		fmt.Fprintf(w, "progress %d/%d, eta %s\n", snap.Processed, snap.Total, snap.ETA.Round(time.Second))
	}
}

func errOutcome(state types.ProcessingState, err error) outcome {
	state.Status = types.StatusError
	state.LastError = err.Error()
	return outcome{state: state}
}

// lockedWriter serializes collaborator warnings with progress output.
func lockedWriter(w io.Writer, mu *sync.Mutex) io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return w.Write(p)
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
