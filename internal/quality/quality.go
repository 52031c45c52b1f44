// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality decides whether a selected repository is a substantive,
// maintained implementation. Validation is two-stage: a deterministic rule
// filter over host metadata and the root file listing, then a semantic
// evaluation of the README and structure. A rule failure is terminal and
// never reaches the semantic stage.
// See docs/ARCHITECTURE § Quality Gate.
package quality

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pdiddy/code-finder/internal/aggregate"
	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/pkg/types"
)

// Inspector is the repository-inspection collaborator seam. A Readme or
// Contents miss is not fatal: validation proceeds with what it has.
type Inspector interface {
	Repo(ctx context.Context, owner, repo string) (types.RepoMeta, error)
	Readme(ctx context.Context, owner, repo string) (string, error)
	Contents(ctx context.Context, owner, repo string) ([]types.RepoEntry, error)
}

// codeExtensions are the file extensions counted as code in the rule filter.
var codeExtensions = map[string]bool{
	".py": true, ".cu": true, ".cpp": true, ".cc": true, ".c": true,
	".h": true, ".hpp": true, ".java": true, ".js": true, ".ts": true,
	".go": true, ".rs": true, ".m": true, ".mm": true, ".ipynb": true,
	".sh": true, ".yaml": true, ".yml": true,
}

// typicalFiles and typicalDirs mark the layout research implementations
// conventionally use. Their presence is evidence passed to the semantic
// stage, not a rule by itself.
var typicalFiles = map[string]bool{
	"train.py": true, "main.py": true, "model.py": true, "models.py": true,
	"network.py": true, "dataset.py": true, "inference.py": true,
	"test.py": true, "eval.py": true, "run.py": true,
}

var typicalDirs = map[string]bool{
	"models": true, "src": true, "lib": true, "scripts": true,
	"configs": true, "train": true, "test": true, "inference": true,
	"utils": true,
}

// structure summarizes a repository's root listing for the rule filter and
// the semantic prompt.
type structure struct {
	CodeFiles     []string
	Directories   []string
	CodeFileCount int
	TypicalLayout bool
}

// Validate evaluates one repository against the quality rules and, when the
// rules pass, the semantic judgment. A rule failure returns a zero-score
// assessment naming the failed rule. A judgment-service failure during the
// semantic stage is an error: the caller records it and must not fabricate
// a score. With a nil judge (rule-only mode) a rule pass is reported with
// the neutral score.
func Validate(ctx context.Context, repoURL string, paper types.Paper, inspector Inspector, j judge.Judge, cfg types.QualityConfig) (types.QualityAssessment, error) {
	cfg = withDefaults(cfg)

	owner, name, err := splitOwnerRepo(repoURL)
	if err != nil {
		return ruleFail(err.Error()), nil
	}

	meta, err := inspector.Repo(ctx, owner, name)
	if err != nil {
		return types.QualityAssessment{}, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	entries, err := inspector.Contents(ctx, owner, name)
	if err != nil {
		return types.QualityAssessment{}, fmt.Errorf("listing %s/%s contents: %w", owner, name, err)
	}
	st := analyze(entries)

	if reason, failed := ruleFilter(meta, st, cfg); failed {
		return ruleFail(reason), nil
	}

	if j == nil {
		return types.QualityAssessment{
			Score:        cfg.NeutralScore,
			IsMeaningful: cfg.NeutralScore >= cfg.MeaningfulThreshold,
			Reason:       "passed rule filter, semantic evaluation disabled",
		}, nil
	}

	readme, err := inspector.Readme(ctx, owner, name)
	if err != nil {
		readme = ""
	}

	return semanticEval(ctx, meta, st, readme, paper, j, cfg)
}

// ruleFilter applies the deterministic checks in order, returning the first
// failure. The abandoned check is conjunctive: an old repository survives if
// it is popular, an unpopular one survives if it is recent.
func ruleFilter(meta types.RepoMeta, st structure, cfg types.QualityConfig) (string, bool) {
	if meta.Archived {
		return "repository is archived", true
	}
	if meta.Disabled {
		return "repository is disabled", true
	}
	if st.CodeFileCount < cfg.MinCodeFiles {
		return fmt.Sprintf("only %d code files in repository root (minimum %d)", st.CodeFileCount, cfg.MinCodeFiles), true
	}
	if meta.SizeKB < cfg.MinRepoSizeKB {
		return fmt.Sprintf("repository too small (%dKB, minimum %dKB)", meta.SizeKB, cfg.MinRepoSizeKB), true
	}
	if !meta.LastPush.IsZero() && time.Since(meta.LastPush) > cfg.AbandonedAfter && meta.Stars < cfg.MinStarsForOldRepo {
		return fmt.Sprintf("abandoned repository (last push %s, %d stars)", meta.LastPush.Format("2006-01-02"), meta.Stars), true
	}
	return "", false
}

// semanticEval asks the judge for a quality verdict and normalizes it.
// The score is the source of truth: a missing or malformed score becomes
// the neutral value, and the meaningful flag is always re-derived from the
// score against the threshold, never taken from the judge's boolean.
func semanticEval(ctx context.Context, meta types.RepoMeta, st structure, readme string, paper types.Paper, j judge.Judge, cfg types.QualityConfig) (types.QualityAssessment, error) {
	in := judge.AssessQualityInput{
		Paper: judge.PaperInfo{Title: paper.Title, Venue: paper.Venue, Year: paper.Year, Abstract: paper.Abstract},
		Repo: judge.RepoFacts{
			URL:           meta.URL,
			Stars:         meta.Stars,
			Forks:         meta.Forks,
			Language:      meta.Language,
			SizeKB:        meta.SizeKB,
			LastPush:      lastPush(meta),
			Archived:      meta.Archived,
			CodeFileCount: st.CodeFileCount,
			TypicalLayout: st.TypicalLayout,
			TreeSummary:   treeSummary(st),
			Readme:        truncate(readme, cfg.MaxReadmeChars),
		},
	}

	verdict, err := j.AssessQuality(ctx, in)
	if err != nil {
		return types.QualityAssessment{}, fmt.Errorf("assess_quality judgment for %s: %w", meta.URL, err)
	}

	score := cfg.NeutralScore
	if verdict.Score != nil {
		score = *verdict.Score
	}

	out := types.QualityAssessment{
		Score:        score,
		IsMeaningful: score >= cfg.MeaningfulThreshold,
		Reasons:      verdict.Reasons,
	}
	if len(verdict.Reasons) > 0 {
		out.Reason = verdict.Reasons[0]
	} else {
		out.Reason = "semantic evaluation completed"
	}
	return out, nil
}

func ruleFail(reason string) types.QualityAssessment {
	return types.QualityAssessment{
		Score:        0,
		IsMeaningful: false,
		Reason:       reason,
		Reasons:      []string{reason},
	}
}

func analyze(entries []types.RepoEntry) structure {
	var st structure
	hasTypical := false
	for _, e := range entries {
		if e.IsDir {
			st.Directories = append(st.Directories, e.Name)
			if typicalDirs[e.Name] {
				hasTypical = true
			}
			continue
		}
		if codeExtensions[strings.ToLower(path.Ext(e.Name))] {
			st.CodeFiles = append(st.CodeFiles, e.Name)
			if typicalFiles[e.Name] {
				hasTypical = true
			}
		}
	}
	st.CodeFileCount = len(st.CodeFiles)
	st.TypicalLayout = hasTypical
	return st
}

func treeSummary(st structure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code files (%d): %s\n", st.CodeFileCount, strings.Join(head(st.CodeFiles, 10), ", "))
	fmt.Fprintf(&b, "Directories (%d): %s\n", len(st.Directories), strings.Join(head(st.Directories, 10), ", "))
	return b.String()
}

func splitOwnerRepo(repoURL string) (owner, name string, err error) {
	owner, name, ok := aggregate.OwnerRepo(repoURL)
	if !ok {
		return "", "", fmt.Errorf("not an owner/repository URL: %s", repoURL)
	}
	return owner, name, nil
}

func lastPush(meta types.RepoMeta) string {
	if meta.LastPush.IsZero() {
		return "unknown"
	}
	return meta.LastPush.UTC().Format(time.RFC3339)
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func withDefaults(cfg types.QualityConfig) types.QualityConfig {
	if cfg.MinCodeFiles <= 0 {
		cfg.MinCodeFiles = 1
	}
	if cfg.MinRepoSizeKB <= 0 {
		cfg.MinRepoSizeKB = 10
	}
	if cfg.AbandonedAfter <= 0 {
		cfg.AbandonedAfter = 3 * 365 * 24 * time.Hour
	}
	if cfg.MinStarsForOldRepo <= 0 {
		cfg.MinStarsForOldRepo = 5
	}
	if cfg.MeaningfulThreshold <= 0 {
		cfg.MeaningfulThreshold = 0.5
	}
	if cfg.NeutralScore <= 0 {
		cfg.NeutralScore = 0.5
	}
	if cfg.MaxReadmeChars <= 0 {
		cfg.MaxReadmeChars = 4000
	}
	return cfg
}
