// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/code-finder/internal/extractdoc"
	"github.com/pdiddy/code-finder/internal/githubapi"
	"github.com/pdiddy/code-finder/internal/judge"
	"github.com/pdiddy/code-finder/internal/papers"
	"github.com/pdiddy/code-finder/internal/pipeline"
	"github.com/pdiddy/code-finder/internal/store"
	"github.com/pdiddy/code-finder/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "code-finder/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover and validate repositories for papers",
	Long: `Run processes every paper with a metadata record, or a single paper
with --single. For each paper it extracts repository links from the
converted markdown, searches the code host when the document yields none,
classifies the official repository, validates the selection, and writes a
JSON record. Papers that already have a wellformed record are skipped
unless --no-resume is set.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("single", "", "process only the named paper ID")
	runCmd.Flags().Int("limit", 0, "process at most this many papers (0 = no limit)")
	runCmd.Flags().Bool("rule-only", false, "disable semantic judgments; heuristics and rule filter only")
	runCmd.Flags().Bool("skip-extract", false, "skip document extraction, go straight to search")
	runCmd.Flags().Bool("skip-validate", false, "skip quality validation")
	runCmd.Flags().Bool("no-resume", false, "reprocess papers that already have a record")
	runCmd.Flags().Int("workers", 1, "papers processed concurrently")
	runCmd.Flags().String("papers-dir", "papers", "base directory for papers (contains metadata/, markdown/)")
	runCmd.Flags().String("records-dir", "records", "base directory for produced records")
	runCmd.Flags().String("model", "", "judge model identifier")
	runCmd.Flags().String("github-token", "", "GitHub API token (default: .secrets/github-token)")

	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.min_relevance", 0.3)
	viper.SetDefault("quality.min_code_files", 1)
	viper.SetDefault("quality.min_repo_size_kb", 10)
	viper.SetDefault("quality.abandoned_after", 3*365*24*time.Hour)
	viper.SetDefault("quality.min_stars_for_old_repo", 5)
	viper.SetDefault("quality.meaningful_threshold", 0.5)
	viper.SetDefault("quality.neutral_score", 0.5)
	viper.SetDefault("quality.max_readme_chars", 4000)
	viper.SetDefault("judge.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("judge.max_retries", 3)
	viper.SetDefault("judge.timeout", 30*time.Second)
	viper.SetDefault("judge.max_concurrent", 2)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	single, _ := cmd.Flags().GetString("single")
	limit, _ := cmd.Flags().GetInt("limit")
	ruleOnly, _ := cmd.Flags().GetBool("rule-only")
	skipExtract, _ := cmd.Flags().GetBool("skip-extract")
	skipValidate, _ := cmd.Flags().GetBool("skip-validate")
	noResume, _ := cmd.Flags().GetBool("no-resume")
	workers, _ := cmd.Flags().GetInt("workers")
	papersDir, _ := cmd.Flags().GetString("papers-dir")
	recordsDir, _ := cmd.Flags().GetString("records-dir")
	model, _ := cmd.Flags().GetString("model")
	githubToken, _ := cmd.Flags().GetString("github-token")

	cfg := pipelineConfig(papersDir, recordsDir, workers)
	if model != "" {
		cfg.Judge.Model = model
	}
	cfg.Search.Token = secretDefault("github-token", githubToken)
	cfg.Judge.APIKey = secretDefault("anthropic-api-key", "")

	if !ruleOnly && cfg.Judge.APIKey == "" {
		return fmt.Errorf("no anthropic-api-key found in .secrets/; use --rule-only to run without semantic judgments")
	}

	library := &papers.Library{BaseDir: papersDir}
	extractor := &extractdoc.Extractor{
		MarkdownDir:   library.MarkdownDir(),
		ContextWindow: cfg.Discovery.ContextWindow,
	}
	client := &githubapi.Client{
		HTTP:      &http.Client{Timeout: cfg.Search.Timeout},
		Token:     cfg.Search.Token,
		UserAgent: cfg.Search.UserAgent,
	}

	var j judge.Judge
	if !ruleOnly {
		claude := judge.NewClaude(&http.Client{}, cfg.Judge)
		j = judge.NewLimited(claude, cfg.Judge.MaxConcurrent)
	}

	records, err := store.New(recordsDir)
	if err != nil {
		return err
	}
	defer records.Close()

	o := &pipeline.Orchestrator{
		Catalog:   library,
		Extractor: extractor,
		Searcher:  client,
		Inspector: client,
		Judge:     j,
		Records:   records,
		Config:    cfg,
	}

	_, err = o.Run(cmd.Context(), pipeline.Options{
		Single:       single,
		Limit:        limit,
		RuleOnly:     ruleOnly,
		SkipExtract:  skipExtract,
		SkipValidate: skipValidate,
		Resume:       !noResume,
		Workers:      workers,
	}, os.Stdout)
	return err
}

// pipelineConfig assembles stage configuration from viper-managed settings.
func pipelineConfig(papersDir, recordsDir string, workers int) types.PipelineConfig {
	return types.PipelineConfig{
		Discovery: types.DiscoveryConfig{
			AllowedHosts:          viper.GetStringSlice("discovery.allowed_hosts"),
			ContextWindow:         viper.GetInt("discovery.context_window"),
			AuthoritativePosition: viper.GetFloat64("discovery.authoritative_position"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			MaxResults:   viper.GetInt("search.max_results"),
			MinRelevance: viper.GetFloat64("search.min_relevance"),
		},
		Quality: types.QualityConfig{
			MinCodeFiles:        viper.GetInt("quality.min_code_files"),
			MinRepoSizeKB:       viper.GetInt("quality.min_repo_size_kb"),
			AbandonedAfter:      viper.GetDuration("quality.abandoned_after"),
			MinStarsForOldRepo:  viper.GetInt("quality.min_stars_for_old_repo"),
			MeaningfulThreshold: viper.GetFloat64("quality.meaningful_threshold"),
			NeutralScore:        viper.GetFloat64("quality.neutral_score"),
			MaxReadmeChars:      viper.GetInt("quality.max_readme_chars"),
		},
		Judge: types.JudgeConfig{
			Model:         viper.GetString("judge.model"),
			MaxRetries:    viper.GetInt("judge.max_retries"),
			Timeout:       viper.GetDuration("judge.timeout"),
			MaxConcurrent: viper.GetInt("judge.max_concurrent"),
		},
		PapersDir:  papersDir,
		RecordsDir: recordsDir,
		Workers:    workers,
	}
}
