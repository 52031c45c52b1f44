// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/code-finder/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// ClaudeJudge implements Judge against the Claude Messages API. One prompt
// template per Kind; every response must be a bare JSON object (fenced
// responses are tolerated and unwrapped).
type ClaudeJudge struct {
	Client *http.Client
	Config types.JudgeConfig
}

// NewClaude returns a ClaudeJudge with defaults applied.
func NewClaude(client *http.Client, cfg types.JudgeConfig) *ClaudeJudge {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ClaudeJudge{Client: client, Config: cfg}
}

// SelectOfficial asks the model to pick at most one official repository.
func (j *ClaudeJudge) SelectOfficial(ctx context.Context, in SelectOfficialInput) (SelectOfficialVerdict, error) {
	prompt, err := renderPrompt(selectOfficialTmpl, in)
	if err != nil {
		return SelectOfficialVerdict{}, err
	}

	raw, err := j.call(ctx, prompt)
	if err != nil {
		return SelectOfficialVerdict{}, err
	}

	var resp struct {
		SelectedURL string `json:"selected_url"`
		Reason      string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SelectOfficialVerdict{}, fmt.Errorf("parsing select_official verdict: %w", err)
	}

	url := strings.TrimSpace(resp.SelectedURL)
	if strings.EqualFold(url, "none") || strings.EqualFold(url, "null") {
		url = ""
	}
	return SelectOfficialVerdict{SelectedURL: url, Reason: resp.Reason}, nil
}

// FilterCandidates asks the model which search results implement the paper.
func (j *ClaudeJudge) FilterCandidates(ctx context.Context, in FilterCandidatesInput) (FilterCandidatesVerdict, error) {
	prompt, err := renderPrompt(filterCandidatesTmpl, in)
	if err != nil {
		return FilterCandidatesVerdict{}, err
	}

	raw, err := j.call(ctx, prompt)
	if err != nil {
		return FilterCandidatesVerdict{}, err
	}

	var resp struct {
		Repositories []struct {
			FullName         string          `json:"full_name"`
			URL              string          `json:"url"`
			IsImplementation bool            `json:"is_implementation"`
			Relevance        json.RawMessage `json:"relevance"`
			Reason           string          `json:"reason"`
		} `json:"repositories"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return FilterCandidatesVerdict{}, fmt.Errorf("parsing filter_candidates verdict: %w", err)
	}

	var verdict FilterCandidatesVerdict
	for _, r := range resp.Repositories {
		rv := RepoVerdict{
			FullName:         r.FullName,
			URL:              r.URL,
			IsImplementation: r.IsImplementation,
			Reason:           r.Reason,
		}
		// A malformed relevance defaults to zero, which sits below any
		// sensible cutoff: unparseable enthusiasm never admits a repo.
		if f := floatField(r.Relevance); f != nil {
			rv.Relevance = *f
		}
		verdict.Repos = append(verdict.Repos, rv)
	}
	return verdict, nil
}

// RankRelevance asks the model to order URLs by relevance to the paper. The
// verdict is forced to a permutation of the input: invented URLs are dropped
// and omitted URLs appended in input order.
func (j *ClaudeJudge) RankRelevance(ctx context.Context, in RankRelevanceInput) (RankRelevanceVerdict, error) {
	prompt, err := renderPrompt(rankRelevanceTmpl, in)
	if err != nil {
		return RankRelevanceVerdict{}, err
	}

	raw, err := j.call(ctx, prompt)
	if err != nil {
		return RankRelevanceVerdict{}, err
	}

	var resp struct {
		RankedURLs []string `json:"ranked_urls"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return RankRelevanceVerdict{}, fmt.Errorf("parsing rank_relevance verdict: %w", err)
	}

	inSet := make(map[string]bool, len(in.URLs))
	for _, u := range in.URLs {
		inSet[u] = true
	}

	var ranked []string
	taken := make(map[string]bool)
	for _, u := range resp.RankedURLs {
		u = strings.TrimSpace(u)
		if inSet[u] && !taken[u] {
			ranked = append(ranked, u)
			taken[u] = true
		}
	}
	for _, u := range in.URLs {
		if !taken[u] {
			ranked = append(ranked, u)
		}
	}
	return RankRelevanceVerdict{Ranked: ranked}, nil
}

// AssessQuality asks the model to score a repository's substance. A missing
// or malformed overall score comes back as a nil Score for the caller to
// neutralize; the boolean is advisory only.
func (j *ClaudeJudge) AssessQuality(ctx context.Context, in AssessQualityInput) (AssessQualityVerdict, error) {
	prompt, err := renderPrompt(assessQualityTmpl, in)
	if err != nil {
		return AssessQualityVerdict{}, err
	}

	raw, err := j.call(ctx, prompt)
	if err != nil {
		return AssessQualityVerdict{}, err
	}

	var resp struct {
		IsMeaningful bool            `json:"is_meaningful"`
		OverallScore json.RawMessage `json:"overall_score"`
		Reasons      []string        `json:"reasons"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return AssessQualityVerdict{}, fmt.Errorf("parsing assess_quality verdict: %w", err)
	}

	verdict := AssessQualityVerdict{
		Meaningful: resp.IsMeaningful,
		Reasons:    resp.Reasons,
	}
	if f := floatField(resp.OverallScore); f != nil && *f >= 0 && *f <= 1 {
		verdict.Score = f
	}
	return verdict, nil
}

// --- transport ---

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// call sends the prompt, retrying transient failures with exponential
// backoff, and returns the model's JSON payload with any code fences removed.
func (j *ClaudeJudge) call(ctx context.Context, prompt string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= j.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := j.callOnce(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("judge call failed after %d retries: %w", j.Config.MaxRetries, lastErr)
}

func (j *ClaudeJudge) callOnce(ctx context.Context, prompt string) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, j.Config.Timeout)
	defer cancel()

	reqBody := claudeRequest{
		Model:     j.Config.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", j.Config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := j.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		payload := stripFences(block.Text)
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("judge returned invalid JSON: %s", truncate(payload, 200))
		}
		return json.RawMessage(payload), nil
	}
	return nil, fmt.Errorf("no text content in Claude API response")
}

// stripFences removes a surrounding markdown code fence, with or without a
// json language tag. Models wrap JSON this way often enough that rejecting
// it outright would waste calls.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// floatField leniently parses a JSON value that should be a number. Numbers
// and numeric strings parse; anything else (null, absent, prose) is nil.
func floatField(raw json.RawMessage) *float64 {
	// Unmarshaling JSON null into a float64 is a silent no-op, so it has to
	// be excluded up front or null would parse as a legitimate zero.
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
