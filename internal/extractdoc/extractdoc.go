// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractdoc scans a paper's markdown document for hyperlinks and
// returns each with a window of surrounding text and its position in the
// document. Filtering to code-hosting domains happens downstream.
// See docs/ARCHITECTURE § Link Extraction.
package extractdoc

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/code-finder/pkg/types"
)

// urlPattern matches http(s) URLs up to the first character that cannot
// appear in one.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// trailingPunct holds characters stripped from the end of a matched URL.
// Sentence punctuation and closing brackets routinely abut links in prose.
const trailingPunct = ".,;:!?)"

// defaultContextWindow is the number of characters of surrounding text kept
// on each side of a link.
const defaultContextWindow = 100

// Extractor reads the markdown rendering of a paper and extracts its links.
type Extractor struct {
	// MarkdownDir is the directory holding one <paper-id>.md per paper.
	MarkdownDir string

	// ContextWindow overrides defaultContextWindow when positive.
	ContextWindow int
}

// ExtractLinks loads the paper's markdown document and returns every
// hyperlink found in it, in document order. A missing document is an error:
// the caller decides whether extraction was optional for this run.
func (e *Extractor) ExtractLinks(paperID string) ([]types.DocumentLink, error) {
	path := e.DocumentPath(paperID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document for %s: %w", paperID, err)
	}
	return FromText(string(raw), e.window()), nil
}

// DocumentPath returns where the paper's markdown rendering lives.
func (e *Extractor) DocumentPath(paperID string) string {
	return e.MarkdownDir + "/" + paperID + ".md"
}

func (e *Extractor) window() int {
	if e.ContextWindow > 0 {
		return e.ContextWindow
	}
	return defaultContextWindow
}

// FromText extracts every URL in text together with window characters of
// context on each side and the match's fractional position in the document.
// Duplicate occurrences of the same URL each produce a link; merging is the
// aggregator's job.
func FromText(text string, window int) []types.DocumentLink {
	if window <= 0 {
		window = defaultContextWindow
	}
	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	links := make([]types.DocumentLink, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		url := strings.TrimRight(text[start:end], trailingPunct)
		if url == "" {
			continue
		}

		ctxStart := start - window
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := start + len(url) + window
		if ctxEnd > len(text) {
			ctxEnd = len(text)
		}

		links = append(links, types.DocumentLink{
			URL:      url,
			Context:  text[ctxStart:ctxEnd],
			Position: float64(start) / float64(len(text)),
		})
	}
	return links
}
