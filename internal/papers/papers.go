// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers loads paper metadata from the papers directory layout:
// one YAML record per paper under metadata/, one markdown rendering per
// paper under markdown/.
package papers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/code-finder/pkg/types"
)

// Library points at a papers directory.
type Library struct {
	// BaseDir contains metadata/ and markdown/.
	BaseDir string
}

// MetadataDir returns the directory holding per-paper YAML records.
func (l *Library) MetadataDir() string {
	return filepath.Join(l.BaseDir, "metadata")
}

// MarkdownDir returns the directory holding per-paper markdown documents.
func (l *Library) MarkdownDir() string {
	return filepath.Join(l.BaseDir, "markdown")
}

// Load reads one paper's metadata record. The record's ID field, when
// empty, is filled from the filename.
func (l *Library) Load(paperID string) (*types.Paper, error) {
	path := filepath.Join(l.MetadataDir(), paperID+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data, err = os.ReadFile(filepath.Join(l.MetadataDir(), paperID+".yml"))
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", paperID, err)
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", paperID, err)
	}
	if paper.ID == "" {
		paper.ID = paperID
	}
	return &paper, nil
}

// List returns every paper in the metadata directory, sorted by ID. A
// missing metadata directory yields an empty list, not an error: a fresh
// workspace simply has no papers yet.
func (l *Library) List() ([]types.Paper, error) {
	entries, err := os.ReadDir(l.MetadataDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing metadata directory: %w", err)
	}

	var out []types.Paper
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		paper, err := l.Load(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *paper)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}
