// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate normalizes and deduplicates raw repository URLs from
// multiple sources into typed candidates.
// See docs/ARCHITECTURE § Candidate Aggregation.
package aggregate

import (
	"net/url"
	"strings"

	"github.com/pdiddy/code-finder/pkg/types"
)

// DefaultAllowedHosts is the default allow-list of code-hosting domains.
var DefaultAllowedHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"gitee.com",
	"gitcode.com",
}

// trailingPunct are characters stripped from the end of extracted URLs.
// Papers frequently run a link into sentence punctuation or a close paren.
const trailingPunct = ".,;:!?)]}'\""

// Aggregate filters links to the configured code-hosting domains, normalizes
// each survivor to its repository-root form, and merges duplicates. All
// non-repository links are dropped silently; an empty input yields an empty
// output and is not an error.
func Aggregate(links []types.DocumentLink, cfg types.DiscoveryConfig) []types.Candidate {
	allowed := cfg.AllowedHosts
	if len(allowed) == 0 {
		allowed = DefaultAllowedHosts
	}

	seen := make(map[string]int) // canonical URL → index in out
	var out []types.Candidate

	for _, link := range links {
		canonical, host, ok := Canonical(link.URL, allowed)
		if !ok {
			continue
		}

		if idx, dup := seen[canonical]; dup {
			merge(&out[idx], link)
			continue
		}

		seen[canonical] = len(out)
		c := types.Candidate{
			URL:      canonical,
			Host:     host,
			Sources:  []types.CandidateSource{types.SourceDocument},
			Position: link.Position,
		}
		if s := strings.TrimSpace(link.Context); s != "" {
			c.Contexts = []string{s}
		}
		out = append(out, c)
	}

	return out
}

// merge unions src's context into the existing candidate and keeps the
// earliest document position.
func merge(dst *types.Candidate, src types.DocumentLink) {
	if s := strings.TrimSpace(src.Context); s != "" && !containsString(dst.Contexts, s) {
		dst.Contexts = append(dst.Contexts, s)
	}
	if src.Position < dst.Position {
		dst.Position = src.Position
	}
}

// Canonical normalizes a raw URL to its repository-root form and reports
// whether it belongs to an allowed code host. The canonical form has an
// https scheme, a lowercased host without www, and an owner/repo path with
// no query, fragment, trailing slash, or .git suffix.
func Canonical(raw string, allowed []string) (string, types.Host, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, trailingPunct)
	if raw == "" {
		return "", types.HostOther, false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", types.HostOther, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", types.HostOther, false
	}

	domain := strings.ToLower(u.Hostname())
	domain = strings.TrimPrefix(domain, "www.")

	if !hostAllowed(domain, allowed) {
		return "", types.HostOther, false
	}

	// Repository URLs have at least owner/repo path segments; anything
	// shorter is a profile or landing page.
	segments := splitPath(u.Path)
	if len(segments) < 2 {
		return "", types.HostOther, false
	}

	owner, repo := segments[0], segments[1]
	repo = strings.TrimSuffix(repo, ".git")
	if owner == "" || repo == "" {
		return "", types.HostOther, false
	}

	return "https://" + domain + "/" + owner + "/" + repo, hostOf(domain), true
}

// hostAllowed reports whether domain matches an allow-list entry exactly or
// as a subdomain.
func hostAllowed(domain string, allowed []string) bool {
	for _, d := range allowed {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// hostOf maps a domain to its Host enum value.
func hostOf(domain string) types.Host {
	switch {
	case strings.HasSuffix(domain, "github.com"):
		return types.HostGitHub
	case strings.HasSuffix(domain, "gitlab.com"):
		return types.HostGitLab
	case strings.HasSuffix(domain, "bitbucket.org"):
		return types.HostBitbucket
	default:
		return types.HostOther
	}
}

// OwnerRepo extracts the owner and repository name from a canonical URL.
func OwnerRepo(canonical string) (owner, repo string, ok bool) {
	u, err := url.Parse(canonical)
	if err != nil {
		return "", "", false
	}
	segments := splitPath(u.Path)
	if len(segments) < 2 {
		return "", "", false
	}
	return segments[0], segments[1], true
}

func splitPath(p string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
