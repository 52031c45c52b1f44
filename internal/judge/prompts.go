// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import "text/template"

// One template per prompt kind. Each instructs the model to answer with a
// bare JSON object matching the wire shape the parsers in claude.go expect.

var selectOfficialTmpl = template.Must(template.New("select_official").Parse(`You identify the official code repository for a research paper. The official repository is the one released by the paper's own authors, not a third-party reimplementation.

Paper title: "{{.Paper.Title}}"
Venue: {{.Paper.Venue}} {{.Paper.Year}}
Abstract: "{{.Paper.Abstract}}"

Repository URLs found in the paper, with the text surrounding each link:
{{range $i, $c := .Candidates}}{{$i}}. {{$c.URL}}
   Context: {{$c.Context}}
{{end}}
Pick at most ONE URL from the list above that is the authors' official implementation. You must answer with a URL copied exactly from the list, or "none" if none of them is the official repository. Do not invent a URL.

Respond with a JSON object only:
{"selected_url": "<url from the list, or none>", "reason": "<brief explanation>"}
`))

var filterCandidatesTmpl = template.Must(template.New("filter_candidates").Parse(`You classify whether GitHub search results actually implement a given research paper.

Paper title: "{{.Paper.Title}}"
Venue: {{.Paper.Venue}} {{.Paper.Year}}
Abstract: "{{.Paper.Abstract}}"

Search results:
{{range $i, $r := .Repos}}{{$i}}. {{$r.FullName}} - {{$r.URL}}
   Description: {{$r.Description}}
   Stars: {{$r.Stars}}, Language: {{$r.Language}}
{{end}}
For each repository, decide whether it implements this paper (or is a close reimplementation of it). A repository about a different paper, a general-purpose library, or an awesome-list is not an implementation.

Respond with a JSON object only:
{"repositories": [{"full_name": "<owner/name>", "url": "<url>", "is_implementation": true, "relevance": 0.9, "reason": "<brief>"}]}
`))

var rankRelevanceTmpl = template.Must(template.New("rank_relevance").Parse(`You order candidate code repositories by how relevant each is to a research paper.

Paper title: "{{.Paper.Title}}"
Venue: {{.Paper.Venue}} {{.Paper.Year}}
Abstract: "{{.Paper.Abstract}}"

Candidate URLs:
{{range .URLs}}- {{.}}
{{end}}
Order the URLs from most to least relevant. Use only URLs from the list; include every one of them exactly once.

Respond with a JSON object only:
{"ranked_urls": ["<most relevant>", "<next>", "..."]}
`))

var assessQualityTmpl = template.Must(template.New("assess_quality").Parse(`You are a senior ML engineer evaluating whether a code repository is a substantive, maintained implementation of a research paper.

Paper title: "{{.Paper.Title}}"
Venue: {{.Paper.Venue}} {{.Paper.Year}}
Abstract: "{{.Paper.Abstract}}"

Repository: {{.Repo.URL}}

Basic stats:
- Stars: {{.Repo.Stars}}
- Forks: {{.Repo.Forks}}
- Last push: {{.Repo.LastPush}}
- Main language: {{.Repo.Language}}
- Size: {{.Repo.SizeKB}}KB
- Archived: {{.Repo.Archived}}
- Code files in root: {{.Repo.CodeFileCount}}
- Typical implementation layout: {{.Repo.TypicalLayout}}

{{.Repo.TreeSummary}}

README (truncated):
{{.Repo.Readme}}

Score the repository's overall quality in [0.0, 1.0] considering whether it implements the paper, how complete the code is (training, inference, evaluation), and how maintained it looks. List short supporting or detracting reasons such as "has training code", "no commits in 2 years", "documentation present".

Respond with a JSON object only:
{"is_meaningful": true, "overall_score": 0.8, "reasons": ["<reason 1>", "<reason 2>"]}
`))
