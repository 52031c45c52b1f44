// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RepoMeta holds the metadata record the code-search collaborator returns
// for one repository. The quality gate's rule filter works entirely from
// these fields plus the root file listing.
type RepoMeta struct {
	// URL is the repository's canonical browse URL.
	URL string `json:"url" yaml:"url"`

	// Name is the bare repository name.
	Name string `json:"name" yaml:"name"`

	// FullName is "owner/name".
	FullName string `json:"full_name" yaml:"full_name"`

	// Description is the repository's short description, possibly empty.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Stars is the stargazer count, the activity proxy used for ranking.
	Stars int `json:"stars" yaml:"stars"`

	// Forks is the fork count.
	Forks int `json:"forks" yaml:"forks"`

	// Language is the dominant language reported by the host.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// SizeKB is the repository size in kilobytes.
	SizeKB int `json:"size_kb" yaml:"size_kb"`

	// LastPush is the time of the most recent push.
	LastPush time.Time `json:"last_push" yaml:"last_push"`

	// Archived reports whether the host has archived the repository.
	Archived bool `json:"archived" yaml:"archived"`

	// Disabled reports whether the host has disabled the repository.
	Disabled bool `json:"disabled" yaml:"disabled"`

	// Topics lists host-assigned topic labels.
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// RepoEntry is one entry in a repository's root file listing.
type RepoEntry struct {
	// Name is the file or directory name.
	Name string `json:"name" yaml:"name"`

	// IsDir reports whether the entry is a directory.
	IsDir bool `json:"is_dir" yaml:"is_dir"`
}
