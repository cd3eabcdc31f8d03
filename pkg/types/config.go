// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for commands that fetch source
// material over the network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "artifact-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SessionConfig holds settings for the session snapshot store.
type SessionConfig struct {
	// SessionsDir is the base directory for session snapshots
	// (one subdirectory per session id).
	SessionsDir string `json:"sessions_dir" yaml:"sessions_dir"`
}

// CorpusConfig holds settings for the source-material corpus.
type CorpusConfig struct {
	HTTPConfig `yaml:",inline"`

	// CorpusDir is the base directory for the corpus index.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// MaxResults is the default maximum number of search results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LintConfig holds settings for the provenance rule family.
type LintConfig struct {
	// SourceMax overrides the highest valid passage number. Zero means
	// take the range from the corpus index, or skip the range check
	// when no corpus is available.
	SourceMax int `json:"source_max" yaml:"source_max"`

	// ChastityPassage is the passage number of the chastity-principle
	// citation that test potency checks are expected to cite
	// (default 31).
	ChastityPassage int `json:"chastity_passage" yaml:"chastity_passage"`
}

// GlossaryConfig holds settings for the jargon lookup table.
type GlossaryConfig struct {
	// Path is the glossary YAML file.
	Path string `json:"path" yaml:"path"`
}

// Config is the full engine configuration loaded from
// artifact-engine.yaml.
type Config struct {
	Session  SessionConfig  `json:"session" yaml:"session"`
	Corpus   CorpusConfig   `json:"corpus" yaml:"corpus"`
	Lint     LintConfig     `json:"lint" yaml:"lint"`
	Glossary GlossaryConfig `json:"glossary" yaml:"glossary"`
}
