// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package glossary provides the jargon lookup table: a YAML file of
// terms and definitions consulted by contributors reading an artifact.
package glossary

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Entry defines one glossary term.
type Entry struct {
	// Term is the canonical name.
	Term string `json:"term" yaml:"term"`

	// Definition explains the term.
	Definition string `json:"definition" yaml:"definition"`

	// Aliases are alternative spellings that resolve to this entry.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Glossary is a loaded lookup table. Lookups are case-insensitive.
type Glossary struct {
	entries []Entry
	index   map[string]int
}

// Load reads a glossary YAML file: a list of entries under "terms".
func Load(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glossary: %w", err)
	}
	var file struct {
		Terms []Entry `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing glossary: %w", err)
	}

	g := &Glossary{entries: file.Terms, index: make(map[string]int)}
	for i, e := range file.Terms {
		g.index[strings.ToLower(e.Term)] = i
		for _, alias := range e.Aliases {
			g.index[strings.ToLower(alias)] = i
		}
	}
	return g, nil
}

// Lookup resolves a term or alias, case-insensitively.
func (g *Glossary) Lookup(term string) (Entry, bool) {
	i, ok := g.index[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return Entry{}, false
	}
	return g.entries[i], true
}

// Terms returns every canonical term, sorted.
func (g *Glossary) Terms() []string {
	out := make([]string, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.Term
	}
	sort.Strings(out)
	return out
}
