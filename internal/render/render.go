// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns artifacts, lint reports, and diffs into
// human-readable text. Rendering is presentational only: every report
// has a structured form that round-trips losslessly; these renderings
// are one-way conveniences for terminals and notes.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// sectionTitles maps section names to report headings.
var sectionTitles = map[types.Section]string{
	types.SectionResearchThread:      "Research Thread",
	types.SectionHypothesisSlate:     "Hypothesis Slate",
	types.SectionPredictionsTable:    "Predictions Table",
	types.SectionDiscriminativeTests: "Discriminative Tests",
	types.SectionAssumptionLedger:    "Assumption Ledger",
	types.SectionAnomalyRegister:     "Anomaly Register",
	types.SectionAdversarialCritique: "Adversarial Critique",
}

// Markdown renders the artifact as a markdown report.
func Markdown(a *types.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Artifact: %s\n\n", a.Metadata.SessionID)
	fmt.Fprintf(&b, "- **Version:** %d\n", a.Metadata.Version)
	fmt.Fprintf(&b, "- **Status:** %s\n", a.Metadata.Status)
	fmt.Fprintf(&b, "- **Updated:** %s\n", a.Metadata.UpdatedAt)
	if len(a.Metadata.Contributors) > 0 {
		names := make([]string, len(a.Metadata.Contributors))
		for i, c := range a.Metadata.Contributors {
			names[i] = c.Agent
		}
		fmt.Fprintf(&b, "- **Contributors:** %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")

	for _, s := range types.AllSections {
		fmt.Fprintf(&b, "## %s\n\n", sectionTitles[s])
		if s.Singleton() {
			renderSingleton(&b, a.Sections.ResearchThread)
			continue
		}
		items := a.Collection(s)
		if len(items) == 0 {
			b.WriteString("_Empty._\n\n")
			continue
		}
		for _, it := range items {
			renderItem(&b, it)
		}
	}

	return b.String()
}

func renderSingleton(b *strings.Builder, rt *types.Item) {
	if rt == nil {
		b.WriteString("_Not yet set._\n\n")
		return
	}
	renderItem(b, rt)
}

func renderItem(b *strings.Builder, it *types.Item) {
	head := it.ID
	if name := it.Str("name"); name != "" {
		head += ": " + name
	}
	if it.Killed {
		fmt.Fprintf(b, "### ~~%s~~\n\n", head)
		fmt.Fprintf(b, "_Killed by %s at %s: %s_\n\n", it.KilledBy, it.KilledAt, it.KillReason)
		return
	}
	fmt.Fprintf(b, "### %s\n\n", head)

	keys := make([]string, 0, len(it.Fields))
	for k := range it.Fields {
		if k == "name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- **%s:** %s\n", k, renderValue(it.Fields[k]))
	}
	b.WriteString("\n")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = renderValue(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, renderValue(val[k]))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprint(v)
}
