// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/pdiddy/artifact-engine/internal/diff"
	"github.com/pdiddy/artifact-engine/internal/lint"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen, color.Bold)
	headColor = color.New(color.Bold)
)

// LintReport renders a lint report for the terminal. Colors degrade to
// plain text on non-TTY output.
func LintReport(r *lint.Report) string {
	var b strings.Builder

	if r.Valid {
		fmt.Fprintf(&b, "%s ", okColor.Sprint("PASS"))
	} else {
		fmt.Fprintf(&b, "%s ", errColor.Sprint("FAIL"))
	}
	fmt.Fprintf(&b, "%d error(s), %d warning(s), %d info\n",
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)

	for _, v := range r.Violations {
		var tag string
		switch v.Severity {
		case lint.SeverityError:
			tag = errColor.Sprint("ERROR")
		case lint.SeverityWarning:
			tag = warnColor.Sprint("WARN ")
		default:
			tag = infoColor.Sprint("INFO ")
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", tag, v.ID, v.Message)
		if v.Fix != "" {
			fmt.Fprintf(&b, "        fix: %s\n", v.Fix)
		}
	}
	return b.String()
}

// ValidationReport renders the lightweight validation warnings.
func ValidationReport(warnings []lint.Warning) string {
	if len(warnings) == 0 {
		return okColor.Sprint("OK") + " artifact meets the section minimums\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d warning(s)\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(&b, "  %s %s  %s\n", warnColor.Sprint("WARN"), w.Code, w.Message)
	}
	return b.String()
}

// DiffReport renders an artifact diff for the terminal.
func DiffReport(d *diff.ArtifactDiff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s v%d -> v%d  progress: %s\n",
		headColor.Sprint("Diff"), d.FromVersion, d.ToVersion, d.Summary.ProgressScore)

	for _, s := range types.AllSections {
		sd := d.Changes[s]
		if sd == nil || sd.Empty() {
			continue
		}
		fmt.Fprintf(&b, "%s\n", headColor.Sprint(sectionTitles[s]))
		for _, a := range sd.Added {
			line := a.ID
			if a.Name != "" {
				line += " " + a.Name
			}
			if len(a.Targets) > 0 {
				line += " (discriminates " + strings.Join(a.Targets, ", ") + ")"
			}
			fmt.Fprintf(&b, "  %s %s\n", okColor.Sprint("+"), line)
		}
		for _, k := range sd.Killed {
			line := k.ID
			if k.Reason != "" {
				line += ": " + k.Reason
			}
			if k.By != "" {
				line += " (" + k.By + ")"
			}
			fmt.Fprintf(&b, "  %s %s\n", errColor.Sprint("-"), line)
		}
		for _, e := range sd.Edited {
			fmt.Fprintf(&b, "  %s %s\n", warnColor.Sprint("~"), e.ID)
			for _, c := range e.Changes {
				fmt.Fprintf(&b, "      %s: %v -> %v\n", c.Field, c.OldValue, c.NewValue)
			}
		}
		if sd.NetChange != nil {
			fmt.Fprintf(&b, "  net change: %+d\n", *sd.NetChange)
		}
		for _, id := range sd.Resolved {
			fmt.Fprintf(&b, "  resolved: %s\n", id)
		}
		for _, p := range sd.Promoted {
			fmt.Fprintf(&b, "  promoted: %s -> %s\n", p.ID, p.To)
		}
		for _, id := range sd.Dismissed {
			fmt.Fprintf(&b, "  dismissed: %s\n", id)
		}
	}

	fmt.Fprintf(&b, "added %d, killed %d, edited %d\n",
		d.Summary.TotalAdded, d.Summary.TotalKilled, d.Summary.TotalEdited)
	return b.String()
}
