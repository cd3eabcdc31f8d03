// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lint

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Severity ranks a lint violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// rank orders severities: error before warning before info.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	}
	return 2
}

// Violation is one rule-coded lint finding.
type Violation struct {
	// ID is the rule code (e.g. "WT-002").
	ID string `json:"id"`

	// Severity is error, warning, or info.
	Severity Severity `json:"severity"`

	// Message is the human-readable finding.
	Message string `json:"message"`

	// Fix suggests a remedy, when one is mechanical enough to state.
	Fix string `json:"fix,omitempty"`
}

// Summary counts violations by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Report is the full lint result. Valid is true iff no violation has
// error severity; warnings and info never fail a report.
type Report struct {
	Valid      bool        `json:"valid"`
	Summary    Summary     `json:"summary"`
	Violations []Violation `json:"violations"`
}

// Options tunes the provenance rule family.
type Options struct {
	// SourceMax is the highest valid source passage number. Zero skips
	// the citation range check.
	SourceMax int

	// ChastityPassage is the passage number of the chastity-principle
	// citation expected in test potency checks. Zero skips the check.
	ChastityPassage int
}

// Lint runs every rule family over the artifact and returns the
// severity-ranked report. Linting is advisory: it gates promotion, not
// saving, so an artifact may persist in an error state.
func Lint(a *types.Artifact, opts Options) *Report {
	var v []Violation
	v = append(v, lintMetadata(a)...)
	v = append(v, lintResearchThread(a)...)
	v = append(v, lintHypotheses(a)...)
	v = append(v, lintPredictions(a)...)
	v = append(v, lintTests(a)...)
	v = append(v, lintAssumptions(a)...)
	v = append(v, lintCritiques(a)...)
	v = append(v, lintProvenance(a, opts)...)

	sort.SliceStable(v, func(i, j int) bool {
		if v[i].Severity.rank() != v[j].Severity.rank() {
			return v[i].Severity.rank() < v[j].Severity.rank()
		}
		if v[i].ID != v[j].ID {
			return v[i].ID < v[j].ID
		}
		return v[i].Message < v[j].Message
	})

	rep := &Report{Violations: v}
	for _, viol := range v {
		switch viol.Severity {
		case SeverityError:
			rep.Summary.Errors++
		case SeverityWarning:
			rep.Summary.Warnings++
		default:
			rep.Summary.Info++
		}
	}
	rep.Valid = rep.Summary.Errors == 0
	return rep
}

// JSON returns the report's deterministic JSON serialization. It
// round-trips losslessly back into a Report.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// --- metadata well-formedness (MD) ---

func lintMetadata(a *types.Artifact) []Violation {
	var v []Violation
	md := a.Metadata

	if md.SessionID == "" {
		v = append(v, Violation{ID: "MD-001", Severity: SeverityError,
			Message: "session id is empty"})
	}
	created, err := time.Parse(time.RFC3339, md.CreatedAt)
	if err != nil {
		v = append(v, Violation{ID: "MD-002", Severity: SeverityError,
			Message: fmt.Sprintf("created_at %q is not a valid timestamp", md.CreatedAt)})
	}
	updated, uerr := time.Parse(time.RFC3339, md.UpdatedAt)
	if uerr != nil {
		v = append(v, Violation{ID: "MD-003", Severity: SeverityError,
			Message: fmt.Sprintf("updated_at %q is not a valid timestamp", md.UpdatedAt)})
	}
	if !md.Status.Valid() {
		v = append(v, Violation{ID: "MD-004", Severity: SeverityError,
			Message: fmt.Sprintf("status %q is not draft, active, or closed", md.Status)})
	}
	if err == nil && uerr == nil && updated.Before(created) {
		v = append(v, Violation{ID: "MD-005", Severity: SeverityError,
			Message: "updated_at precedes created_at"})
	}
	if len(md.Contributors) == 0 {
		v = append(v, Violation{ID: "MD-006", Severity: SeverityWarning,
			Message: "artifact has no contributors"})
	}
	return v
}

// --- research thread completeness (RT) ---

func lintResearchThread(a *types.Artifact) []Violation {
	rt := a.Sections.ResearchThread
	if rt == nil {
		return []Violation{{ID: "RT-001", Severity: SeverityError,
			Message: "research thread is missing",
			Fix:     "EDIT research_thread with a statement, context, and anchors"}}
	}
	var v []Violation
	if rt.Str("statement") == "" {
		v = append(v, Violation{ID: "RT-002", Severity: SeverityError,
			Message: "research thread statement is empty"})
	}
	if rt.Str("context") == "" {
		v = append(v, Violation{ID: "RT-003", Severity: SeverityWarning,
			Message: "research thread context is empty"})
	}
	if len(rt.StringList("anchors")) == 0 {
		v = append(v, Violation{ID: "RT-004", Severity: SeverityWarning,
			Message: "research thread has no anchors"})
	}
	return v
}

// --- hypothesis bounds (HS) ---

func lintHypotheses(a *types.Artifact) []Violation {
	var v []Violation
	active := a.Active(types.SectionHypothesisSlate)

	if len(active) < 3 {
		v = append(v, Violation{ID: "HS-001", Severity: SeverityWarning,
			Message: fmt.Sprintf("%d active hypotheses, slate needs 3-6", len(active))})
	}
	if len(active) > types.MaxActiveHypotheses {
		v = append(v, Violation{ID: "HS-002", Severity: SeverityError,
			Message: fmt.Sprintf("%d active hypotheses exceed the slate capacity of %d",
				len(active), types.MaxActiveHypotheses)})
	}
	if !anyActiveFlag(a, types.SectionHypothesisSlate, "third_alternative") {
		v = append(v, Violation{ID: "HS-003", Severity: SeverityWarning,
			Message: "no active hypothesis is flagged as the third alternative",
			Fix:     "add or flag a hypothesis with third_alternative: true"})
	}
	for _, h := range active {
		if h.Str("claim") == "" {
			v = append(v, Violation{ID: "HS-004", Severity: SeverityError,
				Message: fmt.Sprintf("%s has no claim", h.ID)})
		}
		if len(h.StringList("anchors")) == 0 {
			v = append(v, Violation{ID: "HS-005", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s has no anchors", h.ID)})
		}
	}
	return v
}

// --- prediction discrimination (PD) ---

// lintPredictions flags any prediction row whose outcome values are
// identical or missing across all active hypothesis ids: such a row
// cannot tell the hypotheses apart.
func lintPredictions(a *types.Artifact) []Violation {
	var hypIDs []string
	for _, h := range a.Active(types.SectionHypothesisSlate) {
		hypIDs = append(hypIDs, h.ID)
	}
	if len(hypIDs) < 2 {
		return nil
	}

	var v []Violation
	for _, p := range a.Active(types.SectionPredictionsTable) {
		outcomes, _ := p.Fields["outcomes"].(map[string]any)
		distinct := map[string]bool{}
		for _, id := range hypIDs {
			val, ok := outcomes[id].(string)
			if !ok || val == "" {
				continue
			}
			distinct[val] = true
		}
		// Fewer than two distinct outcome values, whether the rest are
		// missing or identical, and the row cannot separate anything.
		if len(distinct) <= 1 {
			v = append(v, Violation{ID: "PD-001", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s does not discriminate between the active hypotheses", p.ID),
				Fix:     "give at least two hypotheses different predicted outcomes"})
		}
	}
	return v
}

// --- test completeness and ordering (WT) ---

func lintTests(a *types.Artifact) []Violation {
	var v []Violation
	active := a.Active(types.SectionDiscriminativeTests)

	for _, t := range active {
		var missing []string
		for _, f := range []string{"procedure", "expected_outcomes", "potency_check"} {
			if t.Str(f) == "" {
				missing = append(missing, f)
			}
		}
		if _, ok := t.Fields["score"].(map[string]any); !ok {
			missing = append(missing, "score")
		}
		if len(missing) > 0 {
			v = append(v, Violation{ID: "WT-001", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s is missing %v", t.ID, missing)})
		}
	}

	// Active tests must be in non-increasing total-score order.
	for i := 1; i < len(active); i++ {
		if active[i].TotalScore() > active[i-1].TotalScore() {
			v = append(v, Violation{ID: "WT-002", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s (score %.0f) is ranked below %s (score %.0f)",
					active[i].ID, active[i].TotalScore(), active[i-1].ID, active[i-1].TotalScore()),
				Fix: "re-apply a score edit to restore descending order"})
			break
		}
	}
	return v
}

// --- assumption completeness (AS) ---

func lintAssumptions(a *types.Artifact) []Violation {
	var v []Violation
	for _, as := range a.Active(types.SectionAssumptionLedger) {
		if as.Str("statement") == "" {
			v = append(v, Violation{ID: "AS-001", Severity: SeverityError,
				Message: fmt.Sprintf("%s has no statement", as.ID)})
		}
		if as.Bool("scale_check") && as.Str("calculation") == "" {
			v = append(v, Violation{ID: "AS-002", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s is a scale check but carries no calculation", as.ID)})
		}
	}
	return v
}

// --- critique completeness (CQ) ---

func lintCritiques(a *types.Artifact) []Violation {
	var v []Violation
	for _, c := range a.Active(types.SectionAdversarialCritique) {
		if c.Str("statement") == "" {
			v = append(v, Violation{ID: "CQ-001", Severity: SeverityError,
				Message: fmt.Sprintf("%s has no statement", c.ID)})
		}
	}
	if !anyActiveFlag(a, types.SectionAdversarialCritique, "real_third_alternative") {
		v = append(v, Violation{ID: "CQ-002", Severity: SeverityWarning,
			Message: "no active critique is flagged as a real third alternative"})
	}
	return v
}
