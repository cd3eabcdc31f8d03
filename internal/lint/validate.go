// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lint checks a completed artifact against the methodology
// rules. It offers two independent views: Validate, a lightweight
// missing-minimums pass, and Lint, the full severity-ranked rule-coded
// report. Neither mutates the artifact, and neither blocks saving —
// findings gate promotion, not persistence.
package lint

import (
	"fmt"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Validation warning codes.
const (
	CodeBelowMinHypotheses     = "BELOW_MIN_HYPOTHESES"
	CodeBelowMinPredictions    = "BELOW_MIN_PREDICTIONS"
	CodeBelowMinTests          = "BELOW_MIN_TESTS"
	CodeBelowMinAssumptions    = "BELOW_MIN_ASSUMPTIONS"
	CodeBelowMinCritiques      = "BELOW_MIN_CRITIQUES"
	CodeNoThirdAlternative     = "NO_THIRD_ALTERNATIVE"
	CodeNoScaleCheck           = "NO_SCALE_CHECK"
	CodeNoRealThirdAlternative = "NO_REAL_THIRD_ALTERNATIVE"
	CodeInvalidReference       = "INVALID_REFERENCE"
)

// Section floors: the minimum number of active items a ready artifact
// carries per section.
var sectionFloors = []struct {
	section types.Section
	min     int
	code    string
}{
	{types.SectionHypothesisSlate, 3, CodeBelowMinHypotheses},
	{types.SectionPredictionsTable, 3, CodeBelowMinPredictions},
	{types.SectionDiscriminativeTests, 2, CodeBelowMinTests},
	{types.SectionAssumptionLedger, 3, CodeBelowMinAssumptions},
	{types.SectionAdversarialCritique, 2, CodeBelowMinCritiques},
}

// Warning is one finding from the lightweight validation pass.
type Warning struct {
	// Code is the machine-readable warning code.
	Code string `json:"code"`

	// Message is the human-readable detail.
	Message string `json:"message"`
}

// Validate runs the lightweight missing-minimums check: section floors,
// required methodology markers, and the shape of any cross-session
// references. The result is an unranked warning list; an empty list
// means the artifact meets the minimums.
func Validate(a *types.Artifact) []Warning {
	var warnings []Warning

	for _, floor := range sectionFloors {
		if n := a.ActiveCount(floor.section); n < floor.min {
			warnings = append(warnings, Warning{
				Code:    floor.code,
				Message: fmt.Sprintf("%s has %d active items, needs at least %d", floor.section, n, floor.min),
			})
		}
	}

	if !anyActiveFlag(a, types.SectionHypothesisSlate, "third_alternative") {
		warnings = append(warnings, Warning{
			Code:    CodeNoThirdAlternative,
			Message: "no active hypothesis is flagged as the third alternative",
		})
	}
	if !anyActiveFlag(a, types.SectionAssumptionLedger, "scale_check") {
		warnings = append(warnings, Warning{
			Code:    CodeNoScaleCheck,
			Message: "no active assumption is flagged as a scale check",
		})
	}
	if !anyActiveFlag(a, types.SectionAdversarialCritique, "real_third_alternative") {
		warnings = append(warnings, Warning{
			Code:    CodeNoRealThirdAlternative,
			Message: "no active critique is flagged as a real third alternative",
		})
	}

	warnings = append(warnings, validateReferences(a)...)
	return warnings
}

// validateReferences checks the shape of every cross-session reference:
// an object with non-empty session and item strings and a relation from
// the closed set.
func validateReferences(a *types.Artifact) []Warning {
	var warnings []Warning
	eachItem(a, func(s types.Section, it *types.Item) {
		refs, ok := it.Fields["references"].([]any)
		if !ok {
			return
		}
		for i, raw := range refs {
			ref, ok := raw.(map[string]any)
			if !ok {
				warnings = append(warnings, invalidRef(it.ID, i, "not an object"))
				continue
			}
			if s, _ := ref["session"].(string); s == "" {
				warnings = append(warnings, invalidRef(it.ID, i, "missing session"))
			}
			if item, _ := ref["item"].(string); item == "" {
				warnings = append(warnings, invalidRef(it.ID, i, "missing item"))
			}
			rel, _ := ref["relation"].(string)
			if !types.ValidRelation(rel) {
				warnings = append(warnings, invalidRef(it.ID, i, fmt.Sprintf("invalid relation %q", rel)))
			}
		}
	})
	return warnings
}

func invalidRef(itemID string, index int, detail string) Warning {
	return Warning{
		Code:    CodeInvalidReference,
		Message: fmt.Sprintf("%s reference %d: %s", itemID, index, detail),
	}
}

// eachItem visits the singleton and every collection item, killed
// included.
func eachItem(a *types.Artifact, fn func(types.Section, *types.Item)) {
	if a.Sections.ResearchThread != nil {
		fn(types.SectionResearchThread, a.Sections.ResearchThread)
	}
	for _, s := range types.AllSections {
		if s.Singleton() {
			continue
		}
		for _, it := range a.Collection(s) {
			fn(s, it)
		}
	}
}

func anyActiveFlag(a *types.Artifact, s types.Section, flag string) bool {
	for _, it := range a.Active(s) {
		if it.Bool(flag) {
			return true
		}
	}
	return false
}
