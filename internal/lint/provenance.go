// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// anchorCiteRe matches source citations in anchors: §N or §N-M.
var anchorCiteRe = regexp.MustCompile(`§(\d+)(?:-(\d+))?`)

// InferenceMarker flags an anchor as marking inferred rather than cited
// content.
const InferenceMarker = "inference"

// --- provenance (PV) ---

// lintProvenance checks every item's anchors: citation numbers must
// fall inside the source passage range, inference markers need at least
// one cited source beside them, and — advisory only — a test's potency
// check is expected to cite the chastity-principle passage.
func lintProvenance(a *types.Artifact, opts Options) []Violation {
	var v []Violation

	eachItem(a, func(s types.Section, it *types.Item) {
		anchors := it.StringList("anchors")
		cited := false
		inferred := false

		for _, anchor := range anchors {
			if strings.EqualFold(strings.TrimSpace(anchor), InferenceMarker) {
				inferred = true
				continue
			}
			for _, m := range anchorCiteRe.FindAllStringSubmatch(anchor, -1) {
				cited = true
				for _, num := range m[1:] {
					if num == "" {
						continue
					}
					n, _ := strconv.Atoi(num)
					if opts.SourceMax > 0 && (n < 1 || n > opts.SourceMax) {
						v = append(v, Violation{ID: "PV-001", Severity: SeverityError,
							Message: fmt.Sprintf("%s cites §%d, outside the source range 1-%d",
								it.ID, n, opts.SourceMax)})
					}
				}
			}
		}

		if inferred && !cited {
			v = append(v, Violation{ID: "PV-002", Severity: SeverityWarning,
				Message: fmt.Sprintf("%s is marked as inference but cites no source", it.ID)})
		}
	})

	if opts.ChastityPassage > 0 {
		for _, t := range a.Active(types.SectionDiscriminativeTests) {
			check := t.Str("potency_check")
			if check == "" {
				continue
			}
			text := check + " " + strings.Join(t.StringList("anchors"), " ")
			if citesPassage(text, opts.ChastityPassage) {
				continue
			}
			v = append(v, Violation{ID: "PV-003", Severity: SeverityInfo,
				Message: fmt.Sprintf("%s potency check does not cite the chastity principle (§%d)",
					t.ID, opts.ChastityPassage)})
		}
	}
	return v
}

// citesPassage reports whether text carries a §N or §N-M citation whose
// range covers the given passage number.
func citesPassage(text string, passage int) bool {
	for _, m := range anchorCiteRe.FindAllStringSubmatch(text, -1) {
		lo, _ := strconv.Atoi(m[1])
		hi := lo
		if m[2] != "" {
			hi, _ = strconv.Atoi(m[2])
		}
		if lo <= passage && passage <= hi {
			return true
		}
	}
	return false
}
