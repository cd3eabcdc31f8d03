// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diff compares two versions of the same artifact and
// classifies what changed. The comparison is two-way: v1 and v2 are
// assumed causally related ("before" and "after"), so there is no
// common-ancestor reconciliation.
package diff

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Progress is the coarse classification of how much substantive change
// a diff represents. It is advisory: nothing else in the engine keys
// off it.
type Progress string

const (
	ProgressNone      Progress = "NONE"
	ProgressMinimal   Progress = "MINIMAL"
	ProgressGood      Progress = "GOOD"
	ProgressExcellent Progress = "EXCELLENT"
)

// truncateLen caps string values in field changes for readability.
const truncateLen = 80

// hypothesisIDRe matches a hypothesis id mentioned in an anomaly's
// resolution plan.
var hypothesisIDRe = regexp.MustCompile(`\bH\d+\b`)

// resolvedTerms are the critique status values counted as resolved.
var resolvedTerms = []string{"resolved", "addressed", "fixed"}

// FieldChange is one field-level difference on an edited item.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// AddedItem is an item present only in the newer version.
type AddedItem struct {
	// ID is the new item's id.
	ID string `json:"id"`

	// Name is the item's name or statement, for display.
	Name string `json:"name,omitempty"`

	// Targets lists the hypothesis ids a new discriminative test
	// discriminates between. Only set for tests.
	Targets []string `json:"targets,omitempty"`
}

// KilledItem is an item that was active in the older version and is
// killed or gone in the newer one. Silent removal is reported like an
// explicit kill with a synthetic rationale.
type KilledItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	By     string `json:"by,omitempty"`
}

// EditedItem is an item present in both versions with at least one
// non-system field changed.
type EditedItem struct {
	ID      string        `json:"id"`
	Changes []FieldChange `json:"changes"`
}

// Promotion records an anomaly resolved by promoting it into a
// hypothesis.
type Promotion struct {
	// ID is the anomaly id.
	ID string `json:"id"`

	// To is the mentioned hypothesis id, or "hypothesis" when the
	// resolution plan only says it was promoted.
	To string `json:"to"`
}

// SectionDiff holds one section's structured change lists plus its
// section-specific classifications.
type SectionDiff struct {
	Added  []AddedItem  `json:"added"`
	Killed []KilledItem `json:"killed"`
	Edited []EditedItem `json:"edited"`

	// NetChange is added minus killed; only set for the hypothesis
	// slate.
	NetChange *int `json:"net_change,omitempty"`

	// Resolved lists critique ids whose status became a resolution
	// term; only set for the adversarial critique section.
	Resolved []string `json:"resolved,omitempty"`

	// Promoted and Dismissed classify anomalies whose status became
	// resolved; only set for the anomaly register.
	Promoted  []Promotion `json:"promoted,omitempty"`
	Dismissed []string    `json:"dismissed,omitempty"`
}

// Empty reports whether the section saw no changes at all.
func (sd *SectionDiff) Empty() bool {
	return len(sd.Added) == 0 && len(sd.Killed) == 0 && len(sd.Edited) == 0
}

// Summary aggregates the diff for reporting.
type Summary struct {
	HypothesesAdded   int `json:"hypotheses_added"`
	HypothesesKilled  int `json:"hypotheses_killed"`
	TestsAdded        int `json:"tests_added"`
	CritiquesResolved int `json:"critiques_resolved"`
	AnomaliesResolved int `json:"anomalies_resolved"`
	TotalAdded        int `json:"total_added"`
	TotalKilled       int `json:"total_killed"`
	TotalEdited       int `json:"total_edited"`

	ProgressScore Progress `json:"progress_score"`
}

// ArtifactDiff is the full structured comparison of two versions.
type ArtifactDiff struct {
	FromVersion int                            `json:"from_version"`
	ToVersion   int                            `json:"to_version"`
	Changes     map[types.Section]*SectionDiff `json:"changes"`
	Summary     Summary                        `json:"summary"`
}

// JSON returns the diff's deterministic JSON serialization.
func (d *ArtifactDiff) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Diff compares two versions of the same session's artifact and
// classifies the per-section changes. Neither input is mutated.
func Diff(v1, v2 *types.Artifact) *ArtifactDiff {
	d := &ArtifactDiff{
		FromVersion: v1.Metadata.Version,
		ToVersion:   v2.Metadata.Version,
		Changes:     make(map[types.Section]*SectionDiff, len(types.AllSections)),
	}

	for _, s := range types.AllSections {
		var before, after []*types.Item
		if s.Singleton() {
			before = singletonSlice(v1.Sections.ResearchThread)
			after = singletonSlice(v2.Sections.ResearchThread)
		} else {
			before = v1.Collection(s)
			after = v2.Collection(s)
		}
		sd := diffSection(s, before, after)
		classifySection(s, sd, before, after)
		d.Changes[s] = sd

		d.Summary.TotalAdded += len(sd.Added)
		d.Summary.TotalKilled += len(sd.Killed)
		d.Summary.TotalEdited += len(sd.Edited)
	}

	hyp := d.Changes[types.SectionHypothesisSlate]
	d.Summary.HypothesesAdded = len(hyp.Added)
	d.Summary.HypothesesKilled = len(hyp.Killed)
	d.Summary.TestsAdded = len(d.Changes[types.SectionDiscriminativeTests].Added)
	d.Summary.CritiquesResolved = len(d.Changes[types.SectionAdversarialCritique].Resolved)
	an := d.Changes[types.SectionAnomalyRegister]
	d.Summary.AnomaliesResolved = len(an.Promoted) + len(an.Dismissed)

	d.Summary.ProgressScore = progress(d.Summary)
	return d
}

func singletonSlice(it *types.Item) []*types.Item {
	if it == nil {
		return nil
	}
	return []*types.Item{it}
}

func diffSection(s types.Section, before, after []*types.Item) *SectionDiff {
	sd := &SectionDiff{
		Added:  []AddedItem{},
		Killed: []KilledItem{},
		Edited: []EditedItem{},
	}

	prev := make(map[string]*types.Item, len(before))
	for _, it := range before {
		prev[it.ID] = it
	}
	next := make(map[string]*types.Item, len(after))
	for _, it := range after {
		next[it.ID] = it
	}

	for _, it := range after {
		if _, ok := prev[it.ID]; !ok && !it.Killed {
			sd.Added = append(sd.Added, AddedItem{ID: it.ID, Name: displayName(it)})
		}
	}

	for _, old := range before {
		if old.Killed {
			continue
		}
		cur, ok := next[old.ID]
		switch {
		case !ok:
			// Removed without a kill record: reported like a kill.
			sd.Killed = append(sd.Killed, KilledItem{ID: old.ID, Reason: "Removed from artifact"})
		case cur.Killed:
			sd.Killed = append(sd.Killed, KilledItem{ID: old.ID, Reason: cur.KillReason, By: cur.KilledBy})
		default:
			if changes := fieldChanges(old, cur); len(changes) > 0 {
				sd.Edited = append(sd.Edited, EditedItem{ID: old.ID, Changes: changes})
			}
		}
	}

	return sd
}

// fieldChanges compares the non-system fields of two versions of one
// item, truncating long string values for readability.
func fieldChanges(old, cur *types.Item) []FieldChange {
	keys := map[string]bool{}
	for k := range old.Fields {
		keys[k] = true
	}
	for k := range cur.Fields {
		keys[k] = true
	}

	var changes []FieldChange
	for _, k := range sortedKeys(keys) {
		ov, nv := old.Fields[k], cur.Fields[k]
		if equalValues(ov, nv) {
			continue
		}
		changes = append(changes, FieldChange{
			Field:    k,
			OldValue: truncate(ov),
			NewValue: truncate(nv),
		})
	}
	return changes
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalValues(a, b any) bool {
	ja, aerr := json.Marshal(a)
	jb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return string(ja) == string(jb)
}

func truncate(v any) any {
	s, ok := v.(string)
	if !ok || len(s) <= truncateLen {
		return v
	}
	cut := truncateLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func displayName(it *types.Item) string {
	if name := it.Str("name"); name != "" {
		return name
	}
	return it.Str("statement")
}

// classifySection fills in the section-specific change semantics.
func classifySection(s types.Section, sd *SectionDiff, before, after []*types.Item) {
	switch s {
	case types.SectionHypothesisSlate:
		net := len(sd.Added) - len(sd.Killed)
		sd.NetChange = &net

	case types.SectionDiscriminativeTests:
		next := make(map[string]*types.Item, len(after))
		for _, it := range after {
			next[it.ID] = it
		}
		for i := range sd.Added {
			if it := next[sd.Added[i].ID]; it != nil {
				sd.Added[i].Targets = splitTargets(it.Str("discriminates"))
			}
		}

	case types.SectionAdversarialCritique:
		prev := make(map[string]*types.Item, len(before))
		for _, it := range before {
			prev[it.ID] = it
		}
		for _, it := range after {
			if !isResolvedStatus(it.Str("status")) {
				continue
			}
			if old, ok := prev[it.ID]; ok && isResolvedStatus(old.Str("status")) {
				continue
			}
			sd.Resolved = append(sd.Resolved, it.ID)
		}

	case types.SectionAnomalyRegister:
		prev := make(map[string]*types.Item, len(before))
		for _, it := range before {
			prev[it.ID] = it
		}
		for _, it := range after {
			if !strings.EqualFold(it.Str("status"), "resolved") {
				continue
			}
			if old, ok := prev[it.ID]; ok && strings.EqualFold(old.Str("status"), "resolved") {
				continue
			}
			resolution := it.Str("resolution")
			switch {
			case hypothesisIDRe.MatchString(resolution):
				sd.Promoted = append(sd.Promoted, Promotion{ID: it.ID, To: hypothesisIDRe.FindString(resolution)})
			case strings.Contains(strings.ToLower(resolution), "promoted"):
				sd.Promoted = append(sd.Promoted, Promotion{ID: it.ID, To: "hypothesis"})
			default:
				sd.Dismissed = append(sd.Dismissed, it.ID)
			}
		}
	}
}

func splitTargets(discriminates string) []string {
	if discriminates == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(discriminates, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	}) {
		part = strings.TrimSpace(part)
		if part != "" && !strings.EqualFold(part, "vs") && !strings.EqualFold(part, "vs.") {
			out = append(out, part)
		}
	}
	return out
}

func isResolvedStatus(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, term := range resolvedTerms {
		if status == term {
			return true
		}
	}
	return false
}

// progress derives the coarse score from the summary counts. Kills
// count as substantive only when a successor hypothesis arrived in the
// same diff.
func progress(s Summary) Progress {
	if s.TotalAdded == 0 && s.TotalKilled == 0 && s.TotalEdited == 0 {
		return ProgressNone
	}

	killsWithSuccessor := 0
	if s.HypothesesAdded > 0 {
		killsWithSuccessor = s.HypothesesKilled
	}

	points := s.TotalAdded + 2*killsWithSuccessor + 2*s.TestsAdded + s.CritiquesResolved
	switch {
	case points > 5:
		return ProgressExcellent
	case points > 2:
		return ProgressGood
	default:
		return ProgressMinimal
	}
}
