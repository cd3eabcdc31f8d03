// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge deterministically reduces a base artifact plus a set of
// validated deltas into a new artifact. The base is never mutated: the
// engine works on a deep copy, so the caller's snapshot stays valid for
// diffing against the result.
//
// Determinism comes from one place only: deltas are stable-sorted by
// their timestamp string before application, so the same delta multiset
// reduces to the same document regardless of arrival order.
package merge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Issue codes reported by the engine.
const (
	CodeForbiddenKey       = "FORBIDDEN_KEY"
	CodeTargetKilled       = "TARGET_KILLED"
	CodeTargetMissing      = "TARGET_MISSING"
	CodeSectionAtCapacity  = "SECTION_AT_CAPACITY"
	CodeSingletonMisuse    = "SINGLETON_MISUSE"
	CodeInvalidDelta       = "INVALID_DELTA"
	CodeNoThirdAlternative = "NO_THIRD_ALTERNATIVE"
	CodeNoScaleCheck       = "NO_SCALE_CHECK"
)

// Issue is one warning or hard error raised while applying deltas.
type Issue struct {
	// Code is the machine-readable issue code.
	Code string `json:"code"`

	// Message is the human-readable detail.
	Message string `json:"message"`

	// DeltaIndex is the position of the offending delta in timestamp
	// order, or -1 for artifact-level advisories.
	DeltaIndex int `json:"delta_index"`
}

// Result reports a merge outcome. On failure the caller must not adopt
// Artifact; it is still populated so the failure can be diagnosed.
// Warnings never make a merge fail.
type Result struct {
	// Success is false when any delta produced a hard error.
	Success bool `json:"success"`

	// Artifact is the merged document.
	Artifact *types.Artifact `json:"artifact"`

	// AppliedCount is the number of deltas applied before any failure.
	AppliedCount int `json:"applied_count"`

	// SkippedCount is the number of deltas skipped as no-ops or with a
	// warning.
	SkippedCount int `json:"skipped_count"`

	// Warnings are advisory issues: forbidden keys dropped, killed
	// targets skipped, missing methodology markers after a kill.
	Warnings []Issue `json:"warnings,omitempty"`

	// Errors are the hard errors that made the merge fail.
	Errors []Issue `json:"errors,omitempty"`
}

// Merge applies deltas to base on behalf of a single agent. Every delta
// not already stamped receives the shared agent identity and timestamp.
func Merge(base *types.Artifact, deltas []types.Delta, agent, timestamp string) Result {
	stamped := make([]types.Delta, len(deltas))
	copy(stamped, deltas)
	for i := range stamped {
		if stamped[i].Agent == "" {
			stamped[i].Agent = agent
		}
		if stamped[i].Timestamp == "" {
			stamped[i].Timestamp = timestamp
		}
	}
	return MergeMulti(base, stamped)
}

// MergeMulti applies deltas that already carry individual (timestamp,
// agent) pairs, reconciling contributions from several actors at once.
// Deltas missing a stamp receive the current time.
func MergeMulti(base *types.Artifact, deltas []types.Delta) Result {
	now := types.Now()
	ordered := make([]types.Delta, len(deltas))
	copy(ordered, deltas)
	for i := range ordered {
		if ordered[i].Timestamp == "" {
			ordered[i].Timestamp = now
		}
	}

	// Sole source of determinism: stable sort on the timestamp string.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	doc := base.DeepCopy()
	res := Result{Success: true, Artifact: doc}

	// Agents of applied deltas, with their latest applied timestamp,
	// in order of first applied delta.
	applied := map[string]string{}
	var agentOrder []string

	for i := range ordered {
		d := &ordered[i]
		outcome := applyDelta(doc, d, i)
		res.Warnings = append(res.Warnings, outcome.warnings...)
		if outcome.err != nil {
			res.Errors = append(res.Errors, *outcome.err)
			res.Success = false
			// A hard error aborts adoption; remaining deltas are not
			// processed so the report shows exactly what succeeded
			// before the failure.
			break
		}
		if outcome.applied {
			res.AppliedCount++
			if d.Agent != "" {
				if _, seen := applied[d.Agent]; !seen {
					agentOrder = append(agentOrder, d.Agent)
				}
				if d.Timestamp > applied[d.Agent] {
					applied[d.Agent] = d.Timestamp
				}
			}
			if d.Timestamp > doc.Metadata.UpdatedAt {
				doc.Metadata.UpdatedAt = d.Timestamp
			}
		} else {
			res.SkippedCount++
		}
	}

	doc.Metadata.Version++
	upsertContributors(doc, agentOrder, applied)
	return res
}

type outcome struct {
	applied  bool
	warnings []Issue
	err      *Issue
}

func errOutcome(code, format string, args ...any) outcome {
	return outcome{err: &Issue{Code: code, Message: fmt.Sprintf(format, args...)}}
}

func applyDelta(doc *types.Artifact, d *types.Delta, index int) outcome {
	var out outcome
	if !d.Section.Valid() {
		out = errOutcome(CodeInvalidDelta, "unknown section %q", d.Section)
	} else if d.Section.Singleton() {
		out = applySingleton(doc, d)
	} else {
		switch d.Operation {
		case types.OpAdd:
			out = applyAdd(doc, d)
		case types.OpEdit:
			out = applyEdit(doc, d)
		case types.OpKill:
			out = applyKill(doc, d)
		default:
			out = errOutcome(CodeInvalidDelta, "unknown operation %q", d.Operation)
		}
	}
	for i := range out.warnings {
		out.warnings[i].DeltaIndex = index
	}
	if out.err != nil {
		out.err.DeltaIndex = index
	}
	return out
}

// applySingleton handles the research thread, which only EDIT may
// touch: create-or-update semantics, with the three required text
// fields defaulted on creation.
func applySingleton(doc *types.Artifact, d *types.Delta) outcome {
	if d.Operation != types.OpEdit {
		return errOutcome(CodeSingletonMisuse,
			"%s is not allowed on %s: use EDIT", d.Operation, d.Section)
	}
	if d.TargetID != "" && d.TargetID != types.SingletonID {
		return errOutcome(CodeSingletonMisuse,
			"target_id for %s must be %q or omitted, got %q",
			d.Section, types.SingletonID, d.TargetID)
	}

	payload, replace, warnings := sanitize(d.Payload)

	rt := doc.Sections.ResearchThread
	if rt == nil {
		rt = types.NewItem(types.SingletonID)
		for _, f := range []string{"statement", "context", "scope"} {
			rt.Fields[f] = ""
		}
		doc.Sections.ResearchThread = rt
	}
	applyPayload(rt, payload, replace)
	return outcome{applied: true, warnings: warnings}
}

func applyAdd(doc *types.Artifact, d *types.Delta) outcome {
	if limit := d.Section.Capacity(); limit > 0 && doc.ActiveCount(d.Section) >= limit {
		return errOutcome(CodeSectionAtCapacity,
			"%s already holds %d active items", d.Section, limit)
	}

	payload, _, warnings := sanitize(d.Payload)

	item := types.NewItem(mintID(doc, d.Section))
	for k, v := range payload {
		item.Fields[k] = v
	}
	doc.SetCollection(d.Section, append(doc.Collection(d.Section), item))

	if d.Section == types.SectionDiscriminativeTests {
		sortTests(doc)
	}
	return outcome{applied: true, warnings: warnings}
}

func applyEdit(doc *types.Artifact, d *types.Delta) outcome {
	if d.TargetID == "" {
		return errOutcome(CodeTargetMissing, "EDIT on %s requires a target_id", d.Section)
	}
	item := doc.Find(d.Section, d.TargetID)
	if item == nil {
		return errOutcome(CodeTargetMissing, "%s has no item %s", d.Section, d.TargetID)
	}
	if item.Killed {
		// Killed is terminal: the edit is skipped, not an error.
		return outcome{warnings: []Issue{{
			Code:    CodeTargetKilled,
			Message: fmt.Sprintf("%s is killed; edit skipped", d.TargetID),
		}}}
	}

	payload, replace, warnings := sanitize(d.Payload)
	_, scoreChanged := payload["score"]
	applyPayload(item, payload, replace)

	if d.Section == types.SectionDiscriminativeTests && scoreChanged {
		sortTests(doc)
	}
	return outcome{applied: true, warnings: warnings}
}

func applyKill(doc *types.Artifact, d *types.Delta) outcome {
	if d.TargetID == "" {
		return errOutcome(CodeTargetMissing, "KILL on %s requires a target_id", d.Section)
	}
	item := doc.Find(d.Section, d.TargetID)
	if item == nil {
		return errOutcome(CodeTargetMissing, "%s has no item %s", d.Section, d.TargetID)
	}
	if item.Killed {
		// Idempotent: the original kill metadata is preserved.
		return outcome{}
	}

	item.Killed = true
	item.KilledBy = d.Agent
	item.KilledAt = d.Timestamp
	item.KillReason, _ = d.Payload["reason"].(string)

	var warnings []Issue
	switch d.Section {
	case types.SectionHypothesisSlate:
		if !anyActiveFlag(doc, d.Section, "third_alternative") {
			warnings = append(warnings, Issue{
				Code:    CodeNoThirdAlternative,
				Message: "no active hypothesis is flagged as the third alternative",
			})
		}
	case types.SectionAssumptionLedger:
		if !anyActiveFlag(doc, d.Section, "scale_check") {
			warnings = append(warnings, Issue{
				Code:    CodeNoScaleCheck,
				Message: "no active assumption is flagged as a scale check",
			})
		}
	}
	return outcome{applied: true, warnings: warnings}
}

// sanitize builds a clean copy of a delta payload: system-owned fields
// are dropped silently so a contributor cannot forge ids or kill
// metadata, denylisted keys are dropped with a warning, and the
// replace flag is extracted and stripped. Values are deep-copied so the
// stored item never aliases the caller's payload.
func sanitize(payload map[string]any) (map[string]any, bool, []Issue) {
	clean := make(map[string]any, len(payload))
	var warnings []Issue
	replace := false
	for k, v := range payload {
		switch {
		case k == "replace":
			replace, _ = v.(bool)
		case types.IsSystemField(k):
			// Silently dropped.
		case types.IsForbiddenKey(k):
			warnings = append(warnings, Issue{
				Code:    CodeForbiddenKey,
				Message: fmt.Sprintf("payload key %q dropped", k),
			})
		default:
			clean[k] = types.CopyValue(v)
		}
	}
	return clean, replace, warnings
}

// applyPayload merges sanitized payload fields onto an item. A field
// whose current and incoming values are both ordered string lists is
// set-unioned, preserving existing order and appending unseen incoming
// values; replace switches those fields to wholesale overwrite. All
// other fields are plain overwrites.
func applyPayload(item *types.Item, payload map[string]any, replace bool) {
	for k, v := range payload {
		if !replace {
			cur, curOK := types.AsStringList(item.Fields[k])
			inc, incOK := types.AsStringList(v)
			if curOK && incOK {
				item.Fields[k] = unionStrings(cur, inc)
				continue
			}
		}
		item.Fields[k] = v
	}
}

func unionStrings(cur, inc []string) []string {
	seen := make(map[string]bool, len(cur))
	out := append([]string(nil), cur...)
	for _, s := range cur {
		seen[s] = true
	}
	for _, s := range inc {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// mintID assigns the next sequential id for a section: the fixed prefix
// plus one past the highest existing numeric suffix, killed items
// included, so ids are never reused.
func mintID(doc *types.Artifact, s types.Section) string {
	prefix := s.Prefix()
	max := 0
	for _, it := range doc.Collection(s) {
		n, err := strconv.Atoi(strings.TrimPrefix(it.ID, prefix))
		if err == nil && n > max {
			max = n
		}
	}
	return prefix + strconv.Itoa(max+1)
}

// sortTests reorders the discriminative tests by descending total
// score. The sort is stable: ties keep their prior relative order.
func sortTests(doc *types.Artifact) {
	tests := doc.Sections.DiscriminativeTests
	sort.SliceStable(tests, func(i, j int) bool {
		return tests[i].TotalScore() > tests[j].TotalScore()
	})
}

func anyActiveFlag(doc *types.Artifact, s types.Section, flag string) bool {
	for _, it := range doc.Active(s) {
		if it.Bool(flag) {
			return true
		}
	}
	return false
}

// upsertContributors records each acting agent: first-seen agents are
// appended in order of first applied delta, repeat contributors keep
// their slot with the later of the old and new contribution timestamps.
func upsertContributors(doc *types.Artifact, agents []string, applied map[string]string) {
	for _, agent := range agents {
		ts := applied[agent]
		found := false
		for i := range doc.Metadata.Contributors {
			if doc.Metadata.Contributors[i].Agent == agent {
				if ts > doc.Metadata.Contributors[i].LastContribution {
					doc.Metadata.Contributors[i].LastContribution = ts
				}
				found = true
				break
			}
		}
		if !found {
			doc.Metadata.Contributors = append(doc.Metadata.Contributors, types.Contributor{
				Agent:            agent,
				LastContribution: ts,
			})
		}
	}
}
