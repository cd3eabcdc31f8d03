// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

const (
	t0 = "2026-02-01T10:00:00Z"
	t1 = "2026-02-01T10:01:00Z"
	t2 = "2026-02-01T10:02:00Z"
	t3 = "2026-02-01T10:03:00Z"
)

func newBase() *types.Artifact {
	return types.New("sess-1", t0)
}

func addDelta(section types.Section, ts string, payload map[string]any) types.Delta {
	return types.Delta{
		Operation: types.OpAdd,
		Section:   section,
		Payload:   payload,
		Timestamp: ts,
		Agent:     "agent-a",
	}
}

func hasIssue(issues []Issue, code string) bool {
	for _, is := range issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

func TestMergeAddMintsIDAndBumpsVersion(t *testing.T) {
	base := newBase()
	res := Merge(base, []types.Delta{
		{Operation: types.OpAdd, Section: types.SectionHypothesisSlate,
			Payload: map[string]any{"name": "Tidal heating", "claim": "C"}},
	}, "agent-a", t1)

	if !res.Success || res.AppliedCount != 1 {
		t.Fatalf("Success=%v AppliedCount=%d, want true 1", res.Success, res.AppliedCount)
	}
	hyps := res.Artifact.Sections.HypothesisSlate
	if len(hyps) != 1 || hyps[0].ID != "H1" {
		t.Fatalf("hypotheses = %+v, want single H1", hyps)
	}
	if res.Artifact.Metadata.Version != 1 {
		t.Errorf("Version = %d, want 1", res.Artifact.Metadata.Version)
	}
	if res.Artifact.Metadata.UpdatedAt != t1 {
		t.Errorf("UpdatedAt = %s, want %s", res.Artifact.Metadata.UpdatedAt, t1)
	}
	if base.Metadata.Version != 0 || len(base.Sections.HypothesisSlate) != 0 {
		t.Error("base artifact was mutated")
	}
}

func TestMergeKillThenEditWarnsAndSucceeds(t *testing.T) {
	base := newBase()
	res := Merge(base, []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "A"}),
	}, "agent-a", t1)
	doc := res.Artifact

	res = MergeMulti(doc, []types.Delta{
		{Operation: types.OpKill, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"reason": "falsified"}, Timestamp: t2, Agent: "agent-b"},
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"claim": "revised"}, Timestamp: t3, Agent: "agent-a"},
	})

	if !res.Success {
		t.Fatalf("edit of a killed item must not fail the merge: %+v", res.Errors)
	}
	if res.AppliedCount != 1 || res.SkippedCount != 1 {
		t.Errorf("applied/skipped = %d/%d, want 1/1", res.AppliedCount, res.SkippedCount)
	}
	if !hasIssue(res.Warnings, CodeTargetKilled) {
		t.Errorf("warnings = %+v, want %s", res.Warnings, CodeTargetKilled)
	}
	h := res.Artifact.Find(types.SectionHypothesisSlate, "H1")
	if h.Str("claim") == "revised" {
		t.Error("edit leaked onto a killed item")
	}
}

func TestMergeKillIdempotent(t *testing.T) {
	base := newBase()
	doc := MergeMulti(base, []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "A"}),
	}).Artifact

	kill := func(ts, agent, reason string) types.Delta {
		return types.Delta{Operation: types.OpKill, Section: types.SectionHypothesisSlate,
			TargetID: "H1", Payload: map[string]any{"reason": reason}, Timestamp: ts, Agent: agent}
	}

	res := MergeMulti(doc, []types.Delta{kill(t2, "agent-b", "falsified")})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	again := MergeMulti(res.Artifact, []types.Delta{kill(t3, "agent-c", "other reason")})
	if !again.Success {
		t.Fatalf("second kill must succeed: %+v", again.Errors)
	}
	if again.AppliedCount != 0 || again.SkippedCount != 1 {
		t.Errorf("second kill applied/skipped = %d/%d, want 0/1",
			again.AppliedCount, again.SkippedCount)
	}
	h := again.Artifact.Find(types.SectionHypothesisSlate, "H1")
	if h.KilledBy != "agent-b" || h.KilledAt != t2 || h.KillReason != "falsified" {
		t.Errorf("original kill metadata was overwritten: %+v", h)
	}
}

func TestMergeOrderIndependence(t *testing.T) {
	deltas := []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionResearchThread,
			Payload: map[string]any{"statement": "S"}, Timestamp: t1, Agent: "a"},
		addDelta(types.SectionHypothesisSlate, t2, map[string]any{"name": "A"}),
		addDelta(types.SectionHypothesisSlate, t3, map[string]any{"name": "B"}),
	}
	perms := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}

	var first *types.Artifact
	for _, p := range perms {
		shuffled := make([]types.Delta, len(p))
		for i, j := range p {
			shuffled[i] = deltas[j]
		}
		res := MergeMulti(newBase(), shuffled)
		if !res.Success {
			t.Fatalf("perm %v failed: %+v", p, res.Errors)
		}
		if first == nil {
			first = res.Artifact
			continue
		}
		if diff := cmp.Diff(first, res.Artifact); diff != "" {
			t.Errorf("perm %v produced a different artifact (-first +got):\n%s", p, diff)
		}
	}
}

func TestMergeIDsMonotonicAcrossKills(t *testing.T) {
	doc := newBase()
	for i, step := range []struct {
		delta types.Delta
	}{
		{addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "A"})},
		{addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "B"})},
		{types.Delta{Operation: types.OpKill, Section: types.SectionHypothesisSlate,
			TargetID: "H1", Payload: map[string]any{"reason": "r"}, Timestamp: t2, Agent: "a"}},
		{addDelta(types.SectionHypothesisSlate, t3, map[string]any{"name": "C"})},
	} {
		res := MergeMulti(doc, []types.Delta{step.delta})
		if !res.Success {
			t.Fatalf("step %d: %+v", i, res.Errors)
		}
		doc = res.Artifact
	}

	got := make([]string, 0, 3)
	for _, h := range doc.Sections.HypothesisSlate {
		got = append(got, h.ID)
	}
	want := []string{"H1", "H2", "H3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids after interleaved kill (-want +got):\n%s", diff)
	}
}

func TestMergeHypothesisCapacity(t *testing.T) {
	deltas := make([]types.Delta, 0, 7)
	for i := 0; i < 7; i++ {
		deltas = append(deltas, addDelta(types.SectionHypothesisSlate,
			fmt.Sprintf("2026-02-01T10:%02d:00Z", i+1),
			map[string]any{"name": fmt.Sprintf("hyp %d", i+1)}))
	}

	res := MergeMulti(newBase(), deltas)
	if res.Success {
		t.Fatal("seventh hypothesis must fail the merge")
	}
	if res.AppliedCount != types.MaxActiveHypotheses {
		t.Errorf("AppliedCount = %d, want %d", res.AppliedCount, types.MaxActiveHypotheses)
	}
	if !hasIssue(res.Errors, CodeSectionAtCapacity) {
		t.Errorf("errors = %+v, want %s", res.Errors, CodeSectionAtCapacity)
	}
	if n := len(res.Artifact.Sections.HypothesisSlate); n != types.MaxActiveHypotheses {
		t.Errorf("slate holds %d items, want %d", n, types.MaxActiveHypotheses)
	}
}

func TestMergeCapacityFreedByKill(t *testing.T) {
	doc := newBase()
	for i := 0; i < 6; i++ {
		doc = MergeMulti(doc, []types.Delta{
			addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "x"}),
		}).Artifact
	}
	res := MergeMulti(doc, []types.Delta{
		{Operation: types.OpKill, Section: types.SectionHypothesisSlate, TargetID: "H3",
			Payload: map[string]any{"reason": "r"}, Timestamp: t2, Agent: "a"},
		addDelta(types.SectionHypothesisSlate, t3, map[string]any{"name": "seventh"}),
	})
	if !res.Success {
		t.Fatalf("kill should free a slot: %+v", res.Errors)
	}
	if got := res.Artifact.Sections.HypothesisSlate[6].ID; got != "H7" {
		t.Errorf("new id = %s, want H7", got)
	}
}

func TestMergeTestOrdering(t *testing.T) {
	score := func(d, f, c, s int) map[string]any {
		return map[string]any{
			"discrimination": d, "feasibility": f, "cost": c, "speed": s,
		}
	}
	doc := newBase()
	for _, sc := range []map[string]any{
		score(1, 1, 1, 1), // total 4
		score(3, 3, 3, 3), // total 12
		score(2, 2, 2, 1), // total 7
	} {
		res := MergeMulti(doc, []types.Delta{
			addDelta(types.SectionDiscriminativeTests, t1, map[string]any{
				"name": "t", "score": sc,
			}),
		})
		if !res.Success {
			t.Fatal(res.Errors)
		}
		doc = res.Artifact
	}

	var totals []float64
	for _, wt := range doc.Sections.DiscriminativeTests {
		totals = append(totals, wt.TotalScore())
	}
	want := []float64{12, 7, 4}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("test order (-want +got):\n%s", diff)
	}

	// Editing a score re-sorts.
	first := doc.Sections.DiscriminativeTests[2].ID
	res := MergeMulti(doc, []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionDiscriminativeTests, TargetID: first,
			Payload: map[string]any{"score": score(3, 3, 3, 3)}, Timestamp: t2, Agent: "a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	if got := res.Artifact.Sections.DiscriminativeTests[1].ID; got != first {
		t.Errorf("edited test should move to the tie slot after the earlier 12, got order leader %s", got)
	}
}

func TestMergeListUnionAndReplace(t *testing.T) {
	doc := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{
			"name":    "A",
			"anchors": []any{"§1", "§2"},
		}),
	}).Artifact

	res := MergeMulti(doc, []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload:   map[string]any{"anchors": []any{"§2", "§5"}},
			Timestamp: t2, Agent: "a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	h := res.Artifact.Find(types.SectionHypothesisSlate, "H1")
	if diff := cmp.Diff([]string{"§1", "§2", "§5"}, h.StringList("anchors")); diff != "" {
		t.Errorf("union (-want +got):\n%s", diff)
	}

	res = MergeMulti(res.Artifact, []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload:   map[string]any{"anchors": []any{"§9"}, "replace": true},
			Timestamp: t3, Agent: "a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	h = res.Artifact.Find(types.SectionHypothesisSlate, "H1")
	if diff := cmp.Diff([]string{"§9"}, h.StringList("anchors")); diff != "" {
		t.Errorf("replace (-want +got):\n%s", diff)
	}
	if _, ok := h.Fields["replace"]; ok {
		t.Error("replace flag must be stripped from the stored item")
	}
}

func TestMergeSanitizePayload(t *testing.T) {
	res := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{
			"name":      "A",
			"id":        "H99",
			"killed":    true,
			"__proto__": map[string]any{"polluted": true},
		}),
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	if !hasIssue(res.Warnings, CodeForbiddenKey) {
		t.Errorf("warnings = %+v, want %s", res.Warnings, CodeForbiddenKey)
	}
	h := res.Artifact.Sections.HypothesisSlate[0]
	if h.ID != "H1" || h.Killed {
		t.Errorf("system fields leaked: %+v", h)
	}
	if _, ok := h.Fields["__proto__"]; ok {
		t.Error("forbidden key stored")
	}
	if _, ok := h.Fields["id"]; ok {
		t.Error("system field stored as payload data")
	}
}

func TestMergeSingleton(t *testing.T) {
	res := MergeMulti(newBase(), []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionResearchThread,
			Payload: map[string]any{"statement": "Why is the flux high?"},
			Timestamp: t1, Agent: "a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	rt := res.Artifact.Sections.ResearchThread
	if rt == nil || rt.ID != types.SingletonID {
		t.Fatalf("research thread = %+v", rt)
	}
	if rt.Str("statement") != "Why is the flux high?" {
		t.Errorf("statement = %q", rt.Str("statement"))
	}
	// Required fields are defaulted on creation.
	for _, f := range []string{"context", "scope"} {
		if _, ok := rt.Fields[f]; !ok {
			t.Errorf("field %s not defaulted", f)
		}
	}

	bad := MergeMulti(res.Artifact, []types.Delta{
		{Operation: types.OpKill, Section: types.SectionResearchThread, TargetID: "RT",
			Payload: map[string]any{"reason": "r"}, Timestamp: t2, Agent: "a"},
	})
	if bad.Success || !hasIssue(bad.Errors, CodeSingletonMisuse) {
		t.Errorf("KILL on the research thread must fail with %s: %+v",
			CodeSingletonMisuse, bad.Errors)
	}
}

func TestMergeTargetMissing(t *testing.T) {
	res := MergeMulti(newBase(), []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H5",
			Payload: map[string]any{"claim": "c"}, Timestamp: t1, Agent: "a"},
	})
	if res.Success || !hasIssue(res.Errors, CodeTargetMissing) {
		t.Errorf("want %s error, got %+v", CodeTargetMissing, res.Errors)
	}
	if res.Artifact.Metadata.Version != 1 {
		t.Errorf("version still advances on a failed merge report, got %d",
			res.Artifact.Metadata.Version)
	}
}

func TestMergeStopsAtFirstError(t *testing.T) {
	res := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "A"}),
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H9",
			Payload: map[string]any{}, Timestamp: t2, Agent: "a"},
		addDelta(types.SectionHypothesisSlate, t3, map[string]any{"name": "B"}),
	})
	if res.Success {
		t.Fatal("merge must fail")
	}
	if res.AppliedCount != 1 {
		t.Errorf("AppliedCount = %d, want 1 (deltas after the failure are not processed)",
			res.AppliedCount)
	}
	if len(res.Artifact.Sections.HypothesisSlate) != 1 {
		t.Errorf("slate = %+v, want only the pre-failure add",
			res.Artifact.Sections.HypothesisSlate)
	}
}

func TestMergeKillWarnsOnLostMarkers(t *testing.T) {
	doc := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{
			"name": "neither", "third_alternative": true,
		}),
	}).Artifact

	res := MergeMulti(doc, []types.Delta{
		{Operation: types.OpKill, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"reason": "r"}, Timestamp: t2, Agent: "a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	if !hasIssue(res.Warnings, CodeNoThirdAlternative) {
		t.Errorf("warnings = %+v, want %s", res.Warnings, CodeNoThirdAlternative)
	}
}

func TestMergeContributors(t *testing.T) {
	res := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{"name": "A"}),
		{Operation: types.OpEdit, Section: types.SectionResearchThread,
			Payload: map[string]any{"statement": "s"}, Timestamp: t2, Agent: "agent-b"},
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"claim": "c"}, Timestamp: t3, Agent: "agent-a"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	cs := res.Artifact.Metadata.Contributors
	if len(cs) != 2 {
		t.Fatalf("contributors = %+v, want 2", cs)
	}
	if cs[0].Agent != "agent-a" || cs[1].Agent != "agent-b" {
		t.Errorf("contributor order = [%s %s], want first-applied order [agent-a agent-b]",
			cs[0].Agent, cs[1].Agent)
	}
	if cs[0].LastContribution != t3 {
		t.Errorf("agent-a LastContribution = %s, want %s", cs[0].LastContribution, t3)
	}
}

func TestMergeScalarLastWriteWins(t *testing.T) {
	doc := MergeMulti(newBase(), []types.Delta{
		addDelta(types.SectionHypothesisSlate, t1, map[string]any{"claim": "old"}),
	}).Artifact

	// Supplied out of order; the later timestamp must win.
	res := MergeMulti(doc, []types.Delta{
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"claim": "newest"}, Timestamp: t3, Agent: "a"},
		{Operation: types.OpEdit, Section: types.SectionHypothesisSlate, TargetID: "H1",
			Payload: map[string]any{"claim": "middle"}, Timestamp: t2, Agent: "b"},
	})
	if !res.Success {
		t.Fatal(res.Errors)
	}
	if got := res.Artifact.Find(types.SectionHypothesisSlate, "H1").Str("claim"); got != "newest" {
		t.Errorf("claim = %q, want last-write-wins %q", got, "newest")
	}
}
