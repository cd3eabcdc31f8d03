// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"
)

func TestSectionProperties(t *testing.T) {
	tests := []struct {
		section   Section
		prefix    string
		singleton bool
		capacity  int
	}{
		{SectionResearchThread, "RT", true, 0},
		{SectionHypothesisSlate, "H", false, MaxActiveHypotheses},
		{SectionPredictionsTable, "P", false, 0},
		{SectionDiscriminativeTests, "T", false, 0},
		{SectionAssumptionLedger, "A", false, 0},
		{SectionAnomalyRegister, "X", false, 0},
		{SectionAdversarialCritique, "C", false, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			if !tt.section.Valid() {
				t.Error("section must be valid")
			}
			if got := tt.section.Prefix(); got != tt.prefix {
				t.Errorf("Prefix = %q, want %q", got, tt.prefix)
			}
			if got := tt.section.Singleton(); got != tt.singleton {
				t.Errorf("Singleton = %v, want %v", got, tt.singleton)
			}
			if got := tt.section.Capacity(); got != tt.capacity {
				t.Errorf("Capacity = %d, want %d", got, tt.capacity)
			}
		})
	}

	if Section("conclusions").Valid() {
		t.Error("unknown section must be invalid")
	}
}

func TestStatusValid(t *testing.T) {
	for _, st := range []Status{StatusDraft, StatusActive, StatusClosed} {
		if !st.Valid() {
			t.Errorf("%s must be valid", st)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status must be invalid")
	}
}

func TestNewArtifact(t *testing.T) {
	a := New("sess-1", "2026-02-01T10:00:00Z")
	if a.Metadata.SessionID != "sess-1" || a.Metadata.Version != 0 {
		t.Errorf("metadata = %+v", a.Metadata)
	}
	if a.Metadata.CreatedAt != a.Metadata.UpdatedAt {
		t.Error("created_at and updated_at must start equal")
	}
	if a.Metadata.Status != StatusDraft {
		t.Errorf("Status = %s, want %s", a.Metadata.Status, StatusDraft)
	}
	if a.Sections.ResearchThread != nil {
		t.Error("new artifact must have no research thread")
	}
	for _, s := range AllSections {
		if s.Singleton() {
			continue
		}
		if len(a.Collection(s)) != 0 {
			t.Errorf("%s not empty on a new artifact", s)
		}
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	a := New("sess-1", Now())
	for _, s := range AllSections {
		if s.Singleton() {
			continue
		}
		a.SetCollection(s, []*Item{NewItem(s.Prefix() + "1")})
		items := a.Collection(s)
		if len(items) != 1 || items[0].ID != s.Prefix()+"1" {
			t.Errorf("%s round-trip = %+v", s, items)
		}
	}
	if a.Collection(SectionResearchThread) != nil {
		t.Error("Collection on the singleton must be nil")
	}
}

func TestFindAndActive(t *testing.T) {
	a := New("sess-1", Now())
	h1 := NewItem("H1")
	h2 := NewItem("H2")
	h2.Killed = true
	a.Sections.HypothesisSlate = []*Item{h1, h2}

	if a.Find(SectionHypothesisSlate, "H2") == nil {
		t.Error("killed items must still be findable")
	}
	if a.Find(SectionHypothesisSlate, "H9") != nil {
		t.Error("Find on a missing id must be nil")
	}
	if got := a.ActiveCount(SectionHypothesisSlate); got != 1 {
		t.Errorf("ActiveCount = %d, want 1", got)
	}
	active := a.Active(SectionHypothesisSlate)
	if len(active) != 1 || active[0].ID != "H1" {
		t.Errorf("Active = %+v", active)
	}
}

func TestArtifactDeepCopy(t *testing.T) {
	a := New("sess-1", Now())
	a.Metadata.Contributors = []Contributor{{Agent: "agent-a"}}
	rt := NewItem(SingletonID)
	rt.Fields["statement"] = "original"
	a.Sections.ResearchThread = rt
	h := NewItem("H1")
	h.Fields["anchors"] = []any{"§1"}
	a.Sections.HypothesisSlate = []*Item{h}

	cp := a.DeepCopy()
	cp.Metadata.Contributors[0].Agent = "other"
	cp.Sections.ResearchThread.Fields["statement"] = "mutated"
	cp.Sections.HypothesisSlate[0].Fields["anchors"].([]any)[0] = "§9"
	cp.Sections.HypothesisSlate = append(cp.Sections.HypothesisSlate, NewItem("H2"))

	if a.Metadata.Contributors[0].Agent != "agent-a" {
		t.Error("contributors aliased")
	}
	if a.Sections.ResearchThread.Str("statement") != "original" {
		t.Error("research thread aliased")
	}
	if a.Sections.HypothesisSlate[0].Fields["anchors"].([]any)[0] != "§1" {
		t.Error("item fields aliased")
	}
	if len(a.Sections.HypothesisSlate) != 1 {
		t.Error("collection slice aliased")
	}
}

func TestTimestampFormat(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := Timestamp(time.Date(2026, 2, 1, 15, 0, 0, 0, loc))
	if ts != "2026-02-01T10:00:00Z" {
		t.Errorf("Timestamp = %s, want UTC normalization", ts)
	}
	if _, err := time.Parse(time.RFC3339, Now()); err != nil {
		t.Errorf("Now() not RFC 3339: %v", err)
	}
}
