// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.SessionConfig{SessionsDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestInit(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Init("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Metadata.SessionID != "sess-1" || a.Metadata.Version != 0 {
		t.Errorf("metadata = %+v, want sess-1 version 0", a.Metadata)
	}
	if a.Metadata.Status != types.StatusDraft {
		t.Errorf("Status = %s, want %s", a.Metadata.Status, types.StatusDraft)
	}

	if _, err := s.Init("sess-1"); err == nil {
		t.Error("re-initializing an existing session must fail")
	}
}

func TestInitRejectsUnsafeIDs(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"", "../escape", "a/b", ".hidden", "has space"} {
		if _, err := s.Init(id); err == nil {
			t.Errorf("Init(%q) should fail", id)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Init("sess-1")
	if err != nil {
		t.Fatal(err)
	}

	rt := types.NewItem(types.SingletonID)
	rt.Fields["statement"] = "Why is the flux high?"
	rt.Fields["anchors"] = []any{"§2", "§5"}
	a.Sections.ResearchThread = rt
	h := types.NewItem("H1")
	h.Fields["name"] = "Tidal heating"
	h.Killed = true
	h.KilledBy = "agent-b"
	h.KilledAt = "2026-02-01T10:00:00Z"
	h.KillReason = "falsified"
	a.Sections.HypothesisSlate = []*types.Item{h}
	a.Metadata.Version = 1

	if err := s.Save(a); err != nil {
		t.Fatal(err)
	}
	got, err := s.Latest("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	// YAML decodes an absent collection as an empty slice; nil and
	// empty are the same artifact.
	if diff := cmp.Diff(a, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot round-trip (-saved +loaded):\n%s", diff)
	}
}

func TestVersionSequence(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Init("sess-1")
	if err != nil {
		t.Fatal(err)
	}

	for v := 1; v <= 3; v++ {
		a.Metadata.Version = v
		if err := s.Save(a); err != nil {
			t.Fatal(err)
		}
	}

	versions, err := s.Versions("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, versions); diff != "" {
		t.Errorf("versions (-want +got):\n%s", diff)
	}

	v2, err := s.Version("sess-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if v2.Metadata.Version != 2 {
		t.Errorf("loaded version = %d, want 2", v2.Metadata.Version)
	}
	latest, err := s.Latest("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Metadata.Version != 3 {
		t.Errorf("latest version = %d, want 3", latest.Metadata.Version)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.Init(id); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, ids); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
}

func TestClose(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Init("sess-1"); err != nil {
		t.Fatal(err)
	}

	closed, err := s.Close("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if closed.Metadata.Status != types.StatusClosed {
		t.Errorf("Status = %s, want %s", closed.Metadata.Status, types.StatusClosed)
	}

	// Closing again is a no-op, and the snapshot history survives.
	again, err := s.Close("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Metadata.Status != types.StatusClosed {
		t.Errorf("second close status = %s", again.Metadata.Status)
	}
	versions, err := s.Versions("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 || versions[0] != 0 {
		t.Errorf("versions after close = %v, want [0]", versions)
	}
}
