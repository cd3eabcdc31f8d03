// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the artifact engine:
// the research artifact, its seven sections, the items they hold, and
// the delta change requests that mutate them.
package types

import "time"

// Section names one of the artifact's seven fixed containers.
type Section string

const (
	SectionResearchThread      Section = "research_thread"
	SectionHypothesisSlate     Section = "hypothesis_slate"
	SectionPredictionsTable    Section = "predictions_table"
	SectionDiscriminativeTests Section = "discriminative_tests"
	SectionAssumptionLedger    Section = "assumption_ledger"
	SectionAnomalyRegister     Section = "anomaly_register"
	SectionAdversarialCritique Section = "adversarial_critique"
)

// AllSections lists the seven sections in canonical document order.
var AllSections = []Section{
	SectionResearchThread,
	SectionHypothesisSlate,
	SectionPredictionsTable,
	SectionDiscriminativeTests,
	SectionAssumptionLedger,
	SectionAnomalyRegister,
	SectionAdversarialCritique,
}

// sectionPrefixes maps each section to its fixed item-id prefix.
// The prefixes are part of the wire contract.
var sectionPrefixes = map[Section]string{
	SectionResearchThread:      "RT",
	SectionHypothesisSlate:     "H",
	SectionPredictionsTable:    "P",
	SectionDiscriminativeTests: "T",
	SectionAssumptionLedger:    "A",
	SectionAnomalyRegister:     "X",
	SectionAdversarialCritique: "C",
}

// MaxActiveHypotheses is the hard capacity of the hypothesis slate.
// It is the only section with a capacity limit.
const MaxActiveHypotheses = 6

// SingletonID is the fixed id of the research thread, the one section
// holding at most a single item. It carries no numeric suffix.
const SingletonID = "RT"

// Valid reports whether s is one of the seven section names.
func (s Section) Valid() bool {
	_, ok := sectionPrefixes[s]
	return ok
}

// Prefix returns the section's fixed item-id prefix (e.g. "H" for the
// hypothesis slate).
func (s Section) Prefix() string {
	return sectionPrefixes[s]
}

// Singleton reports whether s is the research thread, which holds at
// most one item and is addressed without a numeric id suffix.
func (s Section) Singleton() bool {
	return s == SectionResearchThread
}

// Capacity returns the maximum number of active items the section may
// hold, or 0 for unlimited.
func (s Section) Capacity() int {
	if s == SectionHypothesisSlate {
		return MaxActiveHypotheses
	}
	return 0
}

// Status is the artifact lifecycle state.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Valid reports whether st is an allowed lifecycle state.
func (st Status) Valid() bool {
	return st == StatusDraft || st == StatusActive || st == StatusClosed
}

// Contributor records one agent that has contributed deltas to the
// artifact, ordered by first contribution.
type Contributor struct {
	// Agent is the contributing agent's identifier.
	Agent string `json:"agent" yaml:"agent"`

	// Model is the model identifier behind an automated agent (optional).
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Tool is the tool or client the agent contributed through (optional).
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// LastContribution is the RFC 3339 timestamp of the agent's most
	// recent applied delta.
	LastContribution string `json:"last_contribution" yaml:"last_contribution"`
}

// Metadata holds the artifact's session identity and version history.
type Metadata struct {
	// SessionID identifies the collaborative session this artifact
	// belongs to.
	SessionID string `json:"session_id" yaml:"session_id"`

	// CreatedAt is the RFC 3339 creation timestamp.
	CreatedAt string `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the RFC 3339 timestamp of the last merge. It never
	// decreases.
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`

	// Version increases by exactly one per merge.
	Version int `json:"version" yaml:"version"`

	// Contributors lists agents in order of first contribution.
	Contributors []Contributor `json:"contributors" yaml:"contributors"`

	// Status is the lifecycle state: draft, active, or closed.
	Status Status `json:"status" yaml:"status"`
}

// Sections holds the artifact's seven fixed containers: the research
// thread singleton and six insertion-ordered collections.
type Sections struct {
	ResearchThread      *Item   `json:"research_thread" yaml:"research_thread"`
	HypothesisSlate     []*Item `json:"hypothesis_slate" yaml:"hypothesis_slate"`
	PredictionsTable    []*Item `json:"predictions_table" yaml:"predictions_table"`
	DiscriminativeTests []*Item `json:"discriminative_tests" yaml:"discriminative_tests"`
	AssumptionLedger    []*Item `json:"assumption_ledger" yaml:"assumption_ledger"`
	AnomalyRegister     []*Item `json:"anomaly_register" yaml:"anomaly_register"`
	AdversarialCritique []*Item `json:"adversarial_critique" yaml:"adversarial_critique"`
}

// Artifact is the canonical research document built collaboratively
// through deltas. It is created empty and only ever mutated through the
// merge engine.
type Artifact struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Sections Sections `json:"sections" yaml:"sections"`
}

// New returns an empty artifact for the given session: version 0, all
// collections empty, singleton unset, status draft.
func New(sessionID, timestamp string) *Artifact {
	return &Artifact{
		Metadata: Metadata{
			SessionID:    sessionID,
			CreatedAt:    timestamp,
			UpdatedAt:    timestamp,
			Version:      0,
			Contributors: []Contributor{},
			Status:       StatusDraft,
		},
	}
}

// Collection returns the insertion-ordered item slice for a non-singleton
// section. It returns nil for the research thread; use
// Sections.ResearchThread directly for the singleton.
func (a *Artifact) Collection(s Section) []*Item {
	switch s {
	case SectionHypothesisSlate:
		return a.Sections.HypothesisSlate
	case SectionPredictionsTable:
		return a.Sections.PredictionsTable
	case SectionDiscriminativeTests:
		return a.Sections.DiscriminativeTests
	case SectionAssumptionLedger:
		return a.Sections.AssumptionLedger
	case SectionAnomalyRegister:
		return a.Sections.AnomalyRegister
	case SectionAdversarialCritique:
		return a.Sections.AdversarialCritique
	}
	return nil
}

// SetCollection replaces a non-singleton section's item slice. The
// research thread is ignored.
func (a *Artifact) SetCollection(s Section, items []*Item) {
	switch s {
	case SectionHypothesisSlate:
		a.Sections.HypothesisSlate = items
	case SectionPredictionsTable:
		a.Sections.PredictionsTable = items
	case SectionDiscriminativeTests:
		a.Sections.DiscriminativeTests = items
	case SectionAssumptionLedger:
		a.Sections.AssumptionLedger = items
	case SectionAnomalyRegister:
		a.Sections.AnomalyRegister = items
	case SectionAdversarialCritique:
		a.Sections.AdversarialCritique = items
	}
}

// Find returns the item with the given id in a non-singleton section,
// or nil if absent. Killed items are still findable.
func (a *Artifact) Find(s Section, id string) *Item {
	for _, it := range a.Collection(s) {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Active returns the section's non-killed items in insertion order.
func (a *Artifact) Active(s Section) []*Item {
	var out []*Item
	for _, it := range a.Collection(s) {
		if !it.Killed {
			out = append(out, it)
		}
	}
	return out
}

// ActiveCount returns the number of non-killed items in a section.
func (a *Artifact) ActiveCount(s Section) int {
	n := 0
	for _, it := range a.Collection(s) {
		if !it.Killed {
			n++
		}
	}
	return n
}

// DeepCopy returns an independent copy of the artifact. Mutating the
// copy never affects the original; the merge engine relies on this to
// keep the caller's base snapshot valid for diffing.
func (a *Artifact) DeepCopy() *Artifact {
	if a == nil {
		return nil
	}
	out := &Artifact{Metadata: a.Metadata}
	if a.Metadata.Contributors != nil {
		out.Metadata.Contributors = make([]Contributor, len(a.Metadata.Contributors))
		copy(out.Metadata.Contributors, a.Metadata.Contributors)
	}
	out.Sections.ResearchThread = a.Sections.ResearchThread.DeepCopy()
	out.Sections.HypothesisSlate = copyItems(a.Sections.HypothesisSlate)
	out.Sections.PredictionsTable = copyItems(a.Sections.PredictionsTable)
	out.Sections.DiscriminativeTests = copyItems(a.Sections.DiscriminativeTests)
	out.Sections.AssumptionLedger = copyItems(a.Sections.AssumptionLedger)
	out.Sections.AnomalyRegister = copyItems(a.Sections.AnomalyRegister)
	out.Sections.AdversarialCritique = copyItems(a.Sections.AdversarialCritique)
	return out
}

func copyItems(items []*Item) []*Item {
	if items == nil {
		return nil
	}
	out := make([]*Item, len(items))
	for i, it := range items {
		out[i] = it.DeepCopy()
	}
	return out
}

// Timestamp formats t as the RFC 3339 UTC string used throughout the
// artifact model.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Now returns the current time as an artifact timestamp.
func Now() string {
	return Timestamp(time.Now())
}
