// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Operation is a delta's change kind.
type Operation string

const (
	OpAdd  Operation = "ADD"
	OpEdit Operation = "EDIT"
	OpKill Operation = "KILL"
)

// Valid reports whether op is one of the three allowed operations.
func (op Operation) Valid() bool {
	return op == OpAdd || op == OpEdit || op == OpKill
}

// Delta is one proposed change to one artifact section, produced by the
// delta parser and consumed by the merge engine. Timestamp and Agent
// may be pre-stamped by the contributor or filled in at merge time.
type Delta struct {
	// Operation is ADD, EDIT, or KILL.
	Operation Operation `json:"operation" yaml:"operation"`

	// Section names the target section.
	Section Section `json:"section" yaml:"section"`

	// TargetID addresses an existing item. Forbidden for ADD, required
	// for KILL and for EDIT on non-singleton sections. EDIT on the
	// research thread may omit it to mean create-or-update.
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`

	// Payload carries the proposed field values. For KILL it must hold
	// a string "reason".
	Payload map[string]any `json:"payload" yaml:"payload"`

	// Rationale is the contributor's free-text justification.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// Timestamp is the RFC 3339 time the delta was authored. The merge
	// engine sorts deltas by this string; it is the sole source of
	// merge determinism.
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	// Agent identifies the contributor acting through this delta.
	Agent string `json:"agent,omitempty" yaml:"agent,omitempty"`
}

// Reference links an item to an item in another session's artifact.
// Items may carry these in a "references" field; the validator checks
// their shape.
type Reference struct {
	// Session is the referenced session id.
	Session string `json:"session" yaml:"session"`

	// Item is the referenced item id within that session.
	Item string `json:"item" yaml:"item"`

	// Relation is one of the allowed cross-session relations.
	Relation string `json:"relation" yaml:"relation"`
}

// ReferenceRelations is the closed set of allowed cross-session
// relations.
var ReferenceRelations = []string{"supports", "contradicts", "extends", "refines", "duplicates"}

// ValidRelation reports whether r is an allowed reference relation.
func ValidRelation(r string) bool {
	for _, rel := range ReferenceRelations {
		if r == rel {
			return true
		}
	}
	return false
}
