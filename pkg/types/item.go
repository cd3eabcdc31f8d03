// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v3"
)

// System-owned item field names. Contributors can never set these
// through a delta payload; the merge engine assigns them.
const (
	FieldID         = "id"
	FieldKilled     = "killed"
	FieldKilledBy   = "killed_by"
	FieldKilledAt   = "killed_at"
	FieldKillReason = "kill_reason"
)

// SystemFields lists the item fields owned by the engine.
var SystemFields = []string{FieldID, FieldKilled, FieldKilledBy, FieldKilledAt, FieldKillReason}

// ForbiddenKeys are payload keys that alias the object root, its
// constructor, or its prototype in dynamic-language hosts. They are
// dropped with a warning before any assignment so a stored item can
// never round-trip them to a consumer that would interpret them.
var ForbiddenKeys = []string{"__proto__", "constructor", "prototype"}

// IsSystemField reports whether key is engine-owned.
func IsSystemField(key string) bool {
	for _, f := range SystemFields {
		if key == f {
			return true
		}
	}
	return false
}

// IsForbiddenKey reports whether key is on the pollution denylist.
func IsForbiddenKey(key string) bool {
	for _, f := range ForbiddenKeys {
		if key == f {
			return true
		}
	}
	return false
}

// ScoreFields are the four 0-3 sub-scores of a discriminative test's
// score, summed into the total used for slate ordering.
var ScoreFields = []string{"discrimination", "feasibility", "cost", "speed"}

// Item is one element of an artifact section. The lifecycle fields are
// typed; everything section-specific lives in Fields, an open
// string-keyed map validated at the boundary where payloads enter.
//
// A killed item is soft-deleted: retained for audit and diffing but
// excluded from counts and from further edits. Kill fields, once set,
// are permanent.
type Item struct {
	ID         string
	Killed     bool
	KilledBy   string
	KilledAt   string
	KillReason string
	Fields     map[string]any
}

// NewItem returns an item with the given id and an empty field map.
func NewItem(id string) *Item {
	return &Item{ID: id, Fields: map[string]any{}}
}

// Str returns the named field as a string, or "" if absent or not a
// string.
func (it *Item) Str(key string) string {
	if it == nil || it.Fields == nil {
		return ""
	}
	s, _ := it.Fields[key].(string)
	return s
}

// Bool returns the named field as a bool, or false if absent or not a
// bool.
func (it *Item) Bool(key string) bool {
	if it == nil || it.Fields == nil {
		return false
	}
	b, _ := it.Fields[key].(bool)
	return b
}

// StringList returns the named field as a string slice. It accepts both
// []string and []any-of-strings, the latter being what JSON and YAML
// decoding produce.
func (it *Item) StringList(key string) []string {
	if it == nil || it.Fields == nil {
		return nil
	}
	list, _ := AsStringList(it.Fields[key])
	return list
}

// AsStringList converts v to a string slice when v is an ordered list
// of strings ([]string or []any whose elements are all strings). The
// second return is false otherwise.
func AsStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// TotalScore sums the four sub-scores of the item's score field.
// Missing sub-scores count as zero; a missing or malformed score field
// scores zero overall.
func (it *Item) TotalScore() float64 {
	if it == nil || it.Fields == nil {
		return 0
	}
	score, ok := it.Fields["score"].(map[string]any)
	if !ok {
		return 0
	}
	var total float64
	for _, f := range ScoreFields {
		total += asNumber(score[f])
	}
	return total
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// DeepCopy returns an independent copy of the item.
func (it *Item) DeepCopy() *Item {
	if it == nil {
		return nil
	}
	out := *it
	out.Fields = CopyValue(it.Fields).(map[string]any)
	return &out
}

// CopyValue deep-copies a decoded JSON/YAML value tree (maps, slices,
// scalars). Unknown types are returned as-is.
func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = CopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = CopyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	}
	return v
}

// flatten merges the lifecycle fields and the open field map into one
// flat map, the item's serialized form. Kill fields appear only on
// killed items.
func (it *Item) flatten() map[string]any {
	out := make(map[string]any, len(it.Fields)+5)
	for k, v := range it.Fields {
		out[k] = v
	}
	out[FieldID] = it.ID
	if it.Killed {
		out[FieldKilled] = true
		out[FieldKilledBy] = it.KilledBy
		out[FieldKilledAt] = it.KilledAt
		out[FieldKillReason] = it.KillReason
	}
	return out
}

// unflatten splits a decoded flat map back into lifecycle fields and
// the open field map.
func (it *Item) unflatten(m map[string]any) {
	it.Fields = make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case FieldID:
			it.ID, _ = v.(string)
		case FieldKilled:
			it.Killed, _ = v.(bool)
		case FieldKilledBy:
			it.KilledBy, _ = v.(string)
		case FieldKilledAt:
			it.KilledAt, _ = v.(string)
		case FieldKillReason:
			it.KillReason, _ = v.(string)
		default:
			it.Fields[k] = v
		}
	}
}

// MarshalJSON serializes the item as a single flat object. Map key
// ordering is encoding/json's sorted order, keeping the serialization
// deterministic.
func (it *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.flatten())
}

// UnmarshalJSON decodes the flat object form.
func (it *Item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	it.unflatten(m)
	return nil
}

// MarshalYAML serializes the item as a flat mapping with sorted keys.
func (it *Item) MarshalYAML() (any, error) {
	flat := it.flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(flat[k]); err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML decodes the flat mapping form.
func (it *Item) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	it.unflatten(m)
	return nil
}
