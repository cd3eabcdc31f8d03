// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package delta extracts and validates delta statements embedded in
// free-form text. Parsing is pure: it knows the operation and section
// rules but nothing about any particular artifact's state, and it never
// fails hard — every malformed block surfaces as an invalid block
// carrying its raw text.
package delta

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Marker is the fence info string that tags a fenced region as a delta
// block.
const Marker = "delta"

// fenceOpenRe matches an opening fence: a run of three or more
// backticks or tildes followed by the delta marker.
var fenceOpenRe = regexp.MustCompile("^(`{3,}|~{3,})" + Marker + `\s*$`)

// Block is one fenced delta region from the input text. Either Delta is
// set (valid) or Reason explains why the block was rejected. Raw always
// carries the region's original text for debugging.
type Block struct {
	// Raw is the text between the fences, unmodified.
	Raw string `json:"raw"`

	// Delta is the validated delta, nil when the block is invalid.
	Delta *types.Delta `json:"delta,omitempty"`

	// Reason is the human-readable rejection reason, empty when valid.
	Reason string `json:"reason,omitempty"`
}

// Valid reports whether the block parsed and validated.
func (b Block) Valid() bool {
	return b.Delta != nil
}

// Result is the outcome of parsing one text for delta blocks.
type Result struct {
	// Blocks holds every fenced delta region in document order, valid
	// and invalid alike.
	Blocks []Block `json:"deltas"`

	// TotalBlocks is the number of fenced delta regions found.
	TotalBlocks int `json:"total_blocks"`

	// ValidCount is the number of blocks that validated.
	ValidCount int `json:"valid_count"`

	// InvalidCount is the number of rejected blocks.
	InvalidCount int `json:"invalid_count"`
}

// Valid returns the validated deltas in document order.
func (r Result) Valid() []types.Delta {
	var out []types.Delta
	for _, b := range r.Blocks {
		if b.Delta != nil {
			out = append(out, *b.Delta)
		}
	}
	return out
}

// Parse scans text for fenced delta regions and parses and validates
// each one. Two fence styles are recognized (backtick and tilde runs of
// length three or more); a region closes only on a fence of the same
// character and the same length, so a shorter fence of either style can
// appear inside a longer one. Parse never returns an error: malformed
// regions become invalid blocks.
func Parse(text string) Result {
	var res Result
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		m := fenceOpenRe.FindStringSubmatch(strings.TrimRight(lines[i], " \t"))
		if m == nil {
			continue
		}
		fence := m[1]

		var body []string
		closed := false
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.TrimRight(lines[j], " \t") == fence {
				closed = true
				break
			}
			body = append(body, lines[j])
		}
		if !closed {
			// Unterminated fence: treat the rest of the text as the block.
			j = len(lines) - 1
		}
		i = j

		raw := strings.Join(body, "\n")
		res.Blocks = append(res.Blocks, parseBlock(raw))
	}

	res.TotalBlocks = len(res.Blocks)
	for _, b := range res.Blocks {
		if b.Valid() {
			res.ValidCount++
		} else {
			res.InvalidCount++
		}
	}
	return res
}

// parseBlock parses one fenced region as a delta record and validates
// its shape.
func parseBlock(raw string) Block {
	d, err := decode(raw)
	if err != nil {
		// Best-effort repair: strip comments and trailing separators,
		// preserving quoted strings, then retry.
		repaired := Repair(raw)
		if d, err = decode(repaired); err != nil {
			return Block{Raw: raw, Reason: fmt.Sprintf("unparseable delta block: %v", err)}
		}
	}
	if reason := Validate(d); reason != "" {
		return Block{Raw: raw, Reason: reason}
	}
	return Block{Raw: raw, Delta: d}
}

func decode(raw string) (*types.Delta, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	var d types.Delta
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks a delta's shape against the operation and section
// rules. It returns a human-readable rejection reason, or "" when the
// delta is well-formed. State-dependent rules (target existence,
// capacity) are the merge engine's concern, not Validate's.
func Validate(d *types.Delta) string {
	if !d.Operation.Valid() {
		return fmt.Sprintf("unknown operation %q: must be ADD, EDIT, or KILL", d.Operation)
	}
	if !d.Section.Valid() {
		return fmt.Sprintf("unknown section %q", d.Section)
	}

	if d.Section.Singleton() {
		if d.Operation != types.OpEdit {
			return fmt.Sprintf("%s is not allowed on %s: use EDIT", d.Operation, d.Section)
		}
		if d.TargetID != "" && d.TargetID != types.SingletonID {
			return fmt.Sprintf("target_id for %s must be %q or omitted, got %q",
				d.Section, types.SingletonID, d.TargetID)
		}
		return ""
	}

	switch d.Operation {
	case types.OpAdd:
		if d.TargetID != "" {
			return "ADD must not carry a target_id: ids are assigned by the engine"
		}
	case types.OpEdit:
		if d.TargetID == "" {
			return "EDIT requires a target_id"
		}
	case types.OpKill:
		if d.TargetID == "" {
			return "KILL requires a target_id"
		}
		if _, ok := d.Payload["reason"].(string); !ok {
			return "KILL payload requires a string reason"
		}
	}
	return ""
}
