// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delta

import (
	"strings"
	"testing"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

func block(body string) string {
	return "```delta\n" + body + "\n```\n"
}

func TestParseSingleBlock(t *testing.T) {
	text := "Some discussion.\n" + block(`{
		"operation": "ADD",
		"section": "hypothesis_slate",
		"payload": {"name": "Tidal heating", "claim": "X"},
		"rationale": "first idea"
	}`) + "Trailing prose."

	res := Parse(text)
	if res.TotalBlocks != 1 || res.ValidCount != 1 || res.InvalidCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/0", res.TotalBlocks, res.ValidCount, res.InvalidCount)
	}
	d := res.Blocks[0].Delta
	if d.Operation != types.OpAdd || d.Section != types.SectionHypothesisSlate {
		t.Errorf("delta = %s %s, want ADD hypothesis_slate", d.Operation, d.Section)
	}
	if d.Payload["name"] != "Tidal heating" {
		t.Errorf("payload name = %v", d.Payload["name"])
	}
}

func TestParseFenceStyles(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "tilde fence",
			text: "~~~delta\n{\"operation\":\"EDIT\",\"section\":\"research_thread\",\"payload\":{}}\n~~~\n",
			want: 1,
		},
		{
			name: "longer fence nests a shorter one",
			text: "````delta\n{\"operation\":\"EDIT\",\"section\":\"research_thread\",\"payload\":{\"statement\":\"has ``` inside\"}}\n````\n",
			want: 1,
		},
		{
			name: "two blocks",
			text: block(`{"operation":"EDIT","section":"research_thread","payload":{}}`) +
				"\nin between\n" +
				block(`{"operation":"ADD","section":"assumption_ledger","payload":{}}`),
			want: 2,
		},
		{
			name: "untagged fence ignored",
			text: "```\n{\"operation\":\"ADD\"}\n```\n",
			want: 0,
		},
		{
			name: "no fences",
			text: "just words",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)
			if res.ValidCount != tt.want {
				t.Errorf("ValidCount = %d, want %d (blocks: %+v)", res.ValidCount, tt.want, res.Blocks)
			}
		})
	}
}

func TestParseMismatchedFenceLengthDoesNotClose(t *testing.T) {
	// The inner three-backtick run must not close the four-backtick fence.
	text := "````delta\n{\"operation\":\"EDIT\",\"section\":\"research_thread\",\"payload\":{}}\n```\n````\n"
	res := Parse(text)
	if res.TotalBlocks != 1 {
		t.Fatalf("TotalBlocks = %d, want 1", res.TotalBlocks)
	}
	if !strings.Contains(res.Blocks[0].Raw, "```") {
		t.Error("inner fence should be part of the block body")
	}
}

func TestParseRepair(t *testing.T) {
	text := block(`{
		// chosen after the §4 discussion
		"operation": "ADD",
		"section": "anomaly_register",
		"payload": {
			"statement": "flux exceeds model // not a comment",
			"anchors": ["§4", "§7"], /* keep both */
		},
	}`)

	res := Parse(text)
	if res.ValidCount != 1 {
		t.Fatalf("ValidCount = %d, want 1: %+v", res.ValidCount, res.Blocks)
	}
	d := res.Blocks[0].Delta
	if got := d.Payload["statement"]; got != "flux exceeds model // not a comment" {
		t.Errorf("comment-like text inside a string was altered: %v", got)
	}
}

func TestParseInvalidBlocks(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{
			name:   "not json",
			body:   "operation: ADD",
			reason: "unparseable",
		},
		{
			name:   "bad operation",
			body:   `{"operation":"DELETE","section":"hypothesis_slate","payload":{}}`,
			reason: "unknown operation",
		},
		{
			name:   "bad section",
			body:   `{"operation":"ADD","section":"conclusions","payload":{}}`,
			reason: "unknown section",
		},
		{
			name:   "add with target",
			body:   `{"operation":"ADD","section":"hypothesis_slate","target_id":"H1","payload":{}}`,
			reason: "must not carry a target_id",
		},
		{
			name:   "edit without target",
			body:   `{"operation":"EDIT","section":"hypothesis_slate","payload":{}}`,
			reason: "requires a target_id",
		},
		{
			name:   "kill without target",
			body:   `{"operation":"KILL","section":"hypothesis_slate","payload":{"reason":"r"}}`,
			reason: "requires a target_id",
		},
		{
			name:   "kill without reason",
			body:   `{"operation":"KILL","section":"hypothesis_slate","target_id":"H1","payload":{}}`,
			reason: "string reason",
		},
		{
			name:   "add on singleton",
			body:   `{"operation":"ADD","section":"research_thread","payload":{}}`,
			reason: "use EDIT",
		},
		{
			name:   "kill on singleton",
			body:   `{"operation":"KILL","section":"research_thread","target_id":"RT","payload":{"reason":"r"}}`,
			reason: "use EDIT",
		},
		{
			name:   "singleton with wrong target",
			body:   `{"operation":"EDIT","section":"research_thread","target_id":"RT2","payload":{}}`,
			reason: "must be \"RT\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(block(tt.body))
			if res.InvalidCount != 1 {
				t.Fatalf("InvalidCount = %d, want 1", res.InvalidCount)
			}
			b := res.Blocks[0]
			if !strings.Contains(b.Reason, tt.reason) {
				t.Errorf("Reason = %q, want substring %q", b.Reason, tt.reason)
			}
			if b.Raw == "" {
				t.Error("invalid block must keep its raw text")
			}
		})
	}
}

func TestParseSingletonTargetOptional(t *testing.T) {
	for _, target := range []string{"", "RT"} {
		body := `{"operation":"EDIT","section":"research_thread","payload":{"statement":"s"}`
		if target != "" {
			body = `{"operation":"EDIT","section":"research_thread","target_id":"RT","payload":{"statement":"s"}`
		}
		res := Parse(block(body + "}"))
		if res.ValidCount != 1 {
			t.Errorf("target %q: ValidCount = %d, want 1", target, res.ValidCount)
		}
	}
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"```delta\n```",
		"```delta\n{\n```",
		"```delta",
		"~~~delta\n[1,2,\n~~~",
	}
	for _, in := range inputs {
		res := Parse(in)
		if res.ValidCount != 0 {
			t.Errorf("input %q: ValidCount = %d, want 0", in, res.ValidCount)
		}
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line comment",
			in:   "{\n// note\n\"a\": 1}",
			want: "{\n\n\"a\": 1}",
		},
		{
			name: "block comment",
			in:   `{"a": /* note */ 1}`,
			want: `{"a":  1}`,
		},
		{
			name: "trailing comma in object",
			in:   `{"a": 1,}`,
			want: `{"a": 1}`,
		},
		{
			name: "trailing comma in array",
			in:   `{"a": [1, 2,]}`,
			want: `{"a": [1, 2]}`,
		},
		{
			name: "string contents untouched",
			in:   `{"a": "x // y, /* z */,"}`,
			want: `{"a": "x // y, /* z */,"}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"a": "he said \"hi\" // ok"}`,
			want: `{"a": "he said \"hi\" // ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Repair(tt.in); got != tt.want {
				t.Errorf("Repair(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
