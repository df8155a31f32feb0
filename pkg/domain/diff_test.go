package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := Message{Role: RoleSystem, Kind: KindText, Content: "hello", Timestamp: ts}
	start := "start"
	mid := "mid"

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				RunID:  "run-1",
				Cursor: "start",
				Fields: map[string]any{"a": 1},
				Trace:  []Message{msg},
			},
			wantDiff: &StateDiff{
				RunID:    "run-1",
				Cursor:   &start,
				Fields:   map[string]any{"a": 1},
				Appended: []Message{msg},
			},
		},
		{
			name: "No Changes",
			old: &State{
				RunID:  "run-1",
				Cursor: "start",
				Fields: map[string]any{"a": 1},
				Trace:  []Message{msg},
			},
			new: &State{
				RunID:  "run-1",
				Cursor: "start",
				Fields: map[string]any{"a": 1},
				Trace:  []Message{msg},
			},
			wantDiff: nil,
		},
		{
			name: "Fields Added & Modified",
			old: &State{
				RunID:  "run-1",
				Cursor: "mid",
				Step:   1,
				Fields: map[string]any{"a": 1, "b": "x"},
			},
			new: &State{
				RunID:  "run-1",
				Cursor: "mid",
				Step:   2,
				Fields: map[string]any{"a": 2, "b": "x", "c": true},
			},
			wantDiff: &StateDiff{
				RunID:  "run-1",
				Step:   2,
				Fields: map[string]any{"a": 2, "c": true},
			},
		},
		{
			name: "Cursor Move With Appended Trace",
			old: &State{
				RunID:  "run-1",
				Cursor: "start",
				Trace:  []Message{msg},
			},
			new: &State{
				RunID:  "run-1",
				Cursor: "mid",
				Step:   1,
				Trace:  []Message{msg, msg},
			},
			wantDiff: &StateDiff{
				RunID:    "run-1",
				Step:     1,
				Cursor:   &mid,
				Appended: []Message{msg},
			},
		},
		{
			name: "Fault Set",
			old: &State{
				RunID:  "run-1",
				Cursor: "mid",
			},
			new: &State{
				RunID:  "run-1",
				Cursor: "mid",
				Fault:  &Fault{Kind: FaultToolError, Message: "boom", Node: "mid"},
			},
			wantDiff: &StateDiff{
				RunID: "run-1",
				Fault: &Fault{Kind: FaultToolError, Message: "boom", Node: "mid"},
			},
		},
		{
			name: "Fault Cleared",
			old: &State{
				RunID:  "run-1",
				Cursor: "mid",
				Fault:  &Fault{Kind: FaultToolError, Message: "boom"},
			},
			new: &State{
				RunID:  "run-1",
				Cursor: "mid",
			},
			wantDiff: &StateDiff{
				RunID: "run-1",
				Fault: &Fault{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.MarshalIndent(got, "", "  ")
				wantJSON, _ := json.MarshalIndent(tt.wantDiff, "", "  ")
				t.Errorf("Diff() mismatch:\ngot:  %s\nwant: %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiff_JSONOmitsUnchanged(t *testing.T) {
	old := &State{RunID: "run-1", Cursor: "a", Fields: map[string]any{"k": "v"}}
	next := old.Set("extra", "value")

	diff := Diff(old, next)
	if diff == nil {
		t.Fatal("expected a diff")
	}

	b, err := json.Marshal(diff)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "cursor") {
		t.Errorf("cursor should be omitted when unchanged: %s", out)
	}
	if strings.Contains(out, `"k"`) {
		t.Errorf("unchanged field should be omitted: %s", out)
	}
	if !strings.Contains(out, `"extra":"value"`) {
		t.Errorf("expected added field in diff: %s", out)
	}
}
