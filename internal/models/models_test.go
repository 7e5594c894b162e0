package models

import (
	"encoding/json"
	"testing"
)

func TestIsComplete(t *testing.T) {
	cases := []struct {
		name string
		ms   []Milestone
		want bool
	}{
		{"no milestones", nil, false},
		{"only drafts", []Milestone{{Text: ""}, {Text: "   ", Checked: true}}, false},
		{"one unchecked", []Milestone{{Text: "a", Checked: true}, {Text: "b"}}, false},
		{"all checked", []Milestone{{Text: "a", Checked: true}, {Text: "b", Checked: true}}, true},
		{"unchecked draft ignored", []Milestone{{Text: "a", Checked: true}, {Text: " "}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsComplete(tc.ms); got != tc.want {
				t.Fatalf("IsComplete = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStateOf(t *testing.T) {
	if s := StateOf(nil); s != GoalSaved {
		t.Fatalf("empty goal state = %s", s)
	}
	if s := StateOf([]Milestone{{Text: ""}}); s != GoalSaved {
		t.Fatalf("draft-only goal state = %s", s)
	}
	if s := StateOf([]Milestone{{Text: "x"}}); s != GoalInProgress {
		t.Fatalf("unchecked goal state = %s", s)
	}
	if s := StateOf([]Milestone{{Text: "x", Checked: true}}); s != GoalComplete {
		t.Fatalf("checked goal state = %s", s)
	}
}

func TestGoalRefDecode(t *testing.T) {
	var body struct {
		Goal GoalRef `json:"goal"`
	}
	if err := json.Unmarshal([]byte(`{"goal":"Learn Rust"}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.Goal.IsByID() || body.Goal.Label != "Learn Rust" {
		t.Fatalf("string goal decoded as %+v", body.Goal)
	}
	if err := json.Unmarshal([]byte(`{"goal":{"id":"g1"}}`), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Goal.IsByID() || body.Goal.ID != "g1" {
		t.Fatalf("object goal decoded as %+v", body.Goal)
	}
	if err := json.Unmarshal([]byte(`{"goal":{"id":"g1","label":"x"}}`), &body); err == nil {
		t.Fatal("expected error for ambiguous reference")
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  Learn   RUST "); got != "learn rust" {
		t.Fatalf("NormalizeLabel = %q", got)
	}
}
