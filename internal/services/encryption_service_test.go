package services

import (
	"testing"

	"stickygoals/internal/models"
)

func TestPassthroughEncryption(t *testing.T) {
	enc, err := NewEncryptionServiceFromKeys("", "")
	if err != nil {
		t.Fatal(err)
	}
	if enc.Enabled() {
		t.Fatal("empty keys enabled encryption")
	}
	g := models.Goal{Text: "Learn  Rust"}
	if err := enc.SealGoal(&g); err != nil {
		t.Fatal(err)
	}
	if g.Text != "Learn  Rust" || g.LabelIndex != "learn rust" {
		t.Fatalf("passthrough goal = %+v", g)
	}
}

func TestEncryptionKeysMustPair(t *testing.T) {
	if _, err := NewEncryptionServiceFromKeys("c2VjcmV0", ""); err == nil {
		t.Fatal("missing blind index key accepted")
	}
}

func TestSealOpenJournal(t *testing.T) {
	svc, _ := newSealedService(t)
	enc := svc.enc
	ms := "first lap"
	e := models.JournalEntry{Response: "felt good", GoalLabel: "Run", Milestone: &ms}
	if err := enc.SealJournal(&e); err != nil {
		t.Fatal(err)
	}
	if e.Response == "felt good" || e.GoalLabel == "Run" || *e.Milestone == "first lap" {
		t.Fatalf("journal fields left in clear: %+v", e)
	}
	if ms != "first lap" {
		t.Fatal("sealing mutated the caller's milestone string")
	}
	if err := enc.OpenJournal(&e); err != nil {
		t.Fatal(err)
	}
	if e.Response != "felt good" || e.GoalLabel != "Run" || *e.Milestone != "first lap" {
		t.Fatalf("opened journal = %+v", e)
	}
}

func TestLabelIndexIgnoresCaseAndSpacing(t *testing.T) {
	svc, _ := newSealedService(t)
	a := svc.enc.LabelIndex("Learn Rust")
	b := svc.enc.LabelIndex("  learn   rust ")
	if a != b {
		t.Fatal("equivalent labels index differently")
	}
	if a == "learn rust" {
		t.Fatal("label index stored in clear")
	}
}
