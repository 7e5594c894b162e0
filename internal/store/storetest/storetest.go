// Package storetest holds the behavioural contract every store.Store
// backend must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"

	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

// Factory returns a fresh, empty store and a cleanup func.
type Factory func(t *testing.T) (store.Store, func())

func Run(t *testing.T, newStore Factory) {
	t.Run("GoalRoundTrip", func(t *testing.T) { testGoalRoundTrip(t, newStore) })
	t.Run("GoalOrdering", func(t *testing.T) { testGoalOrdering(t, newStore) })
	t.Run("MilestoneOrdering", func(t *testing.T) { testMilestoneOrdering(t, newStore) })
	t.Run("DeleteGoalCascades", func(t *testing.T) { testDeleteGoalCascades(t, newStore) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore) })
	t.Run("MilestoneChecked", func(t *testing.T) { testMilestoneChecked(t, newStore) })
	t.Run("UserScoping", func(t *testing.T) { testUserScoping(t, newStore) })
	t.Run("Journal", func(t *testing.T) { testJournal(t, newStore) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("FindGoalByLabel", func(t *testing.T) { testFindGoalByLabel(t, newStore) })
}

func mustUser(t *testing.T, s store.Store, id, email string) {
	t.Helper()
	if err := s.EnsureUser(context.Background(), &models.User{ID: id, Email: email}); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
}

func mustGoal(t *testing.T, s store.Store, userID, text string) models.Goal {
	t.Helper()
	g := models.Goal{UserID: userID, Text: text, LabelIndex: models.NormalizeLabel(text)}
	if err := s.CreateGoal(context.Background(), &g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if g.ID == "" || g.CreatedAt.IsZero() {
		t.Fatalf("goal not stamped: %+v", g)
	}
	return g
}

func mustMilestone(t *testing.T, s store.Store, userID, goalID, text string) models.Milestone {
	t.Helper()
	m := models.Milestone{UserID: userID, GoalID: goalID, Text: text}
	if err := s.CreateMilestone(context.Background(), &m); err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	return m
}

func testGoalRoundTrip(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")

	g := mustGoal(t, s, "u1", "Learn Rust")
	goals, err := s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Text != "Learn Rust" || goals[0].ID != g.ID {
		t.Fatalf("unexpected goals %+v", goals)
	}
	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatal(err)
	}
	goals, err = s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 0 {
		t.Fatalf("goal still listed: %+v", goals)
	}
}

func testGoalOrdering(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	mustUser(t, s, "u1", "u1@example.com")
	for _, text := range []string{"first", "second", "third"} {
		mustGoal(t, s, "u1", text)
	}
	goals, err := s.ListGoals(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"third", "second", "first"}
	if len(goals) != len(want) {
		t.Fatalf("got %d goals", len(goals))
	}
	for i, g := range goals {
		if g.Text != want[i] {
			t.Fatalf("goal %d = %q, want %q", i, g.Text, want[i])
		}
	}
}

func testMilestoneOrdering(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "goal")
	for _, text := range []string{"one", "two", "three"} {
		mustMilestone(t, s, "u1", g.ID, text)
	}
	ms, err := s.ListMilestones(context.Background(), "u1", g.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "three"}
	if len(ms) != len(want) {
		t.Fatalf("got %d milestones", len(ms))
	}
	for i, m := range ms {
		if m.Text != want[i] {
			t.Fatalf("milestone %d = %q, want %q", i, m.Text, want[i])
		}
		if m.Checked {
			t.Fatalf("milestone %q created checked", m.Text)
		}
	}
}

func testDeleteGoalCascades(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "goal")
	mustMilestone(t, s, "u1", g.ID, "a")
	mustMilestone(t, s, "u1", g.ID, "b")

	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatal(err)
	}
	ms, err := s.ListMilestones(ctx, "u1", g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 0 {
		t.Fatalf("milestones survived goal delete: %+v", ms)
	}
}

func testDeleteIdempotent(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "goal")
	m := mustMilestone(t, s, "u1", g.ID, "a")

	if err := s.DeleteMilestone(ctx, "u1", g.ID, m.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMilestone(ctx, "u1", g.ID, m.ID); err != nil {
		t.Fatalf("second milestone delete: %v", err)
	}
	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("second goal delete: %v", err)
	}
}

func testMilestoneChecked(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "goal")
	m := mustMilestone(t, s, "u1", g.ID, "a")

	if err := s.SetMilestoneChecked(ctx, "u1", g.ID, m.ID, true); err != nil {
		t.Fatal(err)
	}
	ms, _ := s.ListMilestones(ctx, "u1", g.ID)
	if len(ms) != 1 || !ms[0].Checked || ms[0].Text != "a" {
		t.Fatalf("checked update failed: %+v", ms)
	}
	if err := s.SetMilestoneChecked(ctx, "u1", g.ID, "missing", true); err != nil {
		t.Fatalf("update of missing milestone should be a no-op: %v", err)
	}
}

func testUserScoping(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	mustUser(t, s, "u2", "u2@example.com")
	g := mustGoal(t, s, "u1", "mine")
	m := mustMilestone(t, s, "u1", g.ID, "step")

	goals, _ := s.ListGoals(ctx, "u2")
	if len(goals) != 0 {
		t.Fatalf("u2 sees u1 goals: %+v", goals)
	}
	if _, err := s.GetGoal(ctx, "u2", g.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetGoal across users = %v", err)
	}
	_ = s.SetMilestoneChecked(ctx, "u2", g.ID, m.ID, true)
	_ = s.DeleteGoal(ctx, "u2", g.ID)
	ms, _ := s.ListMilestones(ctx, "u1", g.ID)
	if len(ms) != 1 || ms[0].Checked {
		t.Fatalf("u2 mutated u1 milestone: %+v", ms)
	}
	if _, err := s.GetGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("u1 goal removed by u2: %v", err)
	}
}

func testJournal(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "goal")
	ms := "step one"
	for i, resp := range []string{"felt good", "hard day", "progress"} {
		e := models.JournalEntry{UserID: "u1", GoalLabel: "goal", Response: resp, Date: "2024-05-0" + string(rune('1'+i))}
		if i == 0 {
			e.GoalID = &g.ID
			e.Milestone = &ms
		}
		if err := s.CreateJournalEntry(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.ListJournalEntries(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Response != "progress" || entries[2].Response != "felt good" {
		t.Fatalf("journal not newest first: %+v", entries)
	}
	last := entries[2]
	if last.GoalID == nil || *last.GoalID != g.ID || last.Milestone == nil || *last.Milestone != ms || last.Date != "2024-05-01" {
		t.Fatalf("journal fields lost: %+v", last)
	}
	other, _ := s.ListJournalEntries(ctx, "u2")
	if len(other) != 0 {
		t.Fatalf("u2 sees u1 journal: %+v", other)
	}
}

func testUsers(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	u := models.User{ID: "u1", Email: "a@example.com", DisplayName: "A", PasswordHash: "hash"}
	if err := s.CreateUser(ctx, &u); err != nil {
		t.Fatal(err)
	}
	dup := models.User{ID: "u2", Email: "a@example.com"}
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate email err = %v", err)
	}
	if err := s.EnsureUser(ctx, &models.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("EnsureUser on existing id: %v", err)
	}
	got, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || got.ID != "u1" || got.PasswordHash != "hash" || got.DisplayName != "A" {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetUser missing = %v", err)
	}

	if err := s.EnsureUser(ctx, &models.User{ID: "ext-1", Email: "a@example.com", DisplayName: "Ext"}); err != nil {
		t.Fatalf("EnsureUser with taken email: %v", err)
	}
	ext, err := s.GetUser(ctx, "ext-1")
	if err != nil || ext.Email != "" || ext.DisplayName != "Ext" {
		t.Fatalf("GetUser ext-1 = %+v, %v", ext, err)
	}
	if got, err := s.GetUserByEmail(ctx, "a@example.com"); err != nil || got.ID != "u1" {
		t.Fatalf("email owner changed: %+v, %v", got, err)
	}
}

func testFindGoalByLabel(t *testing.T, newStore Factory) {
	s, cleanup := newStore(t)
	defer cleanup()
	ctx := context.Background()
	mustUser(t, s, "u1", "u1@example.com")
	g := mustGoal(t, s, "u1", "Run a Marathon")
	found, err := s.FindGoalByLabel(ctx, "u1", models.NormalizeLabel("run a   marathon"))
	if err != nil || found.ID != g.ID {
		t.Fatalf("FindGoalByLabel = %+v, %v", found, err)
	}
	if _, err := s.FindGoalByLabel(ctx, "u1", "nothing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing label err = %v", err)
	}
}
