package clientstate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"stickygoals/internal/client"
	"stickygoals/internal/models"
)

// fakeAPI keeps server state in maps and counts calls.
type fakeAPI struct {
	goals      []models.Goal
	milestones map[string][]models.Milestone
	journal    []models.JournalEntry
	steps      []string
	fail       error
	calls      int
	seq        int
	clock      time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{milestones: map[string][]models.Milestone{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeAPI) next() (string, time.Time) {
	f.seq++
	f.clock = f.clock.Add(time.Second)
	return fmt.Sprintf("id-%d", f.seq), f.clock
}

func (f *fakeAPI) enter() error {
	f.calls++
	return f.fail
}

func (f *fakeAPI) SaveGoal(_ context.Context, text string) error {
	if err := f.enter(); err != nil {
		return err
	}
	id, at := f.next()
	f.goals = append([]models.Goal{{ID: id, Text: text, CreatedAt: at}}, f.goals...)
	return nil
}

func (f *fakeAPI) GetGoals(context.Context) ([]models.Goal, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]models.Goal(nil), f.goals...), nil
}

func (f *fakeAPI) DeleteGoal(_ context.Context, goalID string) error {
	if err := f.enter(); err != nil {
		return err
	}
	delete(f.milestones, goalID)
	kept := f.goals[:0]
	for _, g := range f.goals {
		if g.ID != goalID {
			kept = append(kept, g)
		}
	}
	f.goals = kept
	return nil
}

func (f *fakeAPI) AddMilestone(_ context.Context, goalID, text string) (string, error) {
	if err := f.enter(); err != nil {
		return "", err
	}
	id, at := f.next()
	f.milestones[goalID] = append(f.milestones[goalID], models.Milestone{ID: id, GoalID: goalID, Text: text, CreatedAt: at})
	return id, nil
}

func (f *fakeAPI) Milestones(_ context.Context, goalID string) ([]models.Milestone, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]models.Milestone(nil), f.milestones[goalID]...), nil
}

func (f *fakeAPI) SetMilestoneChecked(_ context.Context, goalID, milestoneID string, checked bool) error {
	if err := f.enter(); err != nil {
		return err
	}
	for i, m := range f.milestones[goalID] {
		if m.ID == milestoneID {
			f.milestones[goalID][i].Checked = checked
		}
	}
	return nil
}

func (f *fakeAPI) DeleteMilestone(_ context.Context, goalID, milestoneID string) error {
	if err := f.enter(); err != nil {
		return err
	}
	kept := f.milestones[goalID][:0]
	for _, m := range f.milestones[goalID] {
		if m.ID != milestoneID {
			kept = append(kept, m)
		}
	}
	f.milestones[goalID] = kept
	return nil
}

func (f *fakeAPI) AddEntry(_ context.Context, in client.JournalInput) error {
	if err := f.enter(); err != nil {
		return err
	}
	_, at := f.next()
	f.journal = append([]models.JournalEntry{{GoalLabel: in.Goal.Label, Response: in.Response, Date: in.Date, CreatedAt: at}}, f.journal...)
	return nil
}

func (f *fakeAPI) Journal(context.Context) ([]models.JournalEntry, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]models.JournalEntry(nil), f.journal...), nil
}

func (f *fakeAPI) GenerateSteps(context.Context, string) ([]string, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return f.steps, nil
}

func openStore(t *testing.T, api API) *Store {
	t.Helper()
	s, err := Open(api, &MemoryCache{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustGoal(t *testing.T, s *Store, text string) GoalView {
	t.Helper()
	if err := s.AddGoal(context.Background(), text); err != nil {
		t.Fatal(err)
	}
	for _, g := range s.Goals() {
		if g.Text == text {
			return g
		}
	}
	t.Fatalf("goal %q not in local state", text)
	return GoalView{}
}

func TestBlankMilestoneNeverCallsAPI(t *testing.T) {
	api := newFakeAPI()
	s := openStore(t, api)
	g := mustGoal(t, s, "Learn Rust")
	before := api.calls
	for _, text := range []string{"", "   "} {
		if _, err := s.AddMilestone(context.Background(), g.ID, text); !errors.Is(err, ErrBlankMilestone) {
			t.Fatalf("err = %v", err)
		}
	}
	if api.calls != before {
		t.Fatal("blank milestone reached the API")
	}
}

func TestCompletionFollowsToggles(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeAPI())
	g := mustGoal(t, s, "Ship v1")
	a, _ := s.AddMilestone(ctx, g.ID, "write code")
	b, _ := s.AddMilestone(ctx, g.ID, "write docs")

	view, _ := s.Goal(g.ID)
	if view.Complete || view.State != models.GoalInProgress {
		t.Fatalf("view = %+v", view)
	}
	for _, m := range []*models.Milestone{a, b} {
		if checked, err := s.ToggleMilestone(ctx, g.ID, m.ID); err != nil || !checked {
			t.Fatalf("toggle = %v, %v", checked, err)
		}
	}
	view, _ = s.Goal(g.ID)
	if !view.Complete || view.State != models.GoalComplete {
		t.Fatalf("view = %+v", view)
	}
	if checked, _ := s.ToggleMilestone(ctx, g.ID, a.ID); checked {
		t.Fatal("second toggle did not uncheck")
	}
	view, _ = s.Goal(g.ID)
	if view.Complete {
		t.Fatal("goal complete with an unchecked milestone")
	}
}

func TestFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := openStore(t, api)
	g := mustGoal(t, s, "Read more")
	m, _ := s.AddMilestone(ctx, g.ID, "one book")

	api.fail = &client.RequestFailedError{Status: 500, StatusText: "Internal Server Error"}
	if err := s.SetMilestoneChecked(ctx, g.ID, m.ID, true); err == nil {
		t.Fatal("expected error")
	}
	if err := s.DeleteGoal(ctx, g.ID); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.AddMilestone(ctx, g.ID, "two"); err == nil {
		t.Fatal("expected error")
	}
	view, ok := s.Goal(g.ID)
	if !ok || len(view.Milestones) != 1 || view.Milestones[0].Checked {
		t.Fatalf("local state changed after failures: %+v", view)
	}
}

func TestCancelledContextSkipsApply(t *testing.T) {
	api := newFakeAPI()
	s := openStore(t, api)
	g := mustGoal(t, s, "Cancel me")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.AddMilestone(ctx, g.ID, "late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if view, _ := s.Goal(g.ID); len(view.Milestones) != 0 {
		t.Fatalf("cancelled result applied: %+v", view.Milestones)
	}
}

func TestDeleteGoalDropsPinAndMilestones(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeAPI())
	g := mustGoal(t, s, "Temp")
	s.AddMilestone(ctx, g.ID, "x")
	if err := s.Pin(g.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Goal(g.ID); ok {
		t.Fatal("goal still cached")
	}
	if a := s.Achievements(); a.PinnedGoals != 0 || a.Goals != 0 || a.Milestones != 0 {
		t.Fatalf("achievements = %+v", a)
	}
	if err := s.Pin(g.ID); !errors.Is(err, ErrUnknownGoal) {
		t.Fatalf("pin deleted goal err = %v", err)
	}
}

func TestSuggestionsAcceptReject(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.steps = []string{"Buy shoes", "Run 5k", "Run 10k"}
	s := openStore(t, api)
	g := mustGoal(t, s, "Run a marathon")

	steps, err := s.Suggest(ctx, g.ID)
	if err != nil || len(steps) != 3 {
		t.Fatalf("steps = %q, %v", steps, err)
	}
	m, err := s.AcceptSuggestion(ctx, g.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m.Text != "Run 5k" || m.Checked {
		t.Fatalf("accepted milestone = %+v", m)
	}
	if err := s.RejectSuggestion(g.ID, 0); err != nil {
		t.Fatal(err)
	}
	if p := s.PendingSuggestions(g.ID); len(p) != 1 || p[0] != "Run 10k" {
		t.Fatalf("pending = %q", p)
	}
	if err := s.RejectSuggestion(g.ID, 5); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("out of range err = %v", err)
	}
	if got := api.milestones[g.ID]; len(got) != 1 || got[0].Text != "Run 5k" {
		t.Fatalf("server milestones = %+v", got)
	}
	if a := s.Achievements(); a.AcceptedSuggestions != 1 || a.Milestones != 1 {
		t.Fatalf("achievements = %+v", a)
	}
}

func TestEditMilestoneTextIsLocal(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := openStore(t, api)
	g := mustGoal(t, s, "Garden")
	m, _ := s.AddMilestone(ctx, g.ID, "plant seeds")
	calls := api.calls
	if err := s.EditMilestoneText(g.ID, m.ID, "plant tomato seeds"); err != nil {
		t.Fatal(err)
	}
	if api.calls != calls {
		t.Fatal("edit called the API")
	}
	view, _ := s.Goal(g.ID)
	if view.Milestones[0].Text != "plant tomato seeds" {
		t.Fatalf("edited = %+v", view.Milestones)
	}
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	view, _ = s.Goal(g.ID)
	if view.Milestones[0].Text != "plant seeds" {
		t.Fatal("refresh did not restore server text")
	}
}

func TestWidgets(t *testing.T) {
	s := openStore(t, newFakeAPI())
	a, _ := s.AddWidget(WidgetQuote, "Stay hungry", "")
	b, _ := s.AddWidget(WidgetImage, "https://example.com/a.png", "Run a marathon")
	c, _ := s.AddWidget(WidgetHabit, "Stretch daily", "")
	if _, err := s.AddWidget(WidgetPlaylist, " ", ""); err == nil {
		t.Fatal("blank widget accepted")
	}

	if err := s.MoveWidget(c.ID, 0); err != nil {
		t.Fatal(err)
	}
	order := func() string {
		var out string
		for i, w := range s.Widgets() {
			if w.Position != i {
				t.Fatalf("positions not dense: %+v", s.Widgets())
			}
			out += string(w.Type) + ","
		}
		return out
	}
	if got := order(); got != "habit,quote,image," {
		t.Fatalf("order = %s", got)
	}
	if err := s.MoveWidget(a.ID, 99); err != nil {
		t.Fatal(err)
	}
	if got := order(); got != "habit,image,quote," {
		t.Fatalf("order = %s", got)
	}
	if err := s.RemoveWidget(b.ID); err != nil {
		t.Fatal(err)
	}
	if got := order(); got != "habit,quote," {
		t.Fatalf("order = %s", got)
	}
	if err := s.RemoveWidget(b.ID); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("second remove err = %v", err)
	}
	if _, err := ParseWidgetType("poster"); err == nil {
		t.Fatal("unknown widget type parsed")
	}
}

func TestFileCachePersistsAndResets(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	path := filepath.Join(t.TempDir(), "state", "cache.json")

	s, err := Open(api, NewFileCache(path), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	g := mustGoal(t, s, "Persist me")
	if _, err := s.AddMilestone(ctx, g.ID, "step"); err != nil {
		t.Fatal(err)
	}
	s.Pin(g.ID)
	s.AddWidget(WidgetQuote, "hello", "")
	if err := s.AddJournalEntry(ctx, client.JournalInput{Goal: models.GoalByID(g.ID), Response: "ok", Date: "2024-02-02"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(api, NewFileCache(path), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	view, ok := reopened.Goal(g.ID)
	if !ok || !view.Pinned || len(view.Milestones) != 1 || view.Milestones[0].GoalID != g.ID {
		t.Fatalf("reloaded goal = %+v", view)
	}
	if j := reopened.Journal(); len(j) != 1 || j[0].GoalLabel != "Persist me" {
		t.Fatalf("reloaded journal = %+v", j)
	}
	a := reopened.Achievements()
	if a.Goals != 1 || a.Milestones != 1 || a.JournalEntries != 1 || a.PinnedGoals != 1 {
		t.Fatalf("achievements = %+v", a)
	}

	if err := reopened.Reset(); err != nil {
		t.Fatal(err)
	}
	if a := reopened.Achievements(); a != (Achievements{}) {
		t.Fatalf("after reset = %+v", a)
	}
	fresh, _ := Open(api, NewFileCache(path), zap.NewNop())
	if len(fresh.Goals()) != 0 || len(fresh.Widgets()) != 0 {
		t.Fatal("cache survived reset")
	}
}

func TestRefreshOrdering(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := openStore(t, api)
	for _, text := range []string{"a", "b", "c"} {
		if err := api.SaveGoal(ctx, text); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	goals := s.Goals()
	if len(goals) != 3 || goals[0].Text != "c" || goals[2].Text != "a" {
		t.Fatalf("goals = %+v", goals)
	}
	if badges := s.Achievements().Badges(); !badges[0].Earned || badges[2].Earned {
		t.Fatalf("badges = %+v", badges)
	}
}
