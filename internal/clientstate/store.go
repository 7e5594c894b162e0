// Package clientstate is the client's session copy of goals, milestones and
// the journal, plus the purely local widgets, pins and achievement
// counters. Server-backed changes are applied locally only after the API
// call succeeds.
package clientstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stickygoals/internal/client"
	"stickygoals/internal/models"
)

var (
	ErrBlankMilestone = errors.New("milestone text is required")
	ErrBlankGoal      = errors.New("goal text is required")
	ErrUnknownGoal    = errors.New("goal not in local state")
	ErrUnknownItem    = errors.New("no such item")
)

// API is the subset of the API client the store drives.
type API interface {
	SaveGoal(ctx context.Context, text string) error
	GetGoals(ctx context.Context) ([]models.Goal, error)
	DeleteGoal(ctx context.Context, goalID string) error
	AddMilestone(ctx context.Context, goalID, text string) (string, error)
	Milestones(ctx context.Context, goalID string) ([]models.Milestone, error)
	SetMilestoneChecked(ctx context.Context, goalID, milestoneID string, checked bool) error
	DeleteMilestone(ctx context.Context, goalID, milestoneID string) error
	AddEntry(ctx context.Context, in client.JournalInput) error
	Journal(ctx context.Context) ([]models.JournalEntry, error)
	GenerateSteps(ctx context.Context, goal string) ([]string, error)
}

var _ API = (*client.Client)(nil)

// GoalView is a goal as rendered: its milestones plus derived state.
type GoalView struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	CreatedAt  time.Time          `json:"createdAt"`
	Milestones []models.Milestone `json:"milestones"`
	State      models.GoalState   `json:"state"`
	Complete   bool               `json:"complete"`
	Pinned     bool               `json:"pinned"`
}

type Store struct {
	api    API
	cache  Cache
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	snap *Snapshot
}

// Open loads the cached snapshot; call Refresh to sync with the server.
func Open(api API, cache Cache, logger *zap.Logger) (*Store, error) {
	snap, err := cache.Load()
	if err != nil {
		return nil, err
	}
	for i := range snap.Goals {
		for j := range snap.Goals[i].Milestones {
			snap.Goals[i].Milestones[j].GoalID = snap.Goals[i].ID
		}
	}
	return &Store{api: api, cache: cache, logger: logger, now: time.Now, snap: snap}, nil
}

// apply runs fn under the lock and persists the result. ctx is checked
// first so a cancelled caller never changes local state.
func (s *Store) apply(ctx context.Context, fn func(*Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.snap); err != nil {
		return err
	}
	s.snap.SavedAt = s.now().UTC()
	if err := s.cache.Save(s.snap); err != nil {
		s.logger.Warn("could not write local cache", zap.Error(err))
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

func (snap *Snapshot) goal(id string) *CachedGoal {
	for i := range snap.Goals {
		if snap.Goals[i].ID == id {
			return &snap.Goals[i]
		}
	}
	return nil
}

func (snap *Snapshot) isPinned(id string) bool {
	for _, p := range snap.Pinned {
		if p == id {
			return true
		}
	}
	return false
}

// Refresh replaces goals, milestones and the journal with the server's
// copy. Pins and pending suggestions for goals that no longer exist are
// dropped.
func (s *Store) Refresh(ctx context.Context) error {
	goals, err := s.api.GetGoals(ctx)
	if err != nil {
		return err
	}
	cached := make([]CachedGoal, 0, len(goals))
	for _, g := range goals {
		ms, err := s.api.Milestones(ctx, g.ID)
		if err != nil {
			return err
		}
		cached = append(cached, CachedGoal{ID: g.ID, Text: g.Text, CreatedAt: g.CreatedAt, Milestones: ms})
	}
	journal, err := s.api.Journal(ctx)
	if err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		snap.Goals = cached
		snap.Journal = journal
		pinned := snap.Pinned[:0]
		for _, id := range snap.Pinned {
			if snap.goal(id) != nil {
				pinned = append(pinned, id)
			}
		}
		snap.Pinned = pinned
		for id := range snap.Suggestions {
			if snap.goal(id) == nil {
				delete(snap.Suggestions, id)
			}
		}
		return nil
	})
}

// AddGoal saves text and then reloads the goal list, since the server does
// not return the new id. A goal that is not yet visible in the reloaded
// list simply appears on a later refresh.
func (s *Store) AddGoal(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankGoal
	}
	if err := s.api.SaveGoal(ctx, text); err != nil {
		return err
	}
	goals, err := s.api.GetGoals(ctx)
	if err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		merged := make([]CachedGoal, 0, len(goals))
		for _, g := range goals {
			cg := CachedGoal{ID: g.ID, Text: g.Text, CreatedAt: g.CreatedAt, Milestones: []models.Milestone{}}
			if old := snap.goal(g.ID); old != nil {
				cg.Milestones = old.Milestones
			}
			merged = append(merged, cg)
		}
		snap.Goals = merged
		return nil
	})
}

func (s *Store) DeleteGoal(ctx context.Context, goalID string) error {
	if err := s.api.DeleteGoal(ctx, goalID); err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		goals := snap.Goals[:0]
		for _, g := range snap.Goals {
			if g.ID != goalID {
				goals = append(goals, g)
			}
		}
		snap.Goals = goals
		snap.Pinned = without(snap.Pinned, goalID)
		delete(snap.Suggestions, goalID)
		return nil
	})
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// AddMilestone rejects blank text before any network call.
func (s *Store) AddMilestone(ctx context.Context, goalID, text string) (*models.Milestone, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankMilestone
	}
	id, err := s.api.AddMilestone(ctx, goalID, text)
	if err != nil {
		return nil, err
	}
	m := models.Milestone{ID: id, GoalID: goalID, Text: text, CreatedAt: s.now().UTC()}
	err = s.apply(ctx, func(snap *Snapshot) error {
		g := snap.goal(goalID)
		if g == nil {
			// created server-side; shows up on the next refresh
			return nil
		}
		g.Milestones = append(g.Milestones, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ToggleMilestone flips the checked flag on the server, then locally.
func (s *Store) ToggleMilestone(ctx context.Context, goalID, milestoneID string) (bool, error) {
	s.mu.Lock()
	m := s.snap.milestone(goalID, milestoneID)
	var checked bool
	if m != nil {
		checked = !m.Checked
	}
	s.mu.Unlock()
	if m == nil {
		return false, ErrUnknownItem
	}
	return checked, s.SetMilestoneChecked(ctx, goalID, milestoneID, checked)
}

func (s *Store) SetMilestoneChecked(ctx context.Context, goalID, milestoneID string, checked bool) error {
	if err := s.api.SetMilestoneChecked(ctx, goalID, milestoneID, checked); err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		if m := snap.milestone(goalID, milestoneID); m != nil {
			m.Checked = checked
		}
		return nil
	})
}

func (s *Store) DeleteMilestone(ctx context.Context, goalID, milestoneID string) error {
	if err := s.api.DeleteMilestone(ctx, goalID, milestoneID); err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		g := snap.goal(goalID)
		if g == nil {
			return nil
		}
		kept := g.Milestones[:0]
		for _, m := range g.Milestones {
			if m.ID != milestoneID {
				kept = append(kept, m)
			}
		}
		g.Milestones = kept
		return nil
	})
}

// EditMilestoneText changes the cached copy only; the server keeps the
// original text and a refresh restores it.
func (s *Store) EditMilestoneText(goalID, milestoneID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankMilestone
	}
	return s.apply(context.Background(), func(snap *Snapshot) error {
		m := snap.milestone(goalID, milestoneID)
		if m == nil {
			return ErrUnknownItem
		}
		m.Text = text
		return nil
	})
}

func (snap *Snapshot) milestone(goalID, milestoneID string) *models.Milestone {
	g := snap.goal(goalID)
	if g == nil {
		return nil
	}
	for i := range g.Milestones {
		if g.Milestones[i].ID == milestoneID {
			return &g.Milestones[i]
		}
	}
	return nil
}

// AddJournalEntry posts the entry and prepends the local copy.
func (s *Store) AddJournalEntry(ctx context.Context, in client.JournalInput) error {
	if err := s.api.AddEntry(ctx, in); err != nil {
		return err
	}
	return s.apply(ctx, func(snap *Snapshot) error {
		e := models.JournalEntry{Milestone: in.Milestone, Response: in.Response, Date: in.Date, CreatedAt: s.now().UTC()}
		if in.Goal.IsByID() {
			id := in.Goal.ID
			e.GoalID = &id
			if g := snap.goal(id); g != nil {
				e.GoalLabel = g.Text
			}
		} else {
			e.GoalLabel = strings.TrimSpace(in.Goal.Label)
		}
		snap.Journal = append([]models.JournalEntry{e}, snap.Journal...)
		return nil
	})
}

// Suggest asks for steps for a cached goal and keeps them pending until
// each is accepted or rejected.
func (s *Store) Suggest(ctx context.Context, goalID string) ([]string, error) {
	s.mu.Lock()
	g := s.snap.goal(goalID)
	var text string
	if g != nil {
		text = g.Text
	}
	s.mu.Unlock()
	if g == nil {
		return nil, ErrUnknownGoal
	}
	steps, err := s.api.GenerateSteps(ctx, text)
	if err != nil {
		return nil, err
	}
	err = s.apply(ctx, func(snap *Snapshot) error {
		if snap.Suggestions == nil {
			snap.Suggestions = map[string][]string{}
		}
		snap.Suggestions[goalID] = append([]string(nil), steps...)
		return nil
	})
	return steps, err
}

func (s *Store) PendingSuggestions(goalID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.snap.Suggestions[goalID]...)
}

func (s *Store) pending(goalID string, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.snap.Suggestions[goalID]
	if index < 0 || index >= len(p) {
		return "", ErrUnknownItem
	}
	return p[index], nil
}

func (snap *Snapshot) dropSuggestion(goalID, step string) {
	p := snap.Suggestions[goalID]
	for i, v := range p {
		if v == step {
			snap.Suggestions[goalID] = append(p[:i:i], p[i+1:]...)
			break
		}
	}
	if len(snap.Suggestions[goalID]) == 0 {
		delete(snap.Suggestions, goalID)
	}
}

// AcceptSuggestion turns a pending step into a milestone through the same
// path as a typed one, with the step's exact text.
func (s *Store) AcceptSuggestion(ctx context.Context, goalID string, index int) (*models.Milestone, error) {
	step, err := s.pending(goalID, index)
	if err != nil {
		return nil, err
	}
	m, err := s.AddMilestone(ctx, goalID, step)
	if err != nil {
		return nil, err
	}
	err = s.apply(ctx, func(snap *Snapshot) error {
		snap.dropSuggestion(goalID, step)
		snap.AcceptedSuggestions++
		return nil
	})
	return m, err
}

func (s *Store) RejectSuggestion(goalID string, index int) error {
	step, err := s.pending(goalID, index)
	if err != nil {
		return err
	}
	return s.apply(context.Background(), func(snap *Snapshot) error {
		snap.dropSuggestion(goalID, step)
		return nil
	})
}

func (s *Store) Pin(goalID string) error {
	return s.apply(context.Background(), func(snap *Snapshot) error {
		if snap.goal(goalID) == nil {
			return ErrUnknownGoal
		}
		if !snap.isPinned(goalID) {
			snap.Pinned = append(snap.Pinned, goalID)
		}
		return nil
	})
}

func (s *Store) Unpin(goalID string) error {
	return s.apply(context.Background(), func(snap *Snapshot) error {
		snap.Pinned = without(snap.Pinned, goalID)
		return nil
	})
}

func (s *Store) AddWidget(t WidgetType, content, goalLabel string) (*Widget, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("widget content is required")
	}
	w := Widget{ID: uuid.NewString(), Type: t, Content: content, GoalLabel: strings.TrimSpace(goalLabel)}
	err := s.apply(context.Background(), func(snap *Snapshot) error {
		w.Position = len(snap.Widgets)
		snap.Widgets = append(snap.Widgets, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) RemoveWidget(id string) error {
	return s.apply(context.Background(), func(snap *Snapshot) error {
		sortWidgets(snap.Widgets)
		for i, w := range snap.Widgets {
			if w.ID == id {
				snap.Widgets = append(snap.Widgets[:i], snap.Widgets[i+1:]...)
				renumber(snap.Widgets)
				return nil
			}
		}
		return ErrUnknownItem
	})
}

// MoveWidget places the widget at position, clamped to the board, and
// shifts the others.
func (s *Store) MoveWidget(id string, position int) error {
	return s.apply(context.Background(), func(snap *Snapshot) error {
		sortWidgets(snap.Widgets)
		from := -1
		for i, w := range snap.Widgets {
			if w.ID == id {
				from = i
				break
			}
		}
		if from < 0 {
			return ErrUnknownItem
		}
		w := snap.Widgets[from]
		rest := append(snap.Widgets[:from:from], snap.Widgets[from+1:]...)
		if position < 0 {
			position = 0
		}
		if position > len(rest) {
			position = len(rest)
		}
		out := make([]Widget, 0, len(rest)+1)
		out = append(out, rest[:position]...)
		out = append(out, w)
		out = append(out, rest[position:]...)
		renumber(out)
		snap.Widgets = out
		return nil
	})
}

func (s *Store) Widgets() []Widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Widget(nil), s.snap.Widgets...)
	sortWidgets(out)
	return out
}

// Goals returns the cached goals newest first with derived state.
func (s *Store) Goals() []GoalView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GoalView, 0, len(s.snap.Goals))
	for _, g := range s.snap.Goals {
		ms := append([]models.Milestone(nil), g.Milestones...)
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].CreatedAt.Before(ms[j].CreatedAt) })
		out = append(out, GoalView{
			ID:         g.ID,
			Text:       g.Text,
			CreatedAt:  g.CreatedAt,
			Milestones: ms,
			State:      models.StateOf(ms),
			Complete:   models.IsComplete(ms),
			Pinned:     s.snap.isPinned(g.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) Goal(goalID string) (GoalView, bool) {
	for _, g := range s.Goals() {
		if g.ID == goalID {
			return g, true
		}
	}
	return GoalView{}, false
}

func (s *Store) Journal() []models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.JournalEntry(nil), s.snap.Journal...)
}

func (s *Store) Achievements() Achievements {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeAchievements(s.snap)
}

// Reset forgets everything local, counters included.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Clear(); err != nil {
		return err
	}
	s.snap = &Snapshot{}
	return nil
}
