package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

// Store keeps everything in maps guarded by one RWMutex. Used by tests and
// by the server when no database is configured.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	goals      map[string][]*models.Goal         // userID -> goals
	milestones map[string][]*models.Milestone    // goalID -> milestones
	journal    map[string][]*models.JournalEntry // userID -> entries

	now  func() time.Time
	last time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock uses now for creation timestamps. Timestamps are forced to
// be strictly increasing so ordering is stable under a coarse clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		users:      make(map[string]*models.User),
		goals:      make(map[string][]*models.Goal),
		milestones: make(map[string][]*models.Milestone),
		journal:    make(map[string][]*models.JournalEntry),
		now:        now,
	}
}

var _ store.Store = (*Store)(nil)

// stamp must be called with mu held for writing.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// User methods
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.users {
		if u.Email != "" && existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.stamp()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) EnsureUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return nil
	}
	cp := *u
	for _, existing := range s.users {
		if cp.Email != "" && existing.Email == cp.Email {
			cp.Email = ""
			break
		}
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.stamp()
	}
	s.users[cp.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// Goal methods
func (s *Store) CreateGoal(_ context.Context, g *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	g.CreatedAt = s.stamp()
	cp := *g
	s.goals[g.UserID] = append(s.goals[g.UserID], &cp)
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Goal, 0, len(s.goals[userID]))
	for _, g := range s.goals[userID] {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, userID, goalID string) (*models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.goals[userID] {
		if g.ID == goalID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindGoalByLabel(_ context.Context, userID, labelIndex string) (*models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Goal
	for _, g := range s.goals[userID] {
		// newest match wins, matching the other backends
		if g.LabelIndex == labelIndex && (found == nil || g.CreatedAt.After(found.CreatedAt)) {
			found = g
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	goals := s.goals[userID]
	for i, g := range goals {
		if g.ID == goalID {
			delete(s.milestones, goalID)
			s.goals[userID] = append(goals[:i:i], goals[i+1:]...)
			return nil
		}
	}
	// orphaned milestones from an earlier partial delete
	s.dropMilestonesOf(userID, goalID)
	return nil
}

func (s *Store) dropMilestonesOf(userID, goalID string) {
	kept := s.milestones[goalID][:0]
	for _, m := range s.milestones[goalID] {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		delete(s.milestones, goalID)
		return
	}
	s.milestones[goalID] = kept
}

// Milestone methods
func (s *Store) CreateMilestone(_ context.Context, m *models.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = s.stamp()
	cp := *m
	s.milestones[m.GoalID] = append(s.milestones[m.GoalID], &cp)
	return nil
}

func (s *Store) ListMilestones(_ context.Context, userID, goalID string) ([]models.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Milestone{}
	for _, m := range s.milestones[goalID] {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SetMilestoneChecked(_ context.Context, userID, goalID, milestoneID string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.milestones[goalID] {
		if m.ID == milestoneID && m.UserID == userID {
			m.Checked = checked
		}
	}
	return nil
}

func (s *Store) DeleteMilestone(_ context.Context, userID, goalID, milestoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.milestones[goalID]
	for i, m := range ms {
		if m.ID == milestoneID && m.UserID == userID {
			s.milestones[goalID] = append(ms[:i:i], ms[i+1:]...)
			return nil
		}
	}
	return nil
}

// Journal methods
func (s *Store) CreateJournalEntry(_ context.Context, e *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.stamp()
	cp := *e
	s.journal[e.UserID] = append(s.journal[e.UserID], &cp)
	return nil
}

func (s *Store) ListJournalEntries(_ context.Context, userID string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JournalEntry, 0, len(s.journal[userID]))
	for _, e := range s.journal[userID] {
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close(context.Context) error { return nil }
