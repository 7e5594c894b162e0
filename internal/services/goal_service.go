package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"stickygoals/internal/apperr"
	"stickygoals/internal/completion"
	"stickygoals/internal/metrics"
	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

// StepGenerator is the completion API as the service sees it.
type StepGenerator interface {
	GenerateSteps(ctx context.Context, goal string) ([]string, error)
}

// GoalService owns validation, sealing and user scoping for goals,
// milestones and journal entries. Handlers stay thin on top of it.
type GoalService struct {
	store  store.Store
	enc    *EncryptionService
	steps  StepGenerator
	logger *zap.Logger
}

func NewGoalService(s store.Store, enc *EncryptionService, steps StepGenerator, logger *zap.Logger) *GoalService {
	return &GoalService{store: s, enc: enc, steps: steps, logger: logger}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (s *GoalService) storeErr(op string, err error) error {
	metrics.RecordStoreOp(op, err)
	if err == nil {
		return nil
	}
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return apperr.Wrap(apperr.Upstream, "could not "+strings.ReplaceAll(op, "_", " "), err)
}

// ProvisionUser records the caller the first time a token for it is seen.
func (s *GoalService) ProvisionUser(ctx context.Context, u *models.User) error {
	return s.storeErr("ensure_user", s.store.EnsureUser(ctx, u))
}

func (s *GoalService) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.RecordStoreOp("get_user", nil)
		return nil, apperr.Wrap(apperr.NotFound, "user not found", err)
	}
	if err != nil {
		return nil, s.storeErr("get_user", err)
	}
	metrics.RecordStoreOp("get_user", nil)
	return u, nil
}

func (s *GoalService) CreateGoal(ctx context.Context, userID, text string) (*models.Goal, error) {
	if blank(text) {
		return nil, apperr.Invalid("goal text is required")
	}
	g := models.Goal{UserID: userID, Text: strings.TrimSpace(text)}
	plain := g.Text
	if err := s.enc.SealGoal(&g); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not encrypt goal", err)
	}
	if err := s.storeErr("save_goal", s.store.CreateGoal(ctx, &g)); err != nil {
		return nil, err
	}
	g.Text = plain
	s.logger.Info("goal created", zap.String("user_id", userID), zap.String("goal_id", g.ID))
	return &g, nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err := s.storeErr("list_goals", err); err != nil {
		return nil, err
	}
	for i := range goals {
		if err := s.enc.OpenGoal(&goals[i]); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "could not decrypt goal", err)
		}
	}
	return goals, nil
}

// DeleteGoal is safe to retry: a goal that is already gone, or whose
// milestones were removed by an earlier failed attempt, deletes cleanly.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if blank(goalID) {
		return apperr.Invalid("goal id is required")
	}
	if err := s.storeErr("delete_goal", s.store.DeleteGoal(ctx, userID, goalID)); err != nil {
		return err
	}
	s.logger.Info("goal deleted", zap.String("user_id", userID), zap.String("goal_id", goalID))
	return nil
}

// GoalState derives the lifecycle state from the goal's milestones.
func (s *GoalService) GoalState(ctx context.Context, userID, goalID string) (models.GoalState, error) {
	if _, err := s.store.GetGoal(ctx, userID, goalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.Wrap(apperr.NotFound, "goal not found", err)
		}
		return "", s.storeErr("get_goal", err)
	}
	ms, err := s.ListMilestones(ctx, userID, goalID)
	if err != nil {
		return "", err
	}
	return models.StateOf(ms), nil
}

func (s *GoalService) AddMilestone(ctx context.Context, userID, goalID, text string) (*models.Milestone, error) {
	if blank(goalID) || blank(text) {
		return nil, apperr.Invalid("goalId and milestone are required")
	}
	if _, err := s.store.GetGoal(ctx, userID, goalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Invalid("unknown goal")
		}
		return nil, s.storeErr("get_goal", err)
	}
	m := models.Milestone{GoalID: goalID, UserID: userID, Text: text}
	if err := s.enc.SealMilestone(&m); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not encrypt milestone", err)
	}
	if err := s.storeErr("add_milestone", s.store.CreateMilestone(ctx, &m)); err != nil {
		return nil, err
	}
	m.Text = text
	return &m, nil
}

func (s *GoalService) ListMilestones(ctx context.Context, userID, goalID string) ([]models.Milestone, error) {
	if blank(goalID) {
		return nil, apperr.Invalid("goal id is required")
	}
	ms, err := s.store.ListMilestones(ctx, userID, goalID)
	if err := s.storeErr("list_milestones", err); err != nil {
		return nil, err
	}
	for i := range ms {
		if err := s.enc.OpenMilestone(&ms[i]); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "could not decrypt milestone", err)
		}
	}
	return ms, nil
}

func (s *GoalService) SetMilestoneChecked(ctx context.Context, userID, goalID, milestoneID string, checked bool) error {
	if blank(goalID) || blank(milestoneID) {
		return apperr.Invalid("goal id and milestone id are required")
	}
	return s.storeErr("update_milestone", s.store.SetMilestoneChecked(ctx, userID, goalID, milestoneID, checked))
}

func (s *GoalService) DeleteMilestone(ctx context.Context, userID, goalID, milestoneID string) error {
	if blank(goalID) || blank(milestoneID) {
		return apperr.Invalid("goal id and milestone id are required")
	}
	return s.storeErr("delete_milestone", s.store.DeleteMilestone(ctx, userID, goalID, milestoneID))
}

type JournalInput struct {
	Goal      models.GoalRef
	Milestone *string
	Response  string
	Date      string
}

const dateFormatMsg = "invalid date; expected YYYY-MM-DD or an RFC 3339 timestamp such as 2024-03-01T08:00:00Z"

// normalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps the
// calendar date.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// AddJournalEntry resolves the goal reference before storing: an id must
// name one of the caller's goals, a label is linked to the newest goal with
// the same normalized text and otherwise kept as a bare label.
func (s *GoalService) AddJournalEntry(ctx context.Context, userID string, in JournalInput) (*models.JournalEntry, error) {
	if in.Goal.IsZero() || blank(in.Response) || blank(in.Date) {
		return nil, apperr.Invalid("goal, response and date are required")
	}
	date, ok := normalizeDate(in.Date)
	if !ok {
		return nil, apperr.Invalid(dateFormatMsg)
	}
	e := models.JournalEntry{UserID: userID, Response: in.Response, Date: date}
	if in.Milestone != nil && !blank(*in.Milestone) {
		ms := *in.Milestone
		e.Milestone = &ms
	}

	if in.Goal.IsByID() {
		g, err := s.store.GetGoal(ctx, userID, in.Goal.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Invalid("unknown goal")
		}
		if err != nil {
			return nil, s.storeErr("get_goal", err)
		}
		if err := s.enc.OpenGoal(g); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "could not decrypt goal", err)
		}
		e.GoalID = &g.ID
		e.GoalLabel = g.Text
	} else {
		e.GoalLabel = strings.TrimSpace(in.Goal.Label)
		g, err := s.store.FindGoalByLabel(ctx, userID, s.enc.LabelIndex(in.Goal.Label))
		switch {
		case err == nil:
			e.GoalID = &g.ID
		case !errors.Is(err, store.ErrNotFound):
			return nil, s.storeErr("find_goal", err)
		}
	}

	stored := e
	if err := s.enc.SealJournal(&stored); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not encrypt entry", err)
	}
	if err := s.storeErr("add_entry", s.store.CreateJournalEntry(ctx, &stored)); err != nil {
		return nil, err
	}
	e.ID, e.CreatedAt = stored.ID, stored.CreatedAt
	return &e, nil
}

func (s *GoalService) ListJournal(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	entries, err := s.store.ListJournalEntries(ctx, userID)
	if err := s.storeErr("list_journal", err); err != nil {
		return nil, err
	}
	for i := range entries {
		if err := s.enc.OpenJournal(&entries[i]); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "could not decrypt entry", err)
		}
	}
	return entries, nil
}

// GenerateSteps has no persisted side effects; accepted steps come back
// through AddMilestone.
func (s *GoalService) GenerateSteps(ctx context.Context, goal string) ([]string, error) {
	if blank(goal) {
		return nil, apperr.Invalid("goal is required")
	}
	if s.steps == nil {
		return nil, apperr.UpstreamErr("step suggestions are not configured", nil)
	}
	steps, err := s.steps.GenerateSteps(ctx, strings.TrimSpace(goal))
	if err != nil {
		var perr *completion.ProviderError
		if errors.As(err, &perr) {
			return nil, apperr.UpstreamErr("completion provider error: "+perr.Message, err)
		}
		return nil, apperr.UpstreamErr("completion provider error: "+err.Error(), err)
	}
	if len(steps) == 0 {
		return nil, apperr.UpstreamErr("completion provider returned no steps", nil)
	}
	metrics.SuggestionsGenerated.Add(float64(len(steps)))
	return steps, nil
}
