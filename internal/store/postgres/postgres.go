package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func New(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

var _ store.Store = (*Store)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx, `INSERT INTO users (id, email, display_name, avatar_ref, password_hash)
	                                   VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		u.ID, u.Email, u.DisplayName, u.AvatarRef, u.PasswordHash).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) EnsureUser(ctx context.Context, u *models.User) error {
	err := s.insertUserIfAbsent(ctx, u, u.Email)
	if isUniqueViolation(err) {
		s.logger.Info("email already belongs to another user; provisioning without it", zap.String("user_id", u.ID))
		err = s.insertUserIfAbsent(ctx, u, "")
	}
	return err
}

func (s *Store) insertUserIfAbsent(ctx context.Context, u *models.User, email string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, display_name, avatar_ref)
	                                 VALUES ($1, $2, $3, $4)
	                                 ON CONFLICT (id) DO NOTHING`,
		u.ID, email, u.DisplayName, u.AvatarRef)
	return err
}

const userColumns = `id, email, display_name, avatar_ref, password_hash, created_at`

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateGoal(ctx context.Context, g *models.Goal) error {
	g.ID = uuid.NewString()
	return s.db.QueryRowxContext(ctx, `INSERT INTO goals (id, user_id, text, label_index)
	                                   VALUES ($1, $2, $3, $4) RETURNING created_at`,
		g.ID, g.UserID, g.Text, g.LabelIndex).Scan(&g.CreatedAt)
}

const goalColumns = `id, user_id, text, label_index, created_at`

func (s *Store) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals := []models.Goal{}
	err := s.db.SelectContext(ctx, &goals,
		`SELECT `+goalColumns+` FROM goals WHERE user_id=$1 ORDER BY created_at DESC, seq DESC`, userID)
	return goals, err
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	var g models.Goal
	err := s.db.GetContext(ctx, &g, `SELECT `+goalColumns+` FROM goals WHERE user_id=$1 AND id=$2`, userID, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) FindGoalByLabel(ctx context.Context, userID, labelIndex string) (*models.Goal, error) {
	var g models.Goal
	err := s.db.GetContext(ctx, &g, `SELECT `+goalColumns+` FROM goals
	                                 WHERE user_id=$1 AND label_index=$2
	                                 ORDER BY created_at DESC, seq DESC LIMIT 1`, userID, labelIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGoal runs the milestone batch and the goal delete in one
// transaction, milestones first.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE user_id=$1 AND goal_id=$2`, userID, goalID)
	if err != nil {
		return err
	}
	removed, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE user_id=$1 AND id=$2`, userID, goalID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("goal deleted",
		zap.String("user_id", userID),
		zap.String("goal_id", goalID),
		zap.Int64("milestones_removed", removed),
	)
	return nil
}

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	m.ID = uuid.NewString()
	return s.db.QueryRowxContext(ctx, `INSERT INTO milestones (id, goal_id, user_id, text, checked)
	                                   VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		m.ID, m.GoalID, m.UserID, m.Text, m.Checked).Scan(&m.CreatedAt)
}

func (s *Store) ListMilestones(ctx context.Context, userID, goalID string) ([]models.Milestone, error) {
	ms := []models.Milestone{}
	err := s.db.SelectContext(ctx, &ms, `SELECT id, goal_id, user_id, text, checked, created_at
	                                     FROM milestones WHERE user_id=$1 AND goal_id=$2
	                                     ORDER BY created_at ASC, seq ASC`, userID, goalID)
	return ms, err
}

func (s *Store) SetMilestoneChecked(ctx context.Context, userID, goalID, milestoneID string, checked bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE milestones SET checked=$4 WHERE user_id=$1 AND goal_id=$2 AND id=$3`,
		userID, goalID, milestoneID, checked)
	return err
}

func (s *Store) DeleteMilestone(ctx context.Context, userID, goalID, milestoneID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM milestones WHERE user_id=$1 AND goal_id=$2 AND id=$3`,
		userID, goalID, milestoneID)
	return err
}

func (s *Store) CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	e.ID = uuid.NewString()
	return s.db.QueryRowxContext(ctx, `INSERT INTO journal_entries (id, user_id, goal_id, goal_label, milestone, response, local_date)
	                                   VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		e.ID, e.UserID, e.GoalID, e.GoalLabel, e.Milestone, e.Response, e.Date).Scan(&e.CreatedAt)
}

func (s *Store) ListJournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	entries := []models.JournalEntry{}
	err := s.db.SelectContext(ctx, &entries, `SELECT id, user_id, goal_id, goal_label, milestone, response, local_date, created_at
	                                          FROM journal_entries WHERE user_id=$1
	                                          ORDER BY created_at DESC, seq DESC`, userID)
	return entries, err
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close(context.Context) error { return s.db.Close() }
