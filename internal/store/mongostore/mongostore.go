package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

// Store keeps one collection per entity. Ids are ObjectID hex strings, so
// sorting on _id breaks createdAt ties in insertion order.
type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	goals      *mongo.Collection
	milestones *mongo.Collection
	journal    *mongo.Collection
	logger     *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Connect dials uri and prepares indexes in the named database.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client, database, logger)
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("mongo connected", zap.String("database", database))
	return s, nil
}

func New(client *mongo.Client, database string, logger *zap.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client:     client,
		users:      db.Collection("users"),
		goals:      db.Collection("goals"),
		milestones: db.Collection("milestones"),
		journal:    db.Collection("journal"),
		logger:     logger,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.goals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("goals index: %w", err)
	}
	if _, err := s.milestones.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "goalId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("milestones index: %w", err)
	}
	if _, err := s.journal.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("journal index: %w", err)
	}
	return nil
}

func newID() string { return primitive.NewObjectID().Hex() }

// now truncates to the millisecond precision BSON dates keep.
func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

var (
	newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) EnsureUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	err := s.upsertUser(ctx, u, u.Email)
	if mongo.IsDuplicateKeyError(err) {
		// the partial email index skips empty emails
		s.logger.Info("email already belongs to another user; provisioning without it", zap.String("user_id", u.ID))
		err = s.upsertUser(ctx, u, "")
	}
	return err
}

func (s *Store) upsertUser(ctx context.Context, u *models.User, email string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$setOnInsert": bson.M{
			"email":       email,
			"displayName": u.DisplayName,
			"avatarRef":   u.AvatarRef,
			"createdAt":   u.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) CreateGoal(ctx context.Context, g *models.Goal) error {
	g.ID = newID()
	g.CreatedAt = now()
	_, err := s.goals.InsertOne(ctx, g)
	return err
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	cur, err := s.goals.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	goals := []models.Goal{}
	if err := cur.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *Store) findGoal(ctx context.Context, filter bson.M) (*models.Goal, error) {
	var g models.Goal
	err := s.goals.FindOne(ctx, filter, options.FindOne().SetSort(newestFirst)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return s.findGoal(ctx, bson.M{"_id": goalID, "userId": userID})
}

func (s *Store) FindGoalByLabel(ctx context.Context, userID, labelIndex string) (*models.Goal, error) {
	return s.findGoal(ctx, bson.M{"userId": userID, "labelIndex": labelIndex})
}

// DeleteGoal removes the milestone batch with one DeleteMany before the
// goal document. If the second step fails the caller retries; both steps
// tolerate missing documents.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	res, err := s.milestones.DeleteMany(ctx, bson.M{"userId": userID, "goalId": goalID})
	if err != nil {
		return fmt.Errorf("delete milestones: %w", err)
	}
	if _, err := s.goals.DeleteOne(ctx, bson.M{"_id": goalID, "userId": userID}); err != nil {
		s.logger.Warn("goal delete failed after milestones were removed",
			zap.String("goal_id", goalID),
			zap.Int64("milestones_removed", res.DeletedCount),
			zap.Error(err),
		)
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	m.ID = newID()
	m.CreatedAt = now()
	_, err := s.milestones.InsertOne(ctx, m)
	return err
}

func (s *Store) ListMilestones(ctx context.Context, userID, goalID string) ([]models.Milestone, error) {
	cur, err := s.milestones.Find(ctx, bson.M{"userId": userID, "goalId": goalID}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, err
	}
	ms := []models.Milestone{}
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (s *Store) SetMilestoneChecked(ctx context.Context, userID, goalID, milestoneID string, checked bool) error {
	_, err := s.milestones.UpdateOne(ctx,
		bson.M{"_id": milestoneID, "userId": userID, "goalId": goalID},
		bson.M{"$set": bson.M{"checked": checked}},
	)
	return err
}

func (s *Store) DeleteMilestone(ctx context.Context, userID, goalID, milestoneID string) error {
	_, err := s.milestones.DeleteOne(ctx, bson.M{"_id": milestoneID, "userId": userID, "goalId": goalID})
	return err
}

func (s *Store) CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	e.ID = newID()
	e.CreatedAt = now()
	_, err := s.journal.InsertOne(ctx, e)
	return err
}

func (s *Store) ListJournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	cur, err := s.journal.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	entries := []models.JournalEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }
