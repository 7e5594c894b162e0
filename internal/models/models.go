package models

import "time"

type User struct {
	ID           string    `db:"id" bson:"_id" json:"id"`
	Email        string    `db:"email" bson:"email" json:"email"`
	DisplayName  string    `db:"display_name" bson:"displayName" json:"display_name"`
	AvatarRef    string    `db:"avatar_ref" bson:"avatarRef" json:"avatar_ref"`
	PasswordHash string    `db:"password_hash" bson:"passwordHash,omitempty" json:"-"` // local identity only
	CreatedAt    time.Time `db:"created_at" bson:"createdAt" json:"created_at"`
}

type Goal struct {
	ID         string    `db:"id" bson:"_id" json:"id"`
	UserID     string    `db:"user_id" bson:"userId" json:"-"`
	Text       string    `db:"text" bson:"text" json:"text"`           // Encrypted in store when sealing is on
	LabelIndex string    `db:"label_index" bson:"labelIndex" json:"-"` // blind index of normalized text
	CreatedAt  time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

type Milestone struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	GoalID    string    `db:"goal_id" bson:"goalId" json:"-"`
	UserID    string    `db:"user_id" bson:"userId" json:"-"`
	Text      string    `db:"text" bson:"text" json:"text"` // Encrypted in store when sealing is on
	Checked   bool      `db:"checked" bson:"checked" json:"checked"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

type JournalEntry struct {
	ID        string    `db:"id" bson:"_id" json:"-"`
	UserID    string    `db:"user_id" bson:"userId" json:"-"`
	GoalID    *string   `db:"goal_id" bson:"goalId,omitempty" json:"goalId,omitempty"`
	GoalLabel string    `db:"goal_label" bson:"goalLabel" json:"goal"`
	Milestone *string   `db:"milestone" bson:"milestone,omitempty" json:"milestone"`
	Response  string    `db:"response" bson:"response" json:"response"` // Encrypted in store when sealing is on
	Date      string    `db:"local_date" bson:"date" json:"date"`       // YYYY-MM-DD as sent by the client
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}
