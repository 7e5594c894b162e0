package client

import (
	"context"
	"net/http"
	"net/url"

	"stickygoals/internal/models"
)

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func (c *Client) SaveGoal(ctx context.Context, text string) error {
	return c.AuthenticatedRequest(ctx, http.MethodPost, "/save-goal", map[string]string{"goal": text}, &statusResponse{})
}

func (c *Client) GetGoals(ctx context.Context) ([]models.Goal, error) {
	var out struct {
		Goals []models.Goal `json:"goals"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/get-goals", nil, &out); err != nil {
		return nil, err
	}
	return out.Goals, nil
}

func (c *Client) DeleteGoal(ctx context.Context, goalID string) error {
	return c.AuthenticatedRequest(ctx, http.MethodDelete, "/delete-goal/"+url.PathEscape(goalID), nil, &statusResponse{})
}

func (c *Client) GoalStatus(ctx context.Context, goalID string) (models.GoalState, error) {
	var out struct {
		State models.GoalState `json:"state"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/goal-status/"+url.PathEscape(goalID), nil, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

// AddMilestone returns the new milestone's id.
func (c *Client) AddMilestone(ctx context.Context, goalID, text string) (string, error) {
	var out statusResponse
	body := map[string]string{"goalId": goalID, "milestone": text}
	if err := c.AuthenticatedRequest(ctx, http.MethodPost, "/add-milestone", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Milestones(ctx context.Context, goalID string) ([]models.Milestone, error) {
	var out struct {
		Milestones []models.Milestone `json:"milestones"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/milestones/"+url.PathEscape(goalID), nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Milestones {
		out.Milestones[i].GoalID = goalID
	}
	return out.Milestones, nil
}

func milestonePath(goalID, milestoneID string) string {
	return "/milestone/" + url.PathEscape(goalID) + "/" + url.PathEscape(milestoneID)
}

func (c *Client) SetMilestoneChecked(ctx context.Context, goalID, milestoneID string, checked bool) error {
	return c.AuthenticatedRequest(ctx, http.MethodPatch, milestonePath(goalID, milestoneID), map[string]bool{"checked": checked}, &statusResponse{})
}

func (c *Client) DeleteMilestone(ctx context.Context, goalID, milestoneID string) error {
	return c.AuthenticatedRequest(ctx, http.MethodDelete, milestonePath(goalID, milestoneID), nil, &statusResponse{})
}

type JournalInput struct {
	Goal      models.GoalRef `json:"goal"`
	Milestone *string        `json:"milestone,omitempty"`
	Response  string         `json:"response"`
	Date      string         `json:"date"`
}

func (c *Client) AddEntry(ctx context.Context, in JournalInput) error {
	return c.AuthenticatedRequest(ctx, http.MethodPost, "/add-entry", in, &statusResponse{})
}

// Journal returns the caller's entries, newest first.
func (c *Client) Journal(ctx context.Context) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/journal", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateSteps is the one anonymous route.
func (c *Client) GenerateSteps(ctx context.Context, goal string) ([]string, error) {
	var out struct {
		Steps []string `json:"steps"`
	}
	if err := c.AnonymousRequest(ctx, "/generate-steps", map[string]string{"goal": goal}, &out); err != nil {
		return nil, err
	}
	return out.Steps, nil
}

type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type tokenResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Signup registers a local account and stores the issued token in the
// session.
func (c *Client) Signup(ctx context.Context, email, password, displayName string) (*Profile, error) {
	return c.authenticate(ctx, "/auth/signup", map[string]string{"email": email, "password": password, "display_name": displayName})
}

func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*Profile, error) {
	var out tokenResponse
	if err := c.AnonymousRequest(ctx, path, body, &out); err != nil {
		return nil, err
	}
	c.session.SetToken(out.Token)
	return &out.User, nil
}
