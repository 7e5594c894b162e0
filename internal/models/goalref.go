package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// GoalRef points a journal entry at a goal either by store id or by the
// goal's text. A bare JSON string decodes as a label; an object decodes as
// {"id": "..."} or {"label": "..."}.
type GoalRef struct {
	ID    string
	Label string
}

func GoalByID(id string) GoalRef { return GoalRef{ID: id} }
func GoalByLabel(label string) GoalRef { return GoalRef{Label: label} }

func (r GoalRef) IsByID() bool { return r.ID != "" }

func (r GoalRef) IsZero() bool {
	return strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Label) == ""
}

func (r *GoalRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = GoalRef{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = GoalByLabel(s)
		return nil
	}
	var obj struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.ID != "" && obj.Label != "" {
		return errors.New("goal reference must carry either id or label, not both")
	}
	*r = GoalRef{ID: obj.ID, Label: obj.Label}
	return nil
}

func (r GoalRef) MarshalJSON() ([]byte, error) {
	if r.IsByID() {
		return json.Marshal(struct {
			ID string `json:"id"`
		}{r.ID})
	}
	return json.Marshal(r.Label)
}

// NormalizeLabel is the canonical form used to match a label to goal text.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
