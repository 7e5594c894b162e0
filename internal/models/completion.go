package models

import "strings"

type GoalState string

const (
	GoalDraft      GoalState = "draft"
	GoalSaved      GoalState = "saved"
	GoalInProgress GoalState = "in_progress"
	GoalComplete   GoalState = "complete"
)

// IsDraft reports whether a milestone is excluded from completion checks.
func (m Milestone) IsDraft() bool {
	return strings.TrimSpace(m.Text) == ""
}

// IsComplete is the single completion rule: at least one non-draft
// milestone, and every non-draft milestone checked.
func IsComplete(milestones []Milestone) bool {
	counted := 0
	for _, m := range milestones {
		if m.IsDraft() {
			continue
		}
		if !m.Checked {
			return false
		}
		counted++
	}
	return counted > 0
}

// StateOf derives the lifecycle state of a stored goal.
func StateOf(milestones []Milestone) GoalState {
	for _, m := range milestones {
		if !m.IsDraft() {
			if IsComplete(milestones) {
				return GoalComplete
			}
			return GoalInProgress
		}
	}
	return GoalSaved
}
