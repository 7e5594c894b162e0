package clientstate

import "stickygoals/internal/models"

// Achievements are recomputed from the cache on demand; they are not
// authoritative and reset with the cache.
type Achievements struct {
	Goals               int `json:"goals"`
	CompletedGoals      int `json:"completedGoals"`
	Milestones          int `json:"milestones"`
	AcceptedSuggestions int `json:"acceptedSuggestions"`
	JournalEntries      int `json:"journalEntries"`
	PinnedGoals         int `json:"pinnedGoals"`
}

func computeAchievements(s *Snapshot) Achievements {
	a := Achievements{
		Goals:               len(s.Goals),
		AcceptedSuggestions: s.AcceptedSuggestions,
		JournalEntries:      len(s.Journal),
		PinnedGoals:         len(s.Pinned),
	}
	for _, g := range s.Goals {
		for _, m := range g.Milestones {
			if !m.IsDraft() {
				a.Milestones++
			}
		}
		if models.IsComplete(g.Milestones) {
			a.CompletedGoals++
		}
	}
	return a
}

// Badge is a named threshold over the counters.
type Badge struct {
	Name   string `json:"name"`
	Earned bool   `json:"earned"`
}

var badgeRules = []struct {
	name string
	ok   func(Achievements) bool
}{
	{"First goal", func(a Achievements) bool { return a.Goals >= 1 }},
	{"Planner: 10 milestones", func(a Achievements) bool { return a.Milestones >= 10 }},
	{"Finisher", func(a Achievements) bool { return a.CompletedGoals >= 1 }},
	{"Open to ideas: 5 accepted suggestions", func(a Achievements) bool { return a.AcceptedSuggestions >= 5 }},
	{"Reflective: 7 journal entries", func(a Achievements) bool { return a.JournalEntries >= 7 }},
	{"Focused: a pinned goal", func(a Achievements) bool { return a.PinnedGoals >= 1 }},
}

func (a Achievements) Badges() []Badge {
	out := make([]Badge, 0, len(badgeRules))
	for _, r := range badgeRules {
		out = append(out, Badge{Name: r.name, Earned: r.ok(a)})
	}
	return out
}
