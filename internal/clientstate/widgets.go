package clientstate

import (
	"fmt"
	"sort"
	"strings"
)

type WidgetType string

const (
	WidgetQuote    WidgetType = "quote"
	WidgetImage    WidgetType = "image"
	WidgetPlaylist WidgetType = "playlist"
	WidgetHabit    WidgetType = "habit"
)

func ParseWidgetType(s string) (WidgetType, error) {
	switch t := WidgetType(strings.ToLower(strings.TrimSpace(s))); t {
	case WidgetQuote, WidgetImage, WidgetPlaylist, WidgetHabit:
		return t, nil
	}
	return "", fmt.Errorf("unknown widget type %q (want quote, image, playlist or habit)", s)
}

// Widget is a board decoration. It lives only in the local cache and is
// never sent to the server.
type Widget struct {
	ID        string     `json:"id"`
	Type      WidgetType `json:"type"`
	Content   string     `json:"content"`
	GoalLabel string     `json:"goalLabel,omitempty"`
	Position  int        `json:"position"`
}

func sortWidgets(ws []Widget) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Position < ws[j].Position })
}

// renumber makes positions dense, 0..n-1, in current slice order.
func renumber(ws []Widget) {
	for i := range ws {
		ws[i].Position = i
	}
}
