package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"stickygoals/internal/models"
	"stickygoals/internal/services"
)

type JournalHandler struct {
	svc    *services.GoalService
	logger *zap.Logger
}

func NewJournalHandler(svc *services.GoalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{svc: svc, logger: logger}
}

type journalRequest struct {
	Goal      models.GoalRef `json:"goal"`      // label string, {"id"} or {"label"}
	Milestone *string        `json:"milestone"` // optional
	Response  string         `json:"response"`
	Date      string         `json:"date"` // YYYY-MM-DD provided by frontend
}

// AddEntry godoc
// @Summary Append a journal entry
// @Tags journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} okResponse
// @Failure 400 {object} map[string]string
// @Router /add-entry [post]
func (h *JournalHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req journalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	_, err = h.svc.AddJournalEntry(r.Context(), uid, services.JournalInput{
		Goal:      req.Goal,
		Milestone: req.Milestone,
		Response:  req.Response,
		Date:      req.Date,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w)
}

// List godoc
// @Summary List journal entries
// @Description Returns the caller's entries newest first as a bare array.
// @Tags journal
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.JournalEntry
// @Router /journal [get]
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.svc.ListJournal(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
