package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stickygoals/internal/models"
	"stickygoals/internal/services"
)

type GoalHandler struct {
	svc    *services.GoalService
	logger *zap.Logger
}

func NewGoalHandler(svc *services.GoalService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, logger: logger}
}

type saveGoalRequest struct {
	Goal string `json:"goal"`
}

type goalsResponse struct {
	Goals []models.Goal `json:"goals"`
}

// SaveGoal godoc
// @Summary Save a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} okResponse
// @Failure 400 {object} map[string]string
// @Router /save-goal [post]
func (h *GoalHandler) SaveGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req saveGoalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.svc.CreateGoal(r.Context(), uid, req.Goal); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w)
}

// GetGoals godoc
// @Summary List goals
// @Description Returns the caller's goals, newest first.
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} goalsResponse
// @Failure 401 {object} map[string]string
// @Router /get-goals [get]
func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	goals, err := h.svc.ListGoals(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	writeJSON(w, http.StatusOK, goalsResponse{Goals: goals})
}

// DeleteGoal godoc
// @Summary Delete a goal and its milestones
// @Description Idempotent: deleting a missing goal succeeds.
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Success 200 {object} okResponse
// @Router /delete-goal/{goalId} [delete]
func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.svc.DeleteGoal(r.Context(), uid, chi.URLParam(r, "goalId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w)
}

type goalStatusResponse struct {
	GoalID   string           `json:"goalId"`
	State    models.GoalState `json:"state"`
	Complete bool             `json:"complete"`
}

// GoalStatus godoc
// @Summary Derived goal state
// @Description Reports saved, in_progress or complete from the goal's milestones.
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Success 200 {object} goalStatusResponse
// @Failure 404 {object} map[string]string
// @Router /goal-status/{goalId} [get]
func (h *GoalHandler) GoalStatus(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	goalID := chi.URLParam(r, "goalId")
	state, err := h.svc.GoalState(r.Context(), uid, goalID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, goalStatusResponse{GoalID: goalID, State: state, Complete: state == models.GoalComplete})
}
