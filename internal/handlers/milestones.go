package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stickygoals/internal/apperr"
	"stickygoals/internal/models"
	"stickygoals/internal/services"
)

type MilestoneHandler struct {
	svc    *services.GoalService
	logger *zap.Logger
}

func NewMilestoneHandler(svc *services.GoalService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{svc: svc, logger: logger}
}

type addMilestoneRequest struct {
	GoalID    string `json:"goalId"`
	Milestone string `json:"milestone"`
}

type milestonesResponse struct {
	Milestones []models.Milestone `json:"milestones"`
}

// AddMilestone godoc
// @Summary Add a milestone to a goal
// @Tags milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} okResponse
// @Failure 400 {object} map[string]string
// @Router /add-milestone [post]
func (h *MilestoneHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req addMilestoneRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	m, err := h.svc.AddMilestone(r.Context(), uid, req.GoalID, req.Milestone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Status: "ok", ID: m.ID})
}

// List godoc
// @Summary List milestones
// @Description Returns a goal's milestones, oldest first.
// @Tags milestones
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Success 200 {object} milestonesResponse
// @Router /milestones/{goalId} [get]
func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ms, err := h.svc.ListMilestones(r.Context(), uid, chi.URLParam(r, "goalId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if ms == nil {
		ms = []models.Milestone{}
	}
	writeJSON(w, http.StatusOK, milestonesResponse{Milestones: ms})
}

// Update godoc
// @Summary Check or uncheck a milestone
// @Description Only the checked flag is updated; other body fields are ignored.
// @Tags milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Param milestoneId path string true "Milestone ID"
// @Success 200 {object} okResponse
// @Failure 400 {object} map[string]string
// @Router /milestone/{goalId}/{milestoneId} [patch]
func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		Checked *bool `json:"checked"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Checked == nil {
		writeError(w, h.logger, apperr.Invalid("checked is required"))
		return
	}
	err = h.svc.SetMilestoneChecked(r.Context(), uid, chi.URLParam(r, "goalId"), chi.URLParam(r, "milestoneId"), *req.Checked)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w)
}

// Delete godoc
// @Summary Delete a milestone
// @Tags milestones
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Param milestoneId path string true "Milestone ID"
// @Success 200 {object} okResponse
// @Router /milestone/{goalId}/{milestoneId} [delete]
func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.svc.DeleteMilestone(r.Context(), uid, chi.URLParam(r, "goalId"), chi.URLParam(r, "milestoneId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w)
}
