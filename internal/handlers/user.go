package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"stickygoals/internal/services"
)

type UserHandler struct {
	svc    *services.GoalService
	logger *zap.Logger
}

func NewUserHandler(svc *services.GoalService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// GetMe godoc
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDTO
// @Failure 404 {object} map[string]string
// @Router /me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.svc.Profile(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*u))
}
