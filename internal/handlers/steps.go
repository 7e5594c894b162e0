package handlers

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"stickygoals/internal/apperr"
	"stickygoals/internal/ratelimit"
	"stickygoals/internal/services"
)

type StepsHandler struct {
	svc     *services.GoalService
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

func NewStepsHandler(svc *services.GoalService, limiter ratelimit.Limiter, logger *zap.Logger) *StepsHandler {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &StepsHandler{svc: svc, limiter: limiter, logger: logger}
}

type stepsResponse struct {
	Steps []string `json:"steps"`
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Generate godoc
// @Summary Suggest steps for a goal
// @Description Anonymous. Asks the completion provider for 3-5 actionable steps.
// @Tags suggestions
// @Accept json
// @Produce json
// @Success 200 {object} stepsResponse
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /generate-steps [post]
func (h *StepsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ok, err := h.limiter.Allow(r.Context(), clientIP(r))
	if err != nil {
		// fail open when redis is unreachable
		h.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !ok {
		writeError(w, h.logger, apperr.Wrap(apperr.RateLimited, "too many requests", nil))
		return
	}

	var req struct {
		Goal string `json:"goal"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	steps, err := h.svc.GenerateSteps(r.Context(), req.Goal)
	if err != nil {
		if apperr.KindOf(err) == apperr.Upstream {
			h.logger.Warn("step generation failed", zap.Error(err))
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stepsResponse{Steps: steps})
}
