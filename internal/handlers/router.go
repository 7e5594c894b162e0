package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stickygoals/internal/identity"
	"stickygoals/internal/middleware"
	"stickygoals/internal/ratelimit"
	"stickygoals/internal/services"
	"stickygoals/internal/store"
)

// RouterConfig carries everything the routes need. Issuer may be nil when
// local accounts are disabled; Limiter may be nil for no rate limit.
type RouterConfig struct {
	Service     *services.GoalService
	Store       store.Store
	Verifier    identity.Verifier
	Issuer      *identity.JWTIssuer
	Limiter     ratelimit.Limiter
	CORSOrigins []string
	TrustProxy  bool
	Logger      *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.ZapRequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	goals := NewGoalHandler(cfg.Service, cfg.Logger)
	milestones := NewMilestoneHandler(cfg.Service, cfg.Logger)
	journal := NewJournalHandler(cfg.Service, cfg.Logger)
	steps := NewStepsHandler(cfg.Service, cfg.Limiter, cfg.Logger)
	users := NewUserHandler(cfg.Service, cfg.Logger)
	health := NewHealthHandler(cfg.Store, cfg.Logger)
	authMW := middleware.NewAuthMiddleware(cfg.Verifier, cfg.Service, cfg.Logger)

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/generate-steps", steps.Generate)

	if cfg.Issuer != nil {
		auth := NewAuthHandler(cfg.Store, cfg.Issuer, cfg.Logger)
		r.Post("/auth/signup", auth.Signup)
		r.Post("/auth/login", auth.Login)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(authMW.RequireAuth)
		pr.Get("/me", users.GetMe)

		pr.Post("/save-goal", goals.SaveGoal)
		pr.Get("/get-goals", goals.GetGoals)
		pr.Delete("/delete-goal/{goalId}", goals.DeleteGoal)
		pr.Get("/goal-status/{goalId}", goals.GoalStatus)

		pr.Post("/add-milestone", milestones.AddMilestone)
		pr.Get("/milestones/{goalId}", milestones.List)
		pr.Patch("/milestone/{goalId}/{milestoneId}", milestones.Update)
		pr.Delete("/milestone/{goalId}/{milestoneId}", milestones.Delete)

		pr.Post("/add-entry", journal.AddEntry)
		pr.Get("/journal", journal.List)
	})

	return r
}
