package api

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/orchestrator"
)

type API struct {
	pool *pgxpool.Pool
	orch *orchestrator.Orchestrator
	log  *zap.Logger
}

func NewAPI(pool *pgxpool.Pool, orch *orchestrator.Orchestrator, log *zap.Logger) *API {
	return &API{
		pool: pool,
		orch: orch,
		log:  log,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Health endpoints
	r.Get("/health", a.HealthHandler)
	r.Get("/ready", a.ReadyHandler)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		// Workspaces
		r.Get("/workspaces", a.ListWorkspaces)
		r.Post("/workspaces", a.CreateWorkspace)
		r.Get("/workspaces/{workspace_id}", a.GetWorkspace)
		r.Delete("/workspaces/{workspace_id}", a.DeleteWorkspace)
		r.Post("/workspaces/{workspace_id}/start", a.StartWorkspace)
		r.Post("/workspaces/{workspace_id}/stop", a.StopWorkspace)
		r.Post("/workspaces/{workspace_id}/restart", a.RestartWorkspace)

		// Snapshots
		r.Get("/workspaces/{workspace_id}/snapshots", a.ListSnapshots)
		r.Post("/workspaces/{workspace_id}/snapshots", a.CreateSnapshot)
		r.Post("/workspaces/{workspace_id}/snapshots/{snapshot_id}/restore", a.RestoreSnapshot)

		// Operations
		r.Get("/operations", a.ListOperations)
		r.Get("/operations/{operation_id}", a.GetOperation)
	})

	return r
}
