package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/api/http/handlers"
	"github.com/finalapps/orbit/internal/auth"
	"github.com/finalapps/orbit/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Ingestion      *handlers.IngestionHandler
	Inquiries      *handlers.InquiriesHandler
	Replies        *handlers.RepliesHandler
	Operators      *handlers.OperatorsHandler
	Sweep          *handlers.SweepHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	// harvester feed
	ingest := api.Group("/ingest", auth.RequireRole(domain.RoleService))
	ingest.Post("/", cfg.Ingestion.Ingest)
	ingest.Post("/batch", cfg.Ingestion.IngestBatch)

	api.Post("/sweep/run", auth.RequireRole(domain.RoleService), cfg.Sweep.Run)

	inquiries := api.Group("/inquiries", auth.RequireRole(domain.RoleOperator))
	inquiries.Get("/", cfg.Inquiries.List)
	inquiries.Get("/:id", cfg.Inquiries.Get)
	inquiries.Post("/:id/replies", cfg.Replies.Submit)
	inquiries.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Inquiries.Assign)

	api.Patch("/replies/:id/outcome", auth.RequireRole(domain.RoleAdmin), cfg.Replies.ReviseOutcome)

	operators := api.Group("/operators", auth.RequireRole(domain.RoleOperator))
	operators.Get("/", cfg.Operators.List)
	operators.Get("/leaderboard", cfg.Operators.Leaderboard)
	operators.Get("/workload", cfg.Operators.Workload)
	operators.Get("/:id", cfg.Operators.Get)
	operators.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Operators.Create)
	operators.Patch("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Operators.Update)
	operators.Post("/:id/recompute", auth.RequireRole(domain.RoleAdmin), cfg.Operators.Recompute)

	api.Get("/stats", auth.RequireRole(domain.RoleOperator), cfg.Inquiries.Stats)
	api.Get("/activity", auth.RequireRole(domain.RoleOperator), cfg.Inquiries.Activity)
}
