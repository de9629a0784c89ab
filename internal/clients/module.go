// Package clients provides the client records bounded context module.
// It owns the lifecycle pipeline, identity consolidation, and the kanban
// board read model.
package clients

import (
	"coachdesk_backend/internal/clients/handler"
	"coachdesk_backend/internal/clients/repository"
	"coachdesk_backend/internal/clients/service"
	"coachdesk_backend/internal/events"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/platform/logger"
	"coachdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the clients module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewPostgresRepository(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// Service returns the service layer for external use (scheduler, analytics).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts client routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/clients")
	group.GET("", m.handler.List)
	group.GET("/board", m.handler.Board)
	group.PUT("/board/:stage/order", m.handler.ReorderColumn)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/:id/move", m.handler.Move)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
