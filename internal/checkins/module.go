// Package checkins provides the calendar check-ins bounded context module.
package checkins

import (
	"coachdesk_backend/internal/checkins/handler"
	"coachdesk_backend/internal/checkins/repository"
	"coachdesk_backend/internal/checkins/service"
	"coachdesk_backend/internal/events"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/platform/logger"
	"coachdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the check-ins bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the check-ins module.
func NewModule(pool *pgxpool.Pool, clients service.ClientChecker, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewPostgresRepository(pool)
	svc := service.New(repo, clients, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "checkins"
}

// RegisterRoutes mounts check-in routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/check-ins")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.PATCH("/:id", m.handler.Update)
	group.POST("/:id/complete", m.handler.Complete)
	group.POST("/:id/cancel", m.handler.Cancel)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
