// Package payments provides the payments bounded context module: Stripe-synced
// payment records, merged-identity payment history, and revenue recomputation.
package payments

import (
	"coachdesk_backend/internal/events"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/internal/payments/handler"
	"coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/payments/service"
	"coachdesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the payments module. stripeAPI and
// enqueuer may be nil when the corresponding integration is not configured.
func NewModule(pool *pgxpool.Pool, stripeAPI service.StripeAPI, directory service.ClientDirectory, enqueuer service.SyncEnqueuer, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.NewPostgresRepository(pool)
	svc := service.New(repo, stripeAPI, directory, bus, log)
	h := handler.New(svc, enqueuer)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "payments"
}

// Service returns the service layer for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module read models.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts payment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/clients/:id/payments", m.handler.GetClientPayments)
	ctx.Protected.POST("/payments/sync", m.handler.TriggerSync)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
