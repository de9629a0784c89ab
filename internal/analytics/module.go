// Package analytics provides the funnel and revenue dashboard read models.
package analytics

import (
	"coachdesk_backend/internal/analytics/handler"
	"coachdesk_backend/internal/analytics/service"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/platform/logger"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the analytics module over the clients and
// payments data sources.
func NewModule(clients service.ClientSource, payments service.RevenueSource, log *logger.Logger) *Module {
	svc := service.New(clients, payments, log)
	return &Module{handler: handler.New(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/analytics")
	group.GET("/funnel", m.handler.Funnel)
	group.GET("/revenue", m.handler.Revenue)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
