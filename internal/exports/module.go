// Package exports provides CSV snapshot exports to S3-compatible storage.
package exports

import (
	"coachdesk_backend/internal/exports/handler"
	"coachdesk_backend/internal/exports/service"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/internal/storage"
	"coachdesk_backend/platform/logger"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the exports module. store may be nil when
// object storage is not configured.
func NewModule(clients service.ClientSource, payments service.PaymentSource, store storage.ObjectStore, bucket string, log *logger.Logger) *Module {
	svc := service.New(clients, payments, store, bucket, log)
	return &Module{handler: handler.New(svc, log), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/exports")
	group.POST("/clients", m.handler.ExportClients)
	group.POST("/payments", m.handler.ExportPayments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
