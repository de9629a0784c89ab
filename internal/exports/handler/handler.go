package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coachdesk_backend/internal/exports/service"
	"coachdesk_backend/platform/httpkit"
	"coachdesk_backend/platform/logger"
)

// Handler handles HTTP requests for CSV exports.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates a new exports handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ExportClients uploads a clients CSV snapshot and returns its download URL.
// POST /api/v1/exports/clients
func (h *Handler) ExportClients(c *gin.Context) {
	requester := httpkit.MustGetIdentity(c)
	if requester == nil {
		return
	}

	result, err := h.svc.ExportClients(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	h.log.Info("clients export created", "userId", requester.UserID(), "objectKey", result.ObjectKey, "rows", result.RowCount)
	httpkit.JSON(c, http.StatusCreated, result)
}

// ExportPayments uploads a payments CSV snapshot and returns its download URL.
// POST /api/v1/exports/payments
func (h *Handler) ExportPayments(c *gin.Context) {
	requester := httpkit.MustGetIdentity(c)
	if requester == nil {
		return
	}

	result, err := h.svc.ExportPayments(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	h.log.Info("payments export created", "userId", requester.UserID(), "objectKey", result.ObjectKey, "rows", result.RowCount)
	httpkit.JSON(c, http.StatusCreated, result)
}
