package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"coachdesk_backend/internal/analytics/service"
	"coachdesk_backend/platform/httpkit"
)

// Handler handles HTTP requests for the analytics read models.
type Handler struct {
	svc *service.Service
}

// New creates a new analytics handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Funnel retrieves the pipeline funnel summary.
// GET /api/v1/analytics/funnel
func (h *Handler) Funnel(c *gin.Context) {
	result, err := h.svc.Funnel(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Revenue retrieves the revenue dashboard.
// GET /api/v1/analytics/revenue?months=N
func (h *Handler) Revenue(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "0"))

	result, err := h.svc.Revenue(c.Request.Context(), months)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
