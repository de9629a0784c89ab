package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachdesk_backend/internal/payments/service"
	"coachdesk_backend/platform/httpkit"
)

// Handler handles HTTP requests for payment history and sync triggers.
type Handler struct {
	svc      *service.Service
	enqueuer service.SyncEnqueuer
}

// New creates a new payments handler. enqueuer may be nil when no background
// worker is configured.
func New(svc *service.Service, enqueuer service.SyncEnqueuer) *Handler {
	return &Handler{svc: svc, enqueuer: enqueuer}
}

// GetClientPayments retrieves the payment history across a merged identity.
// GET /api/v1/clients/:id/payments?mergedIds=a,b
func (h *Handler) GetClientPayments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}

	var mergedIDs []uuid.UUID
	if raw := c.Query("mergedIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			mergedID, err := uuid.Parse(part)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "invalid merged client ID", nil)
				return
			}
			mergedIDs = append(mergedIDs, mergedID)
		}
	}

	result, err := h.svc.GetClientPayments(c.Request.Context(), id, mergedIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// TriggerSync enqueues a background Stripe sync run.
// POST /api/v1/payments/sync
func (h *Handler) TriggerSync(c *gin.Context) {
	result, err := h.svc.RequestSync(c.Request.Context(), h.enqueuer)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}
