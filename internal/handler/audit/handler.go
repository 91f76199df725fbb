package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/audit"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *audit.Service
}

func NewHandler(svc *audit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-logs", h.List)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AuditFilters{
		ResourceType: c.Query("resource_type"),
	}
	if raw := c.Query("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid actor ID", err))
			return
		}
		filters.ActorID = id
	}
	if raw := c.Query("resource_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid resource ID", err))
			return
		}
		filters.ResourceID = id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid from date", err))
			return
		}
		filters.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid to date", err))
			return
		}
		filters.To = t
	}

	logs, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
