package therapist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/therapist"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *therapist.Service
}

func NewHandler(svc *therapist.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	therapists := r.Group("/therapists")
	{
		therapists.POST("", h.Create)
		therapists.GET("", h.List)
		therapists.GET("/:id", h.Get)
		therapists.PUT("/:id", h.Update)
		therapists.DELETE("/:id", h.Delete)

		therapists.PUT("/:id/availability", h.SetAvailability)
		therapists.GET("/:id/availability", h.GetAvailability)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	created, err := h.svc.CreateTherapist(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	found, err := h.svc.GetTherapist(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.TherapistFilters{
		Role:   model.TherapistRole(c.Query("role")),
		Status: c.Query("status"),
	}

	therapists, err := h.svc.ListTherapists(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(therapists))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	var req model.UpdateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	updated, err := h.svc.UpdateTherapist(c.Request.Context(), handler.ActorID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	if err := h.svc.DeleteTherapist(c.Request.Context(), handler.ActorID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	var req model.UpsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	day, err := h.svc.SetAvailability(c.Request.Context(), handler.ActorID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(day))
}

func (h *Handler) GetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.Error(apperrors.NewBadRequest("from and to query parameters are required", nil))
		return
	}

	days, err := h.svc.GetAvailability(c.Request.Context(), id, from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(days))
}
