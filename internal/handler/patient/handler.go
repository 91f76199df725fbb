package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/patient"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.PUT("/:id", h.Update)
		patients.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	created, err := h.svc.CreatePatient(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid patient ID", err))
		return
	}

	found, err := h.svc.GetPatient(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.PatientFilters{
		Status:     model.PatientStatus(c.Query("status")),
		SearchTerm: c.Query("search"),
	}
	if raw := c.Query("therapist_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
			return
		}
		filters.TherapistID = id
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid patient ID", err))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	updated, err := h.svc.UpdatePatient(c.Request.Context(), handler.ActorID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid patient ID", err))
		return
	}

	if err := h.svc.DeletePatient(c.Request.Context(), handler.ActorID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
