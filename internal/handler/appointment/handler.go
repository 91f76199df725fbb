package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/appointment"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *appointment.Service
}

func NewHandler(svc *appointment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.List)
		appointments.GET("/slots", h.OpenSlots)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	created, err := h.svc.CreateAppointment(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	found, err := h.svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status:   model.AppointmentStatus(c.Query("status")),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	if raw := c.Query("therapist_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
			return
		}
		filters.TherapistID = id
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid patient ID", err))
			return
		}
		filters.PatientID = id
	}

	appointments, err := h.svc.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

// OpenSlots returns the free 30-minute slot starts for one therapist/date.
func (h *Handler) OpenSlots(c *gin.Context) {
	raw := c.Query("therapist_id")
	date := c.Query("date")
	if raw == "" || date == "" {
		c.Error(apperrors.NewBadRequest("therapist_id and date query parameters are required", nil))
		return
	}
	therapistID, err := uuid.Parse(raw)
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	slots, err := h.svc.OpenSlots(c.Request.Context(), therapistID, date)
	if err != nil {
		c.Error(err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"therapist_id": therapistID,
		"date":         date,
		"slots":        slots,
	}))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	updated, err := h.svc.UpdateAppointment(c.Request.Context(), handler.ActorID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	if err := h.svc.CancelAppointment(c.Request.Context(), handler.ActorID(c), id, req.Reason); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"id": id, "status": model.AppointmentStatusCancelled}))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	if err := h.svc.DeleteAppointment(c.Request.Context(), handler.ActorID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
