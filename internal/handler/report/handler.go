package report

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/report"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.POST("", h.Create)
		reports.GET("", h.List)
		reports.GET("/:id", h.Get)
		reports.PUT("/:id", h.Update)
		reports.POST("/:id/finalize", h.Finalize)
		reports.DELETE("/:id", h.Delete)
		reports.GET("/:id/pdf", h.PDF)

		reports.GET("/:id/access", h.ListAccess)
		reports.POST("/:id/access", h.GrantAccess)
		reports.DELETE("/:id/access/:therapistId", h.RevokeAccess)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	created, err := h.svc.CreateReport(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	found, err := h.svc.GetReport(c.Request.Context(), handler.ActorID(c), handler.IsAdmin(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.ReportFilters{
		Type:   model.ReportType(c.Query("type")),
		Status: model.ReportStatus(c.Query("status")),
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperrors.NewBadRequest("invalid patient ID", err))
			return
		}
		filters.PatientID = id
	}

	// Non-admins only see reports they hold a grant for.
	if !handler.IsAdmin(c) {
		filters.TherapistID = handler.ActorID(c)
	}

	reports, err := h.svc.ListReports(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reports))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	var req model.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	updated, err := h.svc.UpdateReport(c.Request.Context(), handler.ActorID(c), handler.IsAdmin(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Finalize(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	finalized, err := h.svc.FinalizeReport(c.Request.Context(), handler.ActorID(c), handler.IsAdmin(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(finalized))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	if err := h.svc.DeleteReport(c.Request.Context(), handler.ActorID(c), handler.IsAdmin(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	pdf, err := h.svc.RenderPDF(c.Request.Context(), handler.ActorID(c), handler.IsAdmin(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) ListAccess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	grants, err := h.svc.ListAccess(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(grants))
}

func (h *Handler) GrantAccess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}

	var req struct {
		TherapistID string `json:"therapist_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}
	therapistID, _ := uuid.Parse(req.TherapistID)

	if err := h.svc.GrantAccess(c.Request.Context(), handler.ActorID(c), id, therapistID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RevokeAccess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid report ID", err))
		return
	}
	therapistID, err := uuid.Parse(c.Param("therapistId"))
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid therapist ID", err))
		return
	}

	if err := h.svc.RevokeAccess(c.Request.Context(), handler.ActorID(c), id, therapistID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
