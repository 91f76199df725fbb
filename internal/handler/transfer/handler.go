package transfer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/physioflow/practice-api/internal/handler"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/transfer"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Handler struct {
	svc *transfer.Service
}

func NewHandler(svc *transfer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	transfers := r.Group("/transfers")
	{
		transfers.POST("/check", h.Check)
		transfers.POST("", h.Execute)
	}
}

// Check is a dry run: it reports which appointments would transfer cleanly
// and which conflict, without writing anything.
func (h *Handler) Check(c *gin.Context) {
	var req model.TransferCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	result, err := h.svc.Evaluate(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

// Execute commits the transfer atomically. Unresolved conflicts come back
// as a 409 listing every blocked appointment; nothing is applied.
func (h *Handler) Execute(c *gin.Context) {
	var req model.ExecuteTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request body", err))
		return
	}

	result, conflicts, err := h.svc.Execute(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		if len(conflicts) > 0 {
			c.JSON(http.StatusConflict, gin.H{
				"status":    "error",
				"error":     "transfer has unresolved conflicts",
				"conflicts": conflicts,
			})
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
