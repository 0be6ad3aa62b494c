package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/internal/service"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
	"github.com/noah-isme/edu-insight-api/pkg/response"
)

// BatchHandler exposes the on-demand snapshot recompute trigger.
type BatchHandler struct {
	batch *service.BatchService
	cfg   config.BatchConfig
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(batch *service.BatchService, cfg config.BatchConfig) *BatchHandler {
	return &BatchHandler{batch: batch, cfg: cfg}
}

type recomputeRequest struct {
	Scope      models.CohortScope `json:"scope"`
	StudentID  string             `json:"studentId,omitempty"`
	SemesterID string             `json:"semesterId,omitempty"`
	WeekAnchor *time.Time         `json:"weekAnchor,omitempty"`
}

// Recompute godoc
// @Summary Recompute weekly snapshots for a cohort
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body recomputeRequest true "Cohort selector"
// @Success 200 {object} response.Envelope
// @Router /snapshots/recompute [post]
func (h *BatchHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recompute payload"))
		return
	}

	spec := models.CohortSpec{Scope: req.Scope, StudentID: req.StudentID, SemesterID: req.SemesterID}
	anchor := time.Now()
	if req.WeekAnchor != nil {
		anchor = *req.WeekAnchor
	}

	result, err := h.batch.Run(c.Request.Context(), spec, anchor, h.cfg.OnDemandBudget)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
