package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-insight-api/internal/service"
	"github.com/noah-isme/edu-insight-api/pkg/response"
)

// TrendHandler exposes week-over-week trend reads.
type TrendHandler struct {
	trends *service.TrendService
}

// NewTrendHandler constructs the handler.
func NewTrendHandler(trends *service.TrendService) *TrendHandler {
	return &TrendHandler{trends: trends}
}

// StudentTrends godoc
// @Summary Week-over-week trends for one student
// @Tags Trends
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/trends [get]
func (h *TrendHandler) StudentTrends(c *gin.Context) {
	trends, err := h.trends.Trends(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trends, nil)
}
