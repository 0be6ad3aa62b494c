package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/internal/service"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
	"github.com/noah-isme/edu-insight-api/pkg/response"
)

// AtRiskHandler exposes the ranked at-risk student listing.
type AtRiskHandler struct {
	atRisk *service.AtRiskService
}

// NewAtRiskHandler constructs the handler.
func NewAtRiskHandler(atRisk *service.AtRiskService) *AtRiskHandler {
	return &AtRiskHandler{atRisk: atRisk}
}

// List godoc
// @Summary List at-risk students
// @Tags AtRisk
// @Produce json
// @Param level query string false "Comma-separated risk levels or 'all'"
// @Param program query string false "Program filter"
// @Param semesterId query string false "Semester filter"
// @Param search query string false "Match against name, email, or student number"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /at-risk [get]
func (h *AtRiskHandler) List(c *gin.Context) {
	filter, err := parseAtRiskFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.atRisk.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"students": page.Students,
		"summary":  page.Summary,
	}, &page.Pagination)
}

func parseAtRiskFilter(c *gin.Context) (models.AtRiskFilter, error) {
	filter := models.AtRiskFilter{
		Program:    c.Query("program"),
		SemesterID: c.Query("semesterId"),
		Search:     strings.TrimSpace(c.Query("search")),
	}

	if raw := c.Query("level"); raw != "" {
		if strings.EqualFold(raw, "all") {
			filter.IncludeAll = true
		} else {
			for _, part := range strings.Split(raw, ",") {
				level := models.RiskLevel(strings.TrimSpace(part))
				if !level.Valid() {
					return filter, appErrors.Clone(appErrors.ErrValidation, "unknown risk level "+string(level))
				}
				filter.Levels = append(filter.Levels, level)
			}
		}
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid page")
		}
		filter.Page = page
	}
	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid pageSize")
		}
		filter.PageSize = size
	}
	return filter, nil
}
