package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/internal/service"
	appErrors "github.com/noah-isme/edu-insight-api/pkg/errors"
	"github.com/noah-isme/edu-insight-api/pkg/response"
)

// InterventionHandler exposes intervention CRUD endpoints.
type InterventionHandler struct {
	interventions *service.InterventionService
}

// NewInterventionHandler constructs the handler.
func NewInterventionHandler(interventions *service.InterventionService) *InterventionHandler {
	return &InterventionHandler{interventions: interventions}
}

// Create godoc
// @Summary Open an intervention for a student
// @Tags Interventions
// @Accept json
// @Produce json
// @Param payload body models.CreateInterventionRequest true "Intervention"
// @Success 201 {object} response.Envelope
// @Router /interventions [post]
func (h *InterventionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload"))
		return
	}

	iv, err := h.interventions.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, iv)
}

// Get godoc
// @Summary Get one intervention
// @Tags Interventions
// @Produce json
// @Param id path string true "Intervention ID"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id} [get]
func (h *InterventionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	iv, err := h.interventions.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iv, nil)
}

// List godoc
// @Summary List interventions
// @Tags Interventions
// @Produce json
// @Param studentId query string false "Student filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interventions [get]
func (h *InterventionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.InterventionFilter{StudentID: c.Query("studentId")}
	if raw := c.Query("status"); raw != "" {
		status := models.InterventionStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown intervention status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			filter.Page = page
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			filter.PageSize = size
		}
	}

	items, total, err := h.interventions.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Update godoc
// @Summary Update an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body models.UpdateInterventionRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id} [patch]
func (h *InterventionHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervention payload"))
		return
	}

	iv, err := h.interventions.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iv, nil)
}

// Delete godoc
// @Summary Delete an intervention
// @Tags Interventions
// @Param id path string true "Intervention ID"
// @Success 204
// @Router /interventions/{id} [delete]
func (h *InterventionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.interventions.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
