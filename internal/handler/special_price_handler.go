package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// SpecialPriceHandler handles agent special price endpoints.
type SpecialPriceHandler struct {
	specialService *service.SpecialPriceService
}

// NewSpecialPriceHandler constructs a SpecialPriceHandler.
func NewSpecialPriceHandler(specialService *service.SpecialPriceService) *SpecialPriceHandler {
	return &SpecialPriceHandler{specialService: specialService}
}

// List handles GET /v1/admin/pricing/visas/:id/special-prices
func (h *SpecialPriceHandler) List(c *gin.Context) {
	rows, err := h.specialService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load special prices")
		return
	}
	if rows == nil {
		rows = []models.AgentSpecialPrice{}
	}
	utils.Success(c, http.StatusOK, "Special prices retrieved", rows)
}

// Upsert handles PUT /v1/admin/pricing/special-prices
func (h *SpecialPriceHandler) Upsert(c *gin.Context) {
	var req models.SpecialPriceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	sp, err := h.specialService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to save special price")
		return
	}
	utils.Success(c, http.StatusOK, "Special price saved", sp)
}

type bulkSpecialRequest struct {
	Items []models.SpecialPriceInput `json:"items" binding:"required"`
}

// BulkUpsert handles POST /v1/admin/pricing/special-prices/bulk
func (h *SpecialPriceHandler) BulkUpsert(c *gin.Context) {
	var req bulkSpecialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.specialService.BulkUpsert(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err, "Failed to save special prices")
		return
	}
	respondBulk(c, res, "Special prices saved")
}

// Assign handles POST /v1/admin/pricing/special-prices/assign
func (h *SpecialPriceHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.specialService.Assign(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to assign special prices")
		return
	}
	respondBulk(c, res, "Special prices assigned")
}

// ApplyRule handles POST /v1/admin/pricing/special-prices/apply-rule
func (h *SpecialPriceHandler) ApplyRule(c *gin.Context) {
	var req service.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.specialService.ApplyRule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to apply pricing rule")
		return
	}
	respondBulk(c, res, "Pricing rule applied")
}

// Delete handles DELETE /v1/admin/pricing/special-prices/:id
func (h *SpecialPriceHandler) Delete(c *gin.Context) {
	if err := h.specialService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete special price")
		return
	}
	utils.Success(c, http.StatusOK, "Special price deleted", nil)
}

// AgentOverrides handles GET /v1/admin/pricing/agents/:id/special-prices
func (h *SpecialPriceHandler) AgentOverrides(c *gin.Context) {
	m, err := h.specialService.AgentOverrides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load agent prices")
		return
	}
	utils.Success(c, http.StatusOK, "Agent prices retrieved", m)
}
