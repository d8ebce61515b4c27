package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// CampaignHandler handles promotional campaign endpoints.
type CampaignHandler struct {
	campaignService *service.CampaignService
}

// NewCampaignHandler constructs a CampaignHandler.
func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// List handles GET /v1/admin/pricing/visas/:id/campaigns
func (h *CampaignHandler) List(c *gin.Context) {
	rows, err := h.campaignService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load campaigns")
		return
	}
	if rows == nil {
		rows = []models.Campaign{}
	}
	utils.Success(c, http.StatusOK, "Campaigns retrieved", rows)
}

// Upsert handles PUT /v1/admin/pricing/campaigns
func (h *CampaignHandler) Upsert(c *gin.Context) {
	var req models.CampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	campaign, err := h.campaignService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to save campaign")
		return
	}
	utils.Success(c, http.StatusOK, "Campaign saved", campaign)
}

// BulkCreate handles POST /v1/admin/pricing/campaigns/bulk
func (h *CampaignHandler) BulkCreate(c *gin.Context) {
	var req service.BulkCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.campaignService.BulkCreate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create campaigns")
		return
	}
	respondBulk(c, res, "Campaigns created")
}

// Delete handles DELETE /v1/admin/pricing/campaigns/:id
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.campaignService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete campaign")
		return
	}
	utils.Success(c, http.StatusOK, "Campaign deleted", nil)
}
