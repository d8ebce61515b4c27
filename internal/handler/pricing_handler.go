package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// PricingHandler handles visa price HTTP endpoints.
type PricingHandler struct {
	pricingService *service.PricingService
}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// ListVisas handles GET /v1/admin/pricing/visas
func (h *PricingHandler) ListVisas(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	views, err := h.pricingService.PricingView(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to load pricing data")
		return
	}
	utils.Success(c, http.StatusOK, "Pricing data retrieved", views)
}

// Options handles GET /v1/admin/pricing/visas/options
func (h *PricingHandler) Options(c *gin.Context) {
	opts, err := h.pricingService.Options(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load filter options")
		return
	}
	utils.Success(c, http.StatusOK, "Filter options retrieved", opts)
}

// GetVisa handles GET /v1/admin/pricing/visas/:id
func (h *PricingHandler) GetVisa(c *gin.Context) {
	visa, err := h.pricingService.GetVisa(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load visa")
		return
	}
	utils.Success(c, http.StatusOK, "Visa retrieved", visa)
}

// UpdatePrice handles PATCH /v1/admin/pricing/visas/:id/price
func (h *PricingHandler) UpdatePrice(c *gin.Context) {
	var req models.PriceEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	visa, err := h.pricingService.UpdateVisaPrice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "Failed to update price")
		return
	}
	utils.Success(c, http.StatusOK, "Price updated", visa)
}

// BulkUpdate handles POST /v1/admin/pricing/visas/bulk-update
func (h *PricingHandler) BulkUpdate(c *gin.Context) {
	var req service.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.pricingService.BulkUpdatePrices(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to update prices")
		return
	}
	respondBulk(c, res, "Prices updated")
}

// Resolve handles GET /v1/admin/pricing/visas/:id/resolve?agentId=&quantity=
func (h *PricingHandler) Resolve(c *gin.Context) {
	quantity := 1
	if q := c.Query("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			badRequest(c, "quantity must be a positive whole number")
			return
		}
		quantity = n
	}
	res, err := h.pricingService.Resolve(c.Request.Context(), c.Param("id"), c.Query("agentId"), quantity)
	if err != nil {
		respondError(c, err, "Failed to resolve price")
		return
	}
	utils.Success(c, http.StatusOK, "Price resolved", res)
}

// Deadline handles GET /v1/admin/pricing/visas/:id/deadline?departureDate=&bufferDays=
func (h *PricingHandler) Deadline(c *gin.Context) {
	departure := c.Query("departureDate")
	if departure == "" {
		badRequest(c, "departureDate is required")
		return
	}
	var buffer *int
	if b := c.Query("bufferDays"); b != "" {
		n, err := strconv.Atoi(b)
		if err != nil {
			badRequest(c, "bufferDays must be a whole number")
			return
		}
		buffer = &n
	}
	a, err := h.pricingService.VisaDeadline(c.Request.Context(), c.Param("id"), departure, buffer)
	if err != nil {
		respondError(c, err, "Failed to compute deadline")
		return
	}
	utils.Success(c, http.StatusOK, "Deadline computed", a)
}
