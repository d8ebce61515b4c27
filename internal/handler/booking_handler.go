package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// BookingHandler serves deadline figures for booking lists.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type urgencyRequest struct {
	Bookings []models.BookingDeadlineInput `json:"bookings" binding:"required"`
}

// Urgency handles POST /v1/admin/bookings/urgency
func (h *BookingHandler) Urgency(c *gin.Context) {
	var req urgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	utils.Success(c, http.StatusOK, "Urgency computed", h.bookingService.Urgency(req.Bookings))
}
