package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/export"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// PriceSheetHandler serves printable price lists.
type PriceSheetHandler struct {
	sheetService *service.PriceSheetService
}

// NewPriceSheetHandler constructs a PriceSheetHandler.
func NewPriceSheetHandler(sheetService *service.PriceSheetService) *PriceSheetHandler {
	return &PriceSheetHandler{sheetService: sheetService}
}

// Sheet handles GET /v1/admin/pricing/sheet?format=json|xlsx|pdf
// It takes the pricing view filters plus visaIds, agentId and the
// showRetail, showAgentStandard and showPromo column switches.
func (h *PriceSheetHandler) Sheet(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "xlsx" && format != "pdf" {
		badRequest(c, "format must be json, xlsx or pdf")
		return
	}

	sheet, err := h.sheetService.Build(c.Request.Context(), models.PriceSheetOptions{
		Filter:            filter,
		VisaIDs:           queryList(c, "visaIds"),
		ShowRetail:        queryBool(c, "showRetail", true),
		ShowAgentStandard: queryBool(c, "showAgentStandard", true),
		ShowPromo:         queryBool(c, "showPromo", false),
		AgentID:           strings.TrimSpace(c.Query("agentId")),
	})
	if err != nil {
		respondError(c, err, "Failed to build price sheet")
		return
	}

	filename := "price-list-" + sheet.GeneratedAt.Format("2006-01-02")
	switch format {
	case "xlsx":
		body, err := export.XLSX(sheet)
		if err != nil {
			respondError(c, err, "Failed to render price sheet")
			return
		}
		utils.File(c, filename+".xlsx", export.ContentTypeXLSX, body)
	case "pdf":
		body, err := export.PDF(sheet)
		if err != nil {
			respondError(c, err, "Failed to render price sheet")
			return
		}
		utils.File(c, filename+".pdf", export.ContentTypePDF, body)
	default:
		utils.Success(c, http.StatusOK, "Price sheet built", sheet)
	}
}
