package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/pricing"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// respondError maps a service error onto the response envelope. Unexpected
// storage failures ask the client to reload since its view may be stale.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message)
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, utils.ErrLockBusy):
		utils.Error(c, http.StatusConflict, "MUTATION_IN_PROGRESS", "Another pricing change is in progress, try again")
	case errors.Is(err, utils.ErrSuperseded):
		utils.Error(c, http.StatusConflict, "SUPERSEDED", "Superseded by a newer request")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		utils.ErrorReload(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

// respondBulk writes a bulk report: 200 when every item succeeded, 207 with
// the per-item outcome otherwise.
func respondBulk(c *gin.Context, res *pricing.BulkResult, message string) {
	if res.Success() {
		utils.Success(c, http.StatusOK, message, res)
		return
	}
	utils.Partial(c, "Some items failed, reload to see the current prices", res)
}

func badRequest(c *gin.Context, message string) {
	utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// parseFilter reads pricing view filters. Multi-value filters accept
// repeated parameters or comma-separated lists.
func parseFilter(c *gin.Context) (models.VisaFilter, error) {
	f := models.VisaFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Countries: queryList(c, "country"),
		Types:     queryList(c, "type"),
	}
	var err error
	if f.MinPrice, err = queryInt64(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryInt64(c, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func queryInt64(c *gin.Context, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, utils.Invalid(key + " must be a whole number")
	}
	return &v, nil
}

func queryBool(c *gin.Context, key string, def bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
