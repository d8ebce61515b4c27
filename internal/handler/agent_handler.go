package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_visa/internal/middleware"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// AgentHandler handles agent lookups.
type AgentHandler struct {
	agentService *service.AgentService
}

// NewAgentHandler constructs an AgentHandler.
func NewAgentHandler(agentService *service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// Search handles GET /v1/admin/pricing/agents/search?q=
// Each dashboard picker sends its own X-Client-Id so searches from separate
// pickers of one admin do not cancel each other.
func (h *AgentHandler) Search(c *gin.Context) {
	key := fmt.Sprintf("admin-%d:%s", middleware.UserID(c), c.GetHeader("X-Client-Id"))
	agents, err := h.agentService.Search(c.Request.Context(), key, c.Query("q"))
	if err != nil {
		respondError(c, err, "Failed to search agents")
		return
	}
	utils.Success(c, http.StatusOK, "Agents retrieved", agents)
}

// GetAgent handles GET /v1/admin/pricing/agents/:id
func (h *AgentHandler) GetAgent(c *gin.Context) {
	agent, err := h.agentService.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load agent")
		return
	}
	utils.Success(c, http.StatusOK, "Agent retrieved", agent)
}
