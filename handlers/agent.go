package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voiceline/voiceline-api/db"
	"github.com/voiceline/voiceline-api/services"
)

type AgentHandler struct {
	AgentService *services.AgentService
}

func NewAgentHandler(agentService *services.AgentService) *AgentHandler {
	return &AgentHandler{AgentService: agentService}
}

// ListAgents retrieves all agents
func (h *AgentHandler) ListAgents(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	agents, err := h.AgentService.ListAgents(activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve agents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agents": agents,
		"total":  len(agents),
	})
}

// GetAgent retrieves a specific agent
func (h *AgentHandler) GetAgent(c *gin.Context) {
	id := c.Param("id")

	agent, err := h.AgentService.GetAgent(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	c.JSON(http.StatusOK, agent)
}

// CreateAgent creates a new agent
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req db.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, err := h.AgentService.CreateAgent(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create agent"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"agent":   agent,
		"message": "Agent created successfully",
	})
}

// UpdateAgent updates an existing agent
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	id := c.Param("id")

	var req db.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, err := h.AgentService.UpdateAgent(id, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update agent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent":   agent,
		"message": "Agent updated successfully",
	})
}

// DeactivateAgent soft deletes an agent
func (h *AgentHandler) DeactivateAgent(c *gin.Context) {
	id := c.Param("id")

	if err := h.AgentService.DeactivateAgent(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate agent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Agent deactivated successfully"})
}

// PHONE NUMBER ASSIGNMENT ENDPOINTS

// ListPhoneNumbers retrieves all phone number assignments
func (h *AgentHandler) ListPhoneNumbers(c *gin.Context) {
	assignments, err := h.AgentService.ListPhoneNumberAssignments()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve phone numbers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phone_numbers": assignments,
		"total":         len(assignments),
	})
}

// AssignPhoneNumber maps a phone number to an agent
func (h *AgentHandler) AssignPhoneNumber(c *gin.Context) {
	var req db.AssignPhoneNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := h.AgentService.AssignPhoneNumber(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign phone number"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"assignment": assignment,
		"message":    "Phone number assigned successfully",
	})
}

// UnassignPhoneNumber removes a phone number assignment
func (h *AgentHandler) UnassignPhoneNumber(c *gin.Context) {
	phoneNumber := c.Param("number")

	if err := h.AgentService.UnassignPhoneNumber(phoneNumber); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign phone number"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Phone number unassigned successfully"})
}
