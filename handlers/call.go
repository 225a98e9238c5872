package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voiceline/voiceline-api/db"
	"github.com/voiceline/voiceline-api/services"
)

// CallHandler exposes the routing selector to the telephony webhook
// layer. Routing endpoints always answer 200 with a usable agent.
type CallHandler struct {
	RoutingService *services.RoutingService
	CallLogService *services.CallLogService
	Events         *services.RoutingEventPublisher
}

func NewCallHandler(routingService *services.RoutingService, callLogService *services.CallLogService, events *services.RoutingEventPublisher) *CallHandler {
	return &CallHandler{
		RoutingService: routingService,
		CallLogService: callLogService,
		Events:         events,
	}
}

// HandleIncomingCall routes an inbound call. The telephony provider
// posts form-encoded call metadata (CallSid, From, To).
func (h *CallHandler) HandleIncomingCall(c *gin.Context) {
	call := db.IncomingCall{
		CallSID: c.PostForm("CallSid"),
		From:    c.PostForm("From"),
		To:      c.PostForm("To"),
	}

	agent, reason := h.RoutingService.RouteIncomingCall(call)

	h.RoutingService.LogCallRouting(call.CallSID, agent.ID, reason)
	h.Events.PublishCallRouted(call.CallSID, agent, reason)

	c.JSON(http.StatusOK, db.RoutingDecisionResponse{
		Agent:         agent,
		RoutingReason: reason,
		CallSID:       call.CallSID,
	})
}

// HandleCallStatus receives call lifecycle status callbacks
func (h *CallHandler) HandleCallStatus(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")

	if callSID == "" || status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CallSid and CallStatus are required"})
		return
	}

	if err := h.CallLogService.UpdateCallStatus(callSID, status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Call status updated"})
}

// HandleOutboundCall selects the agent for an outbound call
func (h *CallHandler) HandleOutboundCall(c *gin.Context) {
	var req db.OutboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	call := db.OutboundCall{CallSID: req.CallSID, To: req.To}
	agent, reason := h.RoutingService.RouteOutboundCall(req.AgentID, call)

	if req.CallSID != "" {
		h.RoutingService.LogCallRouting(req.CallSID, agent.ID, reason)
		h.Events.PublishCallRouted(req.CallSID, agent, reason)
	}

	c.JSON(http.StatusOK, db.RoutingDecisionResponse{
		Agent:         agent,
		RoutingReason: reason,
		CallSID:       req.CallSID,
	})
}

// GetAgentCapacity reports whether an agent is below its concurrent
// call limit
func (h *CallHandler) GetAgentCapacity(c *gin.Context) {
	agentID := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"agent_id":   agentID,
		"can_handle": h.RoutingService.CanAgentHandleCall(agentID),
	})
}

// GetRoutingStats returns the trailing 24 hours of routing decisions
func (h *CallHandler) GetRoutingStats(c *gin.Context) {
	stats := h.RoutingService.GetRoutingStats()

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"total": len(stats),
	})
}

// GetCall returns the routing log entry for a single call
func (h *CallHandler) GetCall(c *gin.Context) {
	callSID := c.Param("sid")

	entry, err := h.CallLogService.GetCallBySID(callSID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}

	c.JSON(http.StatusOK, entry)
}
