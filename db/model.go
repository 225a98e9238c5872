package db

import "time"

// ===========================
// AGENT MODELS
// ===========================

// Call direction capabilities
const (
	CallDirectionInbound  = "inbound"
	CallDirectionOutbound = "outbound"
	CallDirectionBoth     = "both"
)

// Agent type tags (free-form, these are the ones the router cares about)
const (
	AgentTypeGeneral    = "general"
	AgentTypeAfterHours = "after_hours"
)

// Call statuses tracked in the routing log
const (
	CallStatusRouting    = "routing"
	CallStatusInProgress = "in-progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusAbandoned  = "abandoned"
)

// Routing reasons recorded alongside each decision
const (
	RoutingReasonPhoneNumber    = "phone_number_match"
	RoutingReasonBusinessHours  = "business_hours"
	RoutingReasonAfterHours     = "after_hours_fallback"
	RoutingReasonAnyInbound     = "active_inbound_fallback"
	RoutingReasonRequestedAgent = "requested_agent"
	RoutingReasonAnyOutbound    = "active_outbound_fallback"
	RoutingReasonDefault        = "default_agent"
)

// Agent represents a configured conversational voice agent
type Agent struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"` // general, after_hours, sales, support, ...
	IsActive           bool   `json:"is_active"`
	CallDirection      string `json:"call_direction"` // inbound, outbound, both
	MaxConcurrentCalls int    `json:"max_concurrent_calls"`

	// Voice configuration handed to the media gateway
	Voice        string `json:"voice,omitempty"`
	Language     string `json:"language,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Greeting     string `json:"greeting,omitempty"`

	// PhoneNumber is the agent's own primary number. The phone number
	// assignment table takes precedence over this field during routing.
	PhoneNumber string `json:"phone_number,omitempty"`

	// Weekly availability window. Days use 0=Sunday..6=Saturday,
	// times are zero-padded 24-hour HH:MM strings.
	Timezone           string `json:"timezone,omitempty"`
	BusinessHoursStart string `json:"business_hours_start,omitempty"`
	BusinessHoursEnd   string `json:"business_hours_end,omitempty"`
	BusinessDays       []int  `json:"business_days,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhoneNumberAssignment maps a phone number to at most one agent
type PhoneNumberAssignment struct {
	ID           string    `json:"id"`
	PhoneNumber  string    `json:"phone_number"`
	AgentID      string    `json:"agent_id"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// For API responses (populated via JOINs)
	AgentName string `json:"agent_name,omitempty"`
}

// CallRouteLog records one routing decision per call. The call_status
// field is later mutated by the call-lifecycle callbacks, never by the
// routing selector itself.
type CallRouteLog struct {
	ID            string    `json:"id"`
	CallSID       string    `json:"call_sid"`
	AgentID       string    `json:"agent_id"`
	RoutingReason string    `json:"routing_reason"`
	CallStatus    string    `json:"call_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// For API responses (populated via JOINs)
	AgentName string `json:"agent_name,omitempty"`
	AgentType string `json:"agent_type,omitempty"`
}

// IncomingCall carries the telephony webhook metadata for an inbound call
type IncomingCall struct {
	CallSID string `json:"call_sid"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// OutboundCall carries the metadata for an outbound call request
type OutboundCall struct {
	CallSID string `json:"call_sid"`
	To      string `json:"to"`
}

// ===========================
// REQUEST / RESPONSE MODELS
// ===========================

type CreateAgentRequest struct {
	Name               string `json:"name" binding:"required"`
	Type               string `json:"type"`
	CallDirection      string `json:"call_direction"`
	MaxConcurrentCalls int    `json:"max_concurrent_calls"`
	Voice              string `json:"voice"`
	Language           string `json:"language"`
	SystemPrompt       string `json:"system_prompt"`
	Greeting           string `json:"greeting"`
	PhoneNumber        string `json:"phone_number"`
	Timezone           string `json:"timezone"`
	BusinessHoursStart string `json:"business_hours_start"`
	BusinessHoursEnd   string `json:"business_hours_end"`
	BusinessDays       []int  `json:"business_days"`
}

type UpdateAgentRequest struct {
	Name               *string `json:"name,omitempty"`
	Type               *string `json:"type,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	CallDirection      *string `json:"call_direction,omitempty"`
	MaxConcurrentCalls *int    `json:"max_concurrent_calls,omitempty"`
	Voice              *string `json:"voice,omitempty"`
	Language           *string `json:"language,omitempty"`
	SystemPrompt       *string `json:"system_prompt,omitempty"`
	Greeting           *string `json:"greeting,omitempty"`
	PhoneNumber        *string `json:"phone_number,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	BusinessHoursStart *string `json:"business_hours_start,omitempty"`
	BusinessHoursEnd   *string `json:"business_hours_end,omitempty"`
	BusinessDays       []int   `json:"business_days,omitempty"`
}

type AssignPhoneNumberRequest struct {
	PhoneNumber  string `json:"phone_number" binding:"required"`
	AgentID      string `json:"agent_id" binding:"required"`
	FriendlyName string `json:"friendly_name"`
}

type OutboundCallRequest struct {
	AgentID string `json:"agent_id"`
	To      string `json:"to" binding:"required"`
	CallSID string `json:"call_sid"`
}

// RoutingDecisionResponse is what the webhook layer hands back to the
// telephony integration after a call has been routed.
type RoutingDecisionResponse struct {
	Agent         Agent  `json:"agent"`
	RoutingReason string `json:"routing_reason"`
	CallSID       string `json:"call_sid,omitempty"`
}
