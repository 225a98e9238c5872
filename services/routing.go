package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/voiceline/voiceline-api/db"
	"github.com/voiceline/voiceline-api/internal/config"
)

// Routing defaults applied at read time. Persisted agent rows are never
// mutated, only the view returned to callers is enriched.
const (
	defaultCallDirection      = db.CallDirectionInbound
	defaultTimezone           = "America/New_York"
	defaultBusinessHoursStart = "09:00"
	defaultBusinessHoursEnd   = "17:00"
)

var defaultBusinessDays = []int{1, 2, 3, 4, 5} // Mon-Fri

const agentColumns = `id, name, type, is_active, call_direction, max_concurrent_calls,
		voice, language, system_prompt, greeting, phone_number, timezone,
		business_hours_start, business_hours_end, business_days, created_at, updated_at`

const agentColumnsQualified = `a.id, a.name, a.type, a.is_active, a.call_direction, a.max_concurrent_calls,
		a.voice, a.language, a.system_prompt, a.greeting, a.phone_number, a.timezone,
		a.business_hours_start, a.business_hours_end, a.business_days, a.created_at, a.updated_at`

// RoutingService selects which agent handles a call. Every public entry
// point returns a usable agent, never an error: lookup failures degrade
// step by step down the fallback chain and bottom out at DefaultAgent.
type RoutingService struct {
	PG           *sql.DB
	DefaultAgent db.Agent
}

func NewRoutingService(pg *sql.DB, defaultAgent db.Agent) *RoutingService {
	return &RoutingService{
		PG:           pg,
		DefaultAgent: defaultAgent,
	}
}

// NewDefaultAgent builds the terminal routing fallback from startup config.
// It is never persisted.
func NewDefaultAgent(cfg config.DefaultAgentConfig) db.Agent {
	return db.Agent{
		ID:                 "default",
		Name:               "Default Agent",
		Type:               db.AgentTypeGeneral,
		IsActive:           true,
		CallDirection:      db.CallDirectionBoth,
		MaxConcurrentCalls: 10,
		Voice:              cfg.Voice,
		Language:           cfg.Language,
		SystemPrompt:       cfg.SystemPrompt,
		Greeting:           cfg.Greeting,
		Timezone:           defaultTimezone,
		BusinessHoursStart: defaultBusinessHoursStart,
		BusinessHoursEnd:   defaultBusinessHoursEnd,
		BusinessDays:       append([]int(nil), defaultBusinessDays...),
	}
}

// WithRoutingDefaults returns a shallow copy of the agent with missing
// routing fields filled in. Fields already present are left untouched.
// A nil agent stays nil.
func WithRoutingDefaults(agent *db.Agent) *db.Agent {
	if agent == nil {
		return nil
	}

	enhanced := *agent
	if enhanced.CallDirection == "" {
		enhanced.CallDirection = defaultCallDirection
	}
	if enhanced.Timezone == "" {
		enhanced.Timezone = defaultTimezone
	}
	if enhanced.BusinessHoursStart == "" {
		enhanced.BusinessHoursStart = defaultBusinessHoursStart
	}
	if enhanced.BusinessHoursEnd == "" {
		enhanced.BusinessHoursEnd = defaultBusinessHoursEnd
	}
	if enhanced.BusinessDays == nil {
		enhanced.BusinessDays = append([]int(nil), defaultBusinessDays...)
	}
	return &enhanced
}

// IsAgentAvailable reports whether the agent's weekly window covers the
// given moment. weekday uses 0=Sunday..6=Saturday, currentTime is a
// zero-padded 24-hour HH:MM string, so lexicographic comparison is a
// valid time comparison. Both window boundaries are inclusive.
//
// The agent's timezone field is deliberately not consulted: the window
// is checked against the routing process's local wall clock.
func IsAgentAvailable(agent db.Agent, weekday int, currentTime string) bool {
	dayMatch := false
	for _, day := range agent.BusinessDays {
		if day == weekday {
			dayMatch = true
			break
		}
	}
	if !dayMatch {
		return false
	}
	return agent.BusinessHoursStart <= currentTime && currentTime <= agent.BusinessHoursEnd
}

// RouteIncomingCall picks the agent for an inbound call. It tries, in
// order: explicit phone number assignment, business hours, an after-hours
// agent, any active inbound agent, and finally the default agent. The
// second return value is the routing reason tag for the call log.
func (s *RoutingService) RouteIncomingCall(call db.IncomingCall) (db.Agent, string) {
	// 1. Explicit assignment of the called number wins over everything,
	// including hours and direction.
	agent, err := s.GetAgentByPhoneNumber(call.To)
	if err != nil {
		log.Printf("Routing: phone number lookup failed for call %s: %v", call.CallSID, err)
	}
	if agent != nil {
		return *agent, db.RoutingReasonPhoneNumber
	}

	// 2. Any active inbound agent currently inside its window.
	agent, err = s.GetAgentByBusinessHours()
	if err != nil {
		log.Printf("Routing: business hours lookup failed for call %s: %v", call.CallSID, err)
	}
	if agent != nil {
		return *agent, db.RoutingReasonBusinessHours
	}

	// Nobody is in hours, try a dedicated after-hours agent.
	agent, err = s.GetAgentByType(db.AgentTypeAfterHours)
	if err != nil {
		log.Printf("Routing: after hours lookup failed for call %s: %v", call.CallSID, err)
	}
	if agent != nil {
		return *agent, db.RoutingReasonAfterHours
	}

	// 3. Any active inbound-capable agent, regardless of hours.
	agent, err = s.GetActiveInboundAgent()
	if err != nil {
		log.Printf("Routing: active inbound lookup failed for call %s: %v", call.CallSID, err)
	}
	if agent != nil {
		return *agent, db.RoutingReasonAnyInbound
	}

	// 4. Terminal fallback.
	log.Printf("Routing: no agent found for call %s, using default agent", call.CallSID)
	return s.DefaultAgent, db.RoutingReasonDefault
}

// RouteOutboundCall picks the agent for an outbound call. The requested
// agent is used when it exists, is active and may place outbound calls;
// otherwise the newest active outbound-capable agent, then the default.
func (s *RoutingService) RouteOutboundCall(agentID string, call db.OutboundCall) (db.Agent, string) {
	if agentID != "" {
		agent, err := s.GetAgentByID(agentID)
		if err != nil {
			log.Printf("Routing: outbound agent lookup failed for %s: %v", agentID, err)
		}
		if agent != nil && agent.IsActive && acceptsDirection(agent, db.CallDirectionOutbound) {
			return *agent, db.RoutingReasonRequestedAgent
		}
		if agent != nil {
			log.Printf("Routing: agent %s cannot place outbound calls, falling back", agentID)
		}
	}

	agent, err := s.GetActiveOutboundAgent()
	if err != nil {
		log.Printf("Routing: active outbound lookup failed: %v", err)
	}
	if agent != nil {
		return *agent, db.RoutingReasonAnyOutbound
	}

	log.Printf("Routing: no outbound agent found for call %s, using default agent", call.CallSID)
	return s.DefaultAgent, db.RoutingReasonDefault
}

// CanAgentHandleCall reports whether the agent is below its concurrent
// call limit. The check is advisory: it fails open on any store error,
// and there is no reservation between the count and the decision.
func (s *RoutingService) CanAgentHandleCall(agentID string) bool {
	var maxConcurrent int
	err := s.PG.QueryRow(`SELECT max_concurrent_calls FROM agents WHERE id = $1`, agentID).
		Scan(&maxConcurrent)
	if err != nil {
		log.Printf("Capacity check: failed to load limit for agent %s: %v", agentID, err)
		return true
	}

	var current int
	err = s.PG.QueryRow(
		`SELECT COUNT(*) FROM call_routing_logs WHERE agent_id = $1 AND call_status = $2`,
		agentID, db.CallStatusInProgress,
	).Scan(&current)
	if err != nil {
		log.Printf("Capacity check: failed to count calls for agent %s: %v", agentID, err)
		return true
	}

	return current < maxConcurrent
}

// LogCallRouting records a routing decision. Fire and forget: failures
// are logged and swallowed, never retried.
func (s *RoutingService) LogCallRouting(callSID, agentID, routingReason string) {
	_, err := s.PG.Exec(`
		INSERT INTO call_routing_logs (id, call_sid, agent_id, routing_reason, call_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, uuid.New().String(), callSID, agentID, routingReason, db.CallStatusRouting, time.Now())

	if err != nil {
		log.Printf("Failed to log routing decision for call %s: %v", callSID, err)
	}
}

// GetRoutingStats returns the routing log entries from the trailing 24
// hours joined with agent name and type. Returns an empty slice on error.
func (s *RoutingService) GetRoutingStats() []db.CallRouteLog {
	query := `
		SELECT crl.id, crl.call_sid, crl.agent_id, crl.routing_reason, crl.call_status,
		       crl.created_at, crl.updated_at,
		       COALESCE(a.name, '') as agent_name,
		       COALESCE(a.type, '') as agent_type
		FROM call_routing_logs crl
		LEFT JOIN agents a ON a.id = crl.agent_id
		WHERE crl.created_at > NOW() - INTERVAL '24 hours'
		ORDER BY crl.created_at DESC
	`

	rows, err := s.PG.Query(query)
	if err != nil {
		log.Printf("Failed to load routing stats: %v", err)
		return []db.CallRouteLog{}
	}
	defer rows.Close()

	stats := []db.CallRouteLog{}
	for rows.Next() {
		var entry db.CallRouteLog
		err := rows.Scan(
			&entry.ID, &entry.CallSID, &entry.AgentID, &entry.RoutingReason, &entry.CallStatus,
			&entry.CreatedAt, &entry.UpdatedAt,
			&entry.AgentName, &entry.AgentType,
		)
		if err != nil {
			continue
		}
		stats = append(stats, entry)
	}

	return stats
}

// LOOKUP HELPERS
//
// Each helper returns (nil, nil) when no record matches and (nil, err)
// on a store failure. Matches are returned with routing defaults applied.
// Ties between qualifying rows go to the newest agent.

// GetAgentByPhoneNumber resolves a called number to its agent: the
// assignment table first, then the agents' own primary-number field.
func (s *RoutingService) GetAgentByPhoneNumber(phoneNumber string) (*db.Agent, error) {
	row := s.PG.QueryRow(`
		SELECT `+agentColumnsQualified+`
		FROM phone_number_assignments pna
		JOIN agents a ON a.id = pna.agent_id
		WHERE pna.phone_number = $1
		ORDER BY pna.created_at DESC
		LIMIT 1
	`, phoneNumber)

	agent, err := scanAgent(row)
	if err == nil {
		return WithRoutingDefaults(agent), nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	row = s.PG.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE phone_number = $1 AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`, phoneNumber)

	agent, err = scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return WithRoutingDefaults(agent), nil
}

// GetAgentByBusinessHours returns the newest active inbound agent whose
// availability window covers the current local time.
func (s *RoutingService) GetAgentByBusinessHours() (*db.Agent, error) {
	rows, err := s.PG.Query(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE is_active = true AND call_direction IN ($1, $2)
		ORDER BY created_at DESC
	`, db.CallDirectionInbound, db.CallDirectionBoth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	weekday := int(now.Weekday())
	currentTime := now.Format("15:04")

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			continue
		}
		enhanced := WithRoutingDefaults(agent)
		if IsAgentAvailable(*enhanced, weekday, currentTime) {
			return enhanced, nil
		}
	}

	return nil, rows.Err()
}

// GetAgentByType returns the newest active agent with the given type tag.
func (s *RoutingService) GetAgentByType(agentType string) (*db.Agent, error) {
	row := s.PG.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE is_active = true AND type = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, agentType)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return WithRoutingDefaults(agent), nil
}

// GetActiveInboundAgent returns the newest active agent accepting
// inbound calls, ignoring business hours.
func (s *RoutingService) GetActiveInboundAgent() (*db.Agent, error) {
	return s.getActiveAgentByDirection(db.CallDirectionInbound)
}

// GetActiveOutboundAgent returns the newest active agent that may place
// outbound calls.
func (s *RoutingService) GetActiveOutboundAgent() (*db.Agent, error) {
	return s.getActiveAgentByDirection(db.CallDirectionOutbound)
}

func (s *RoutingService) getActiveAgentByDirection(direction string) (*db.Agent, error) {
	row := s.PG.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE is_active = true AND call_direction IN ($1, $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, direction, db.CallDirectionBoth)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return WithRoutingDefaults(agent), nil
}

// GetAgentByID returns the agent with the given id, active or not.
func (s *RoutingService) GetAgentByID(id string) (*db.Agent, error) {
	row := s.PG.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = $1
	`, id)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return WithRoutingDefaults(agent), nil
}

func acceptsDirection(agent *db.Agent, direction string) bool {
	return agent.CallDirection == direction || agent.CallDirection == db.CallDirectionBoth
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAgent scans one agent row; column order must match agentColumns.
func scanAgent(row rowScanner) (*db.Agent, error) {
	var agent db.Agent
	var callDirection, voice, language, systemPrompt, greeting sql.NullString
	var phoneNumber, timezone, hoursStart, hoursEnd sql.NullString
	var businessDaysJSON []byte

	err := row.Scan(
		&agent.ID, &agent.Name, &agent.Type, &agent.IsActive, &callDirection,
		&agent.MaxConcurrentCalls, &voice, &language, &systemPrompt, &greeting,
		&phoneNumber, &timezone, &hoursStart, &hoursEnd, &businessDaysJSON,
		&agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	agent.CallDirection = callDirection.String
	agent.Voice = voice.String
	agent.Language = language.String
	agent.SystemPrompt = systemPrompt.String
	agent.Greeting = greeting.String
	agent.PhoneNumber = phoneNumber.String
	agent.Timezone = timezone.String
	agent.BusinessHoursStart = hoursStart.String
	agent.BusinessHoursEnd = hoursEnd.String

	if len(businessDaysJSON) > 0 {
		json.Unmarshal(businessDaysJSON, &agent.BusinessDays)
	}

	return &agent, nil
}
