package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voiceline/voiceline-api/db"
)

// AgentService manages the agent registry and phone number assignments.
type AgentService struct {
	PG *sql.DB
}

func NewAgentService(pg *sql.DB) *AgentService {
	return &AgentService{PG: pg}
}

// CreateAgent creates a new agent
func (s *AgentService) CreateAgent(req db.CreateAgentRequest) (*db.Agent, error) {
	id := uuid.New().String()
	now := time.Now()

	agentType := req.Type
	if agentType == "" {
		agentType = db.AgentTypeGeneral
	}

	maxConcurrent := req.MaxConcurrentCalls
	if maxConcurrent == 0 {
		maxConcurrent = 1
	}

	var businessDaysParam interface{}
	if req.BusinessDays != nil {
		businessDaysJSON, err := json.Marshal(req.BusinessDays)
		if err != nil {
			return nil, fmt.Errorf("invalid business_days: %w", err)
		}
		businessDaysParam = businessDaysJSON
	}

	_, err := s.PG.Exec(`
		INSERT INTO agents
		(id, name, type, is_active, call_direction, max_concurrent_calls,
		 voice, language, system_prompt, greeting, phone_number, timezone,
		 business_hours_start, business_hours_end, business_days, created_at, updated_at)
		VALUES ($1, $2, $3, true, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''),
		        NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
		        NULLIF($12, ''), NULLIF($13, ''), $14, $15, $15)
	`, id, req.Name, agentType, req.CallDirection, maxConcurrent,
		req.Voice, req.Language, req.SystemPrompt, req.Greeting, req.PhoneNumber,
		req.Timezone, req.BusinessHoursStart, req.BusinessHoursEnd, businessDaysParam, now)

	if err != nil {
		return nil, err
	}

	return s.GetAgent(id)
}

// GetAgent retrieves a single agent by id
func (s *AgentService) GetAgent(id string) (*db.Agent, error) {
	row := s.PG.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = $1
	`, id)

	return scanAgent(row)
}

// ListAgents retrieves all agents, newest first
func (s *AgentService) ListAgents(activeOnly bool) ([]db.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.PG.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []db.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			continue
		}
		agents = append(agents, *agent)
	}

	return agents, nil
}

// UpdateAgent applies a partial update built from the non-nil request fields
func (s *AgentService) UpdateAgent(id string, req db.UpdateAgentRequest) (*db.Agent, error) {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	addSet := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.Type != nil {
		addSet("type", *req.Type)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}
	if req.CallDirection != nil {
		addSet("call_direction", *req.CallDirection)
	}
	if req.MaxConcurrentCalls != nil {
		addSet("max_concurrent_calls", *req.MaxConcurrentCalls)
	}
	if req.Voice != nil {
		addSet("voice", *req.Voice)
	}
	if req.Language != nil {
		addSet("language", *req.Language)
	}
	if req.SystemPrompt != nil {
		addSet("system_prompt", *req.SystemPrompt)
	}
	if req.Greeting != nil {
		addSet("greeting", *req.Greeting)
	}
	if req.PhoneNumber != nil {
		addSet("phone_number", *req.PhoneNumber)
	}
	if req.Timezone != nil {
		addSet("timezone", *req.Timezone)
	}
	if req.BusinessHoursStart != nil {
		addSet("business_hours_start", *req.BusinessHoursStart)
	}
	if req.BusinessHoursEnd != nil {
		addSet("business_hours_end", *req.BusinessHoursEnd)
	}
	if req.BusinessDays != nil {
		businessDaysJSON, err := json.Marshal(req.BusinessDays)
		if err != nil {
			return nil, fmt.Errorf("invalid business_days: %w", err)
		}
		addSet("business_days", businessDaysJSON)
	}

	if len(setParts) == 0 {
		return s.GetAgent(id)
	}

	addSet("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE agents SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	_, err := s.PG.Exec(query, args...)
	if err != nil {
		return nil, err
	}

	return s.GetAgent(id)
}

// DeactivateAgent soft deletes an agent
func (s *AgentService) DeactivateAgent(id string) error {
	_, err := s.PG.Exec(`UPDATE agents SET is_active = false, updated_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// PHONE NUMBER ASSIGNMENTS

// AssignPhoneNumber maps a phone number to an agent. An existing
// assignment of the same number is replaced.
func (s *AgentService) AssignPhoneNumber(req db.AssignPhoneNumberRequest) (*db.PhoneNumberAssignment, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.PG.Exec(`
		INSERT INTO phone_number_assignments (id, phone_number, agent_id, friendly_name, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (phone_number)
		DO UPDATE SET agent_id = EXCLUDED.agent_id, friendly_name = EXCLUDED.friendly_name
	`, id, req.PhoneNumber, req.AgentID, req.FriendlyName, now)

	if err != nil {
		return nil, err
	}

	return s.GetPhoneNumberAssignment(req.PhoneNumber)
}

// GetPhoneNumberAssignment retrieves the assignment for a number
func (s *AgentService) GetPhoneNumberAssignment(phoneNumber string) (*db.PhoneNumberAssignment, error) {
	var assignment db.PhoneNumberAssignment
	var friendlyName sql.NullString

	err := s.PG.QueryRow(`
		SELECT pna.id, pna.phone_number, pna.agent_id, pna.friendly_name, pna.created_at,
		       COALESCE(a.name, '') as agent_name
		FROM phone_number_assignments pna
		LEFT JOIN agents a ON a.id = pna.agent_id
		WHERE pna.phone_number = $1
	`, phoneNumber).Scan(
		&assignment.ID, &assignment.PhoneNumber, &assignment.AgentID,
		&friendlyName, &assignment.CreatedAt, &assignment.AgentName,
	)
	if err != nil {
		return nil, err
	}

	assignment.FriendlyName = friendlyName.String
	return &assignment, nil
}

// ListPhoneNumberAssignments retrieves all assignments
func (s *AgentService) ListPhoneNumberAssignments() ([]db.PhoneNumberAssignment, error) {
	rows, err := s.PG.Query(`
		SELECT pna.id, pna.phone_number, pna.agent_id, pna.friendly_name, pna.created_at,
		       COALESCE(a.name, '') as agent_name
		FROM phone_number_assignments pna
		LEFT JOIN agents a ON a.id = pna.agent_id
		ORDER BY pna.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []db.PhoneNumberAssignment
	for rows.Next() {
		var assignment db.PhoneNumberAssignment
		var friendlyName sql.NullString

		err := rows.Scan(
			&assignment.ID, &assignment.PhoneNumber, &assignment.AgentID,
			&friendlyName, &assignment.CreatedAt, &assignment.AgentName,
		)
		if err != nil {
			continue
		}

		assignment.FriendlyName = friendlyName.String
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}

// UnassignPhoneNumber removes the assignment for a number
func (s *AgentService) UnassignPhoneNumber(phoneNumber string) error {
	_, err := s.PG.Exec(`DELETE FROM phone_number_assignments WHERE phone_number = $1`, phoneNumber)
	return err
}
