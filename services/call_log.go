package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voiceline/voiceline-api/db"
)

// CallLogService is the call-lifecycle side of the call log store. The
// routing selector writes decisions; this service handles the status
// updates coming back from the telephony provider.
type CallLogService struct {
	PG *sql.DB
}

func NewCallLogService(pg *sql.DB) *CallLogService {
	return &CallLogService{PG: pg}
}

// UpdateCallStatus moves a call to a new lifecycle status
func (s *CallLogService) UpdateCallStatus(callSID, status string) error {
	result, err := s.PG.Exec(`
		UPDATE call_routing_logs
		SET call_status = $1, updated_at = $2
		WHERE call_sid = $3
	`, status, time.Now(), callSID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no routing log entry for call %s", callSID)
	}

	return nil
}

// GetCallBySID retrieves the routing log entry for a call
func (s *CallLogService) GetCallBySID(callSID string) (*db.CallRouteLog, error) {
	var entry db.CallRouteLog

	err := s.PG.QueryRow(`
		SELECT crl.id, crl.call_sid, crl.agent_id, crl.routing_reason, crl.call_status,
		       crl.created_at, crl.updated_at,
		       COALESCE(a.name, '') as agent_name,
		       COALESCE(a.type, '') as agent_type
		FROM call_routing_logs crl
		LEFT JOIN agents a ON a.id = crl.agent_id
		WHERE crl.call_sid = $1
		ORDER BY crl.created_at DESC
		LIMIT 1
	`, callSID).Scan(
		&entry.ID, &entry.CallSID, &entry.AgentID, &entry.RoutingReason, &entry.CallStatus,
		&entry.CreatedAt, &entry.UpdatedAt,
		&entry.AgentName, &entry.AgentType,
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// CountInProgressCalls returns how many of the agent's calls are
// currently in progress
func (s *CallLogService) CountInProgressCalls(agentID string) (int, error) {
	var count int
	err := s.PG.QueryRow(
		`SELECT COUNT(*) FROM call_routing_logs WHERE agent_id = $1 AND call_status = $2`,
		agentID, db.CallStatusInProgress,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
