package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/voiceline/voiceline-api/db"
)

func newAgentService(t *testing.T) (*AgentService, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewAgentService(conn), mock
}

func TestCreateAgent(t *testing.T) {
	service, mock := newAgentService(t)

	mock.ExpectExec("INSERT INTO agents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := sqlmock.NewRows(agentTestColumns)
	addAgentRow(rows, "a1", "Support Desk", "general", db.CallDirectionInbound, []byte("[1,2,3,4,5]"), "09:00", "17:00")
	mock.ExpectQuery("WHERE id =").WillReturnRows(rows)

	agent, err := service.CreateAgent(db.CreateAgentRequest{
		Name:          "Support Desk",
		CallDirection: db.CallDirectionInbound,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Support Desk", agent.Name)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, agent.BusinessDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAgent_PartialUpdate(t *testing.T) {
	service, mock := newAgentService(t)

	mock.ExpectExec("UPDATE agents SET name = .+, updated_at = .+ WHERE id = .+").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := sqlmock.NewRows(agentTestColumns)
	addAgentRow(rows, "a1", "Renamed Desk", "general", db.CallDirectionInbound, nil, nil, nil)
	mock.ExpectQuery("WHERE id =").WillReturnRows(rows)

	name := "Renamed Desk"
	agent, err := service.UpdateAgent("a1", db.UpdateAgentRequest{Name: &name})

	assert.NoError(t, err)
	assert.Equal(t, "Renamed Desk", agent.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAgent_NoFieldsIsARead(t *testing.T) {
	service, mock := newAgentService(t)

	rows := sqlmock.NewRows(agentTestColumns)
	addAgentRow(rows, "a1", "Support Desk", "general", db.CallDirectionInbound, nil, nil, nil)
	mock.ExpectQuery("WHERE id =").WillReturnRows(rows)

	agent, err := service.UpdateAgent("a1", db.UpdateAgentRequest{})

	assert.NoError(t, err)
	assert.Equal(t, "a1", agent.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateAgent(t *testing.T) {
	service, mock := newAgentService(t)

	mock.ExpectExec("UPDATE agents SET is_active = false").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, service.DeactivateAgent("a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAgents_ActiveOnly(t *testing.T) {
	service, mock := newAgentService(t)

	rows := sqlmock.NewRows(agentTestColumns)
	addAgentRow(rows, "a1", "Support Desk", "general", db.CallDirectionInbound, nil, nil, nil)
	addAgentRow(rows, "a2", "Night Desk", db.AgentTypeAfterHours, db.CallDirectionBoth, nil, nil, nil)
	mock.ExpectQuery("FROM agents WHERE is_active = true").WillReturnRows(rows)

	agents, err := service.ListAgents(true)

	assert.NoError(t, err)
	assert.Len(t, agents, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignPhoneNumber(t *testing.T) {
	service, mock := newAgentService(t)

	mock.ExpectExec("INSERT INTO phone_number_assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("FROM phone_number_assignments").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "phone_number", "agent_id", "friendly_name", "created_at", "agent_name",
		}).AddRow("pn1", "+15551230000", "a1", "Main line", time.Now(), "Support Desk"))

	assignment, err := service.AssignPhoneNumber(db.AssignPhoneNumberRequest{
		PhoneNumber: "+15551230000",
		AgentID:     "a1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "a1", assignment.AgentID)
	assert.Equal(t, "Support Desk", assignment.AgentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
