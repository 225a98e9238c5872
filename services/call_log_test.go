package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/voiceline/voiceline-api/db"
)

func newCallLogService(t *testing.T) (*CallLogService, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewCallLogService(conn), mock
}

func TestUpdateCallStatus(t *testing.T) {
	service, mock := newCallLogService(t)

	mock.ExpectExec("UPDATE call_routing_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.UpdateCallStatus("CA100", db.CallStatusInProgress)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCallStatus_UnknownCall(t *testing.T) {
	service, mock := newCallLogService(t)

	mock.ExpectExec("UPDATE call_routing_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.UpdateCallStatus("CA-missing", db.CallStatusCompleted)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCallBySID(t *testing.T) {
	service, mock := newCallLogService(t)

	now := time.Now()
	mock.ExpectQuery("FROM call_routing_logs").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "call_sid", "agent_id", "routing_reason", "call_status",
			"created_at", "updated_at", "agent_name", "agent_type",
		}).AddRow("l1", "CA100", "a1", db.RoutingReasonBusinessHours, db.CallStatusInProgress, now, now, "Daytime", "general"))

	entry, err := service.GetCallBySID("CA100")

	assert.NoError(t, err)
	assert.Equal(t, "CA100", entry.CallSID)
	assert.Equal(t, "Daytime", entry.AgentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountInProgressCalls(t *testing.T) {
	service, mock := newCallLogService(t)

	mock.ExpectQuery("COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := service.CountInProgressCalls("a1")

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountInProgressCalls_Error(t *testing.T) {
	service, mock := newCallLogService(t)

	mock.ExpectQuery("COUNT").WillReturnError(errors.New("connection refused"))

	count, err := service.CountInProgressCalls("a1")

	assert.Error(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
