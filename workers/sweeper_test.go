package workers

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSweepStaleCalls(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer conn.Close()

	mock.ExpectExec("UPDATE call_routing_logs").
		WillReturnResult(sqlmock.NewResult(0, 2))

	sweeper := NewCallSweeper(conn)
	sweeper.SweepStaleCalls()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepStaleCalls_ErrorIsSwallowed(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer conn.Close()

	mock.ExpectExec("UPDATE call_routing_logs").
		WillReturnError(errors.New("connection refused"))

	sweeper := NewCallSweeper(conn)
	sweeper.SweepStaleCalls()

	assert.NoError(t, mock.ExpectationsWereMet())
}
