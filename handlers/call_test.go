package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/voiceline/voiceline-api/db"
	"github.com/voiceline/voiceline-api/internal/config"
	"github.com/voiceline/voiceline-api/services"
)

func newCallTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { conn.Close() })

	defaultAgent := services.NewDefaultAgent(config.DefaultAgentConfig{
		Voice:        "alloy",
		Language:     "en-US",
		SystemPrompt: "You are a helpful assistant.",
		Greeting:     "Hello!",
	})
	routingService := services.NewRoutingService(conn, defaultAgent)
	callLogService := services.NewCallLogService(conn)
	// No Redis in tests: publishing is a no-op
	events := services.NewRoutingEventPublisher(nil)

	handler := NewCallHandler(routingService, callLogService, events)

	r := gin.New()
	r.POST("/webhook/voice/incoming", handler.HandleIncomingCall)
	r.POST("/webhook/voice/status", handler.HandleCallStatus)
	r.GET("/api/agents/:id/capacity", handler.GetAgentCapacity)
	r.GET("/api/routing/stats", handler.GetRoutingStats)

	return r, mock
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleIncomingCall_DegradesToDefaultAgent(t *testing.T) {
	r, mock := newCallTestRouter(t)

	// Every lookup fails, and even the routing log insert fails. The
	// webhook must still answer 200 with the default agent.
	storeErr := errors.New("connection refused")
	mock.ExpectQuery("FROM phone_number_assignments").WillReturnError(storeErr)
	mock.ExpectQuery("call_direction IN").WillReturnError(storeErr)
	mock.ExpectQuery("AND type =").WillReturnError(storeErr)
	mock.ExpectQuery("call_direction IN").WillReturnError(storeErr)
	mock.ExpectExec("INSERT INTO call_routing_logs").WillReturnError(storeErr)

	w := postForm(r, "/webhook/voice/incoming", url.Values{
		"CallSid": {"CA500"},
		"From":    {"+15551230000"},
		"To":      {"+15559990000"},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp db.RoutingDecisionResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "default", resp.Agent.ID)
	assert.Equal(t, db.RoutingReasonDefault, resp.RoutingReason)
	assert.Equal(t, "CA500", resp.CallSID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallStatus(t *testing.T) {
	r, mock := newCallTestRouter(t)

	mock.ExpectExec("UPDATE call_routing_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postForm(r, "/webhook/voice/status", url.Values{
		"CallSid":    {"CA500"},
		"CallStatus": {db.CallStatusCompleted},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallStatus_MissingFields(t *testing.T) {
	r, _ := newCallTestRouter(t)

	w := postForm(r, "/webhook/voice/status", url.Values{"CallSid": {"CA500"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAgentCapacity(t *testing.T) {
	r, mock := newCallTestRouter(t)

	mock.ExpectQuery("max_concurrent_calls FROM agents").
		WillReturnRows(sqlmock.NewRows([]string{"max_concurrent_calls"}).AddRow(2))
	mock.ExpectQuery("COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	req := httptest.NewRequest(http.MethodGet, "/api/agents/a1/capacity", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["can_handle"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoutingStats_EmptyOnError(t *testing.T) {
	r, mock := newCallTestRouter(t)

	mock.ExpectQuery("FROM call_routing_logs").WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/routing/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats []db.CallRouteLog `json:"stats"`
		Total int               `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Stats)
	assert.Zero(t, resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
