package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/supervisor"
)

func TestListener_HealthyRound(t *testing.T) {
	m := NewMonitor()
	notify := Listener(m, "tree")

	notify(supervisor.Event{Supervisor: "top", Time: time.Now(), Healthy: true})

	st, ok := m.Get("tree")
	require.True(t, ok)
	assert.True(t, st.IsHealthy())
	assert.Equal(t, "all components healthy", st.Message)
}

func TestListener_HealthyAfterCascade(t *testing.T) {
	m := NewMonitor()
	notify := Listener(m, "tree")

	notify(supervisor.Event{Healthy: true, RestartAll: true})

	st, _ := m.Get("tree")
	assert.True(t, st.IsHealthy())
	assert.Equal(t, "tree healthy after restart cascade", st.Message)
}

func TestListener_HangIsDegraded(t *testing.T) {
	m := NewMonitor()
	notify := Listener(m, "tree")

	notify(supervisor.Event{Hang: true, Error: "still checking"})

	st, _ := m.Get("tree")
	assert.True(t, st.IsDegraded())
}

func TestListener_DiedIsUnhealthyAndSanitized(t *testing.T) {
	m := NewMonitor()
	notify := Listener(m, "tree")

	notify(supervisor.Event{Died: true, Error: "lost nats://10.0.0.5:4222"})

	st, _ := m.Get("tree")
	assert.True(t, st.IsUnhealthy())
	assert.NotContains(t, st.Message, "10.0.0.5")
}

func TestListener_FailedRoundIsUnhealthy(t *testing.T) {
	m := NewMonitor()
	notify := Listener(m, "tree")

	notify(supervisor.Event{Healthy: false, Error: "checkup failed"})

	st, _ := m.Get("tree")
	assert.True(t, st.IsUnhealthy())
}

func TestServer_Handler(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("a", "fine")
	srv := NewServer(m, "tree", 0, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "tree", st.Component)
	assert.True(t, st.IsHealthy())
	require.Len(t, st.SubStatuses, 1)
}

func TestServer_HandlerDegradedStill200(t *testing.T) {
	m := NewMonitor()
	m.UpdateDegraded("a", "slow")
	srv := NewServer(m, "tree", 0, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_HandlerUnhealthy503(t *testing.T) {
	m := NewMonitor()
	m.UpdateUnhealthy("a", "down")
	srv := NewServer(m, "tree", 0, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.IsUnhealthy())
}

func TestServer_Defaults(t *testing.T) {
	srv := NewServer(NewMonitor(), "tree", 0, nil)
	assert.Equal(t, ":8080", srv.Address())

	srv = NewServer(NewMonitor(), "tree", 9191, nil)
	assert.Equal(t, ":9191", srv.Address())
}
