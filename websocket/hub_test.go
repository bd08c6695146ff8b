package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastAttendanceOnNilHub(t *testing.T) {
	var h *Hub
	// Handlers run without a hub in tests; broadcasting must be a no-op.
	h.BroadcastAttendance(AttendanceUpdate{EventID: "EVT001"})
}

func TestHubDeliversAttendanceUpdates(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the client to be registered before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	hub.BroadcastAttendance(AttendanceUpdate{
		EventID:        "EVT007",
		Volunteers:     3,
		LiveAttendance: 3,
		Action:         "join",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Type    string           `json:"type"`
		Payload AttendanceUpdate `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &envelope))
	assert.Equal(t, "attendance", envelope.Type)
	assert.Equal(t, "EVT007", envelope.Payload.EventID)
	assert.Equal(t, 3, envelope.Payload.Volunteers)
	assert.Equal(t, "join", envelope.Payload.Action)
}
