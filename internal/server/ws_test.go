package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fewknow/internal/jobs"
	"fewknow/internal/types"
)

func dialWS(t *testing.T, s *Server, jobID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Echo())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestWebSocketStreamsJobEvents(t *testing.T) {
	s := newTestServer(t)

	jobID, err := s.pipeline.Submit(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "NVDA")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	conn := dialWS(t, s, jobID)

	// The stream must end with the terminal result regardless of how
	// many live updates the subscriber catches.
	var sawResult bool
	for !sawResult {
		var ev jobs.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read failed before result event: %v", err)
		}
		switch ev.Type {
		case "status":
			if ev.Status.JobID != jobID {
				t.Errorf("status for wrong job: %+v", ev.Status)
			}
		case "result":
			sawResult = true
			if ev.Result.Status != types.StatusCompleted {
				t.Errorf("result = %+v", ev.Result)
			}
		}
	}
}

func TestWebSocketPong(t *testing.T) {
	s := newTestServer(t)
	st := s.pipeline.Store()
	st.RecordStatus(types.JobStatus{JobID: "j1", Status: types.StatusProcessing, Progress: "25%"})

	conn := dialWS(t, s, "j1")

	// Drain the replayed status first.
	var replay jobs.Event
	if err := conn.ReadJSON(&replay); err != nil || replay.Type != "status" {
		t.Fatalf("replay = %+v, %v", replay, err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatal(err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("pong read failed: %v", err)
	}
	var pong map[string]string
	if err := json.Unmarshal(msg, &pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %s", msg)
	}
}

func TestWebSocketUnknownJob(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s, "ghost")

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var ev map[string]string
	if err := json.Unmarshal(msg, &ev); err != nil || ev["type"] != "error" {
		t.Fatalf("event = %s", msg)
	}
}
