package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"fewknow/internal/jobs"
	"fewknow/internal/logger"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cross-origin is enforced by the CORS layer for the REST routes;
	// browsers connect to /ws from the same configured origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsListener adapts a websocket connection to the publisher's Listener.
// Writes are serialized: the publisher and the pong responder share the
// connection.
type wsListener struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsListener) Send(ev jobs.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(ev)
}

func (w *wsListener) pong() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(map[string]string{"type": "pong"})
}

// websocket upgrades the connection and streams job events until the
// client disconnects. Any inbound message is answered with a pong so
// clients can keep the connection alive.
func (s *Server) websocket(c echo.Context) error {
	jobID := c.Param("job_id")
	ctx := c.Request().Context()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	l := &wsListener{conn: conn}
	if err := s.pipeline.Publisher().Register(ctx, jobID, l); err != nil {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		conn.WriteJSON(map[string]string{"type": "error", "message": "job not found"})
		return nil
	}
	defer s.pipeline.Publisher().Deregister(jobID, l)

	logger.Info(ctx, "WebSocket connected", "job_id", jobID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		if err := l.pong(); err != nil {
			break
		}
	}

	logger.Info(ctx, "WebSocket disconnected", "job_id", jobID)
	return nil
}
