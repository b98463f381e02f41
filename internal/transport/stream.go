package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rpggio/civicmatch/internal/metrics"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type streamError struct {
	Error string `json:"error"`
}

// handleDashboardStream pushes a dashboard snapshot on connect and then on
// every tick until the client goes away or the server's base context ends.
// A failed refresh sends an error frame and keeps the stream open.
func (s *Server) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.ownOrganization(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("dashboard stream upgrade failed", "organization_id", orgID, "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	// http.Server.Shutdown does not track hijacked connections.
	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()
	go readPump(conn, cancel)

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := s.pushSnapshot(ctx, conn, orgID); err != nil {
			s.logger.Debug("dashboard stream closed", "organization_id", orgID, "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn, orgID string) error {
	snap, err := s.svc.Dashboard.Refresh(ctx, orgID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err != nil {
		s.logger.Warn("dashboard stream refresh failed", "organization_id", orgID, "error", err)
		return conn.WriteJSON(streamError{Error: "dashboard refresh failed"})
	}
	return conn.WriteJSON(snap)
}

// readPump drains client frames so control messages are handled, and
// cancels the stream when the connection closes.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
