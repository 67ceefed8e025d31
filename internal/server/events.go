package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pixelfit/pixelfit/internal/workflow"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents pushes a snapshot on connect and after every transition.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	updates := make(chan workflow.Snapshot, 16)
	unsubscribe := s.workflow.Subscribe(func(snap workflow.Snapshot) {
		select {
		case updates <- snap:
		default:
			// Slow reader; it will catch up with the next snapshot.
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read", "error", err)
				}
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.workflow.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case snap := <-updates:
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Debug("websocket write", "error", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
