package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Inbound WebSocket message types.
const (
	msgSetURL = "url"
	msgRun    = "run"
	msgKey    = "key"
)

// ClientMessage is what a presentation layer may send over the event socket.
type ClientMessage struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
	Key  string `json:"key,omitempty"`
}

// SnapshotMessage is the first frame on every event socket.
type SnapshotMessage struct {
	Type     string          `json:"type"`
	Snapshot widget.Snapshot `json:"snapshot"`
}

// handleEvents streams widget events to the client and accepts url/run/key
// messages in the other direction.
func (s *Server) handleEvents(c *gin.Context) {
	w, ok := s.session(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("upgrading to websocket")
		return
	}
	defer conn.Close()

	snap, events, cancel := w.SubscribeWithSnapshot()
	defer cancel()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(SnapshotMessage{Type: "snapshot", Snapshot: snap}); err != nil {
		return
	}

	done := make(chan struct{})
	go s.readClient(conn, w, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case ev, open := <-events:
			if !open {
				// Session deleted or expired.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readClient applies inbound messages until the connection fails, then
// closes done.
func (s *Server) readClient(conn *websocket.Conn, w *widget.Widget, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("websocket read ended")
			}
			return
		}
		switch msg.Type {
		case msgSetURL:
			w.SetURL(msg.URL)
		case msgRun:
			w.Request(widget.TriggerCheck)
		case msgKey:
			w.KeyPress(msg.Key)
		default:
			s.logger.WithField("type", msg.Type).Debug("ignoring unknown websocket message")
		}
	}
}
