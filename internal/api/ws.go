package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS policy is enforced by the router middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamedEvents are the event types forwarded to websocket subscribers.
var streamedEvents = []events.EventType{
	events.EventClientConnected,
	events.EventClientRegistered,
	events.EventClientDisconnected,
	events.EventRoomCreated,
	events.EventRoomRemoved,
	events.EventGameStarted,
	events.EventGameResult,
	events.EventPeerAnnounced,
}

// wsEvent is the JSON frame sent to websocket clients.
type wsEvent struct {
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

var wsClientSeq atomic.Int64

// handleEventStream upgrades the connection to a websocket and forwards bus
// events as JSON frames until the client goes away.
func (s *Server) handleEventStream(c *gin.Context) {
	if s.eventBus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	handlerName := fmt.Sprintf("ws-%d", wsClientSeq.Add(1))
	// Buffered so a slow websocket write never blocks a bus handler.
	frames := make(chan wsEvent, 64)

	forward := func(ctx context.Context, event events.Event) error {
		frame := wsEvent{
			Type:      string(event.Type),
			Source:    event.Source,
			Timestamp: time.Now().Unix(),
			Payload:   event.Payload,
		}
		select {
		case frames <- frame:
		default:
			// Drop rather than stall when the client cannot keep up.
		}
		return nil
	}

	for _, et := range streamedEvents {
		s.eventBus.Subscribe(et, handlerName, forward)
	}
	defer func() {
		for _, et := range streamedEvents {
			s.eventBus.Unsubscribe(et, handlerName)
		}
	}()

	log.Debug().Str("handler", handlerName).Str("client_ip", c.ClientIP()).Msg("websocket client connected")

	// Read loop: we never expect frames from the client, but reading is how
	// we learn the connection closed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case frame := <-frames:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-s.eventBus.StopCh():
			return
		}
	}
}
