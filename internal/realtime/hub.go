// Package realtime pushes auction, bid and chat events to connected
// websocket clients. Delivery is fire-and-forget: there is no acknowledgment
// and no replay, a reconnecting client re-fetches state over the query API.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Websocket message types.
const (
	TypeAuctionFinished = "auctions.finished"
	TypeAuctionChanged  = "auctions.changed"
	TypeNewBid          = "auctions.newBid"
	TypeNewMessage      = "chat.newMessage"
)

// Message is the typed payload relayed to subscribers.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AuctionChannel returns the channel name for an auction.
func AuctionChannel(auctionID uint64) string {
	return fmt.Sprintf("auction-%d", auctionID)
}

// ConversationChannel returns the channel name for a chat conversation.
func ConversationChannel(conversationID uint64) string {
	return fmt.Sprintf("conversation-%d", conversationID)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// session is one connected websocket client.
type session struct {
	id       string
	send     chan []byte
	channels map[string]struct{}
}

// Hub tracks websocket sessions grouped by channel name.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*session]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*session]struct{})}
}

// Broadcast relays a message to every subscriber of a channel. Slow clients
// whose buffers are full miss the message.
func (h *Hub) Broadcast(channel string, msg Message) {
	payload, errMarshal := json.Marshal(msg)
	if errMarshal != nil {
		log.WithError(errMarshal).Warnf("realtime: marshal %s message failed", msg.Type)
		return
	}

	h.mu.RLock()
	subscribers := h.channels[channel]
	sessions := make([]*session, 0, len(subscribers))
	for s := range subscribers {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		select {
		case s.send <- payload:
		default:
			log.Debugf("realtime: dropping %s message for slow client %s", msg.Type, s.id)
		}
	}
}

// subscribe adds a session to a channel.
func (h *Hub) subscribe(s *session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*session]struct{})
	}
	h.channels[channel][s] = struct{}{}
	s.channels[channel] = struct{}{}
}

// unsubscribe removes a session from a channel.
func (h *Hub) unsubscribe(s *session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(s, channel)
}

// remove detaches a session from every channel.
func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range s.channels {
		h.dropLocked(s, channel)
	}
}

func (h *Hub) dropLocked(s *session, channel string) {
	if subscribers, ok := h.channels[channel]; ok {
		delete(subscribers, s)
		if len(subscribers) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(s.channels, channel)
}

// clientCommand is the inbound subscribe/unsubscribe message.
type clientCommand struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// ServeWS upgrades the request and runs the session until the client
// disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, errUpgrade := upgrader.Upgrade(c.Writer, c.Request, nil)
	if errUpgrade != nil {
		log.WithError(errUpgrade).Debug("realtime: websocket upgrade failed")
		return
	}

	s := &session{
		id:       uuid.NewString(),
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]struct{}),
	}

	done := make(chan struct{})
	go h.writePump(conn, s, done)
	h.readPump(conn, s)
	close(done)
	h.remove(s)
	_ = conn.Close()
}

func (h *Hub) readPump(conn *websocket.Conn, s *session) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, errRead := conn.ReadMessage()
		if errRead != nil {
			return
		}
		var cmd clientCommand
		if errUnmarshal := json.Unmarshal(data, &cmd); errUnmarshal != nil {
			continue
		}
		if cmd.Channel == "" {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			h.subscribe(s, cmd.Channel)
		case "unsubscribe":
			h.unsubscribe(s, cmd.Channel)
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, s *session, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload := <-s.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if errWrite := conn.WriteMessage(websocket.TextMessage, payload); errWrite != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if errPing := conn.WriteMessage(websocket.PingMessage, nil); errPing != nil {
				return
			}
		case <-done:
			return
		}
	}
}
