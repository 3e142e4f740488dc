package gatews

import (
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/SudeepMi/parking-api/internal/models"
)

// Hub fans session lifecycle events out to connected gate dashboards. The
// feed is one-way: clients only listen.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type Event struct {
	Type            string   `json:"type"`
	SessionID       int64    `json:"session_id"`
	ReservationID   int64    `json:"reservation_id"`
	Status          string   `json:"status"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	TotalAmount     *float64 `json:"total_amount,omitempty"`
	Timestamp       string   `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishSessionEvent satisfies the notifier hook of the parking service.
// Publishing never blocks the state machine: a full queue drops the event.
func (h *Hub) PublishSessionEvent(eventType string, session *models.ParkingSession) {
	if session == nil {
		return
	}

	event := &Event{
		Type:            eventType,
		SessionID:       session.ID,
		ReservationID:   session.ReservationID,
		Status:          session.Status,
		DurationMinutes: session.DurationMinutes,
		TotalAmount:     session.TotalAmount,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	select {
	case h.broadcast <- event:
	default:
		log.Printf("gate hub queue full, dropped %s for session %d", eventType, session.ID)
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("gate hub encode event: %v", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- encoded:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ReadPump drains control frames until the peer goes away. Inbound payloads
// carry no meaning on this feed and are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
