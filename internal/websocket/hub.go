package websocket

import (
	"encoding/json"
	"sync"

	"github.com/contaleve/onboarding-backend/pkg/logger"
)

// StatusEvent is pushed to connected clients whenever their onboarding
// moves
type StatusEvent struct {
	Type        string `json:"type"`
	CustomerID  string `json:"customer_id"`
	Status      string `json:"status"`
	CurrentStep int    `json:"current_step"`
}

// Client is one WebSocket session of a customer. Multiple devices may
// be connected for the same customer at once.
type Client struct {
	Hub        *Hub
	Conn       *Conn
	CustomerID string
	Send       chan []byte
}

// Hub tracks the sessions per customer and fans status events out to
// all of them
type Hub struct {
	clients    map[string][]*Client
	register   chan *Client
	unregister chan *Client
	events     chan StatusEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		events:     make(chan StatusEvent, 1024),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.CustomerID] = append(h.clients[client.CustomerID], client)
			sessions := len(h.clients[client.CustomerID])
			h.mu.Unlock()

			logger.Info("WebSocket client registered", map[string]interface{}{
				"customer_id":    client.CustomerID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clientList, ok := h.clients[client.CustomerID]; ok {
				newList := make([]*Client, 0, len(clientList))
				for _, c := range clientList {
					if c != client {
						newList = append(newList, c)
					}
				}
				if len(newList) == 0 {
					delete(h.clients, client.CustomerID)
				} else {
					h.clients[client.CustomerID] = newList
				}
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.events:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.RLock()
			for _, client := range h.clients[event.CustomerID] {
				select {
				case client.Send <- message:
				default:
					// Send buffer full, drop the session
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"customer_id": event.CustomerID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client session to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client session from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyStatus pushes a status change to every session of the
// customer. Never blocks: if the event buffer is full the event is
// dropped, clients resync through the situation endpoint.
func (h *Hub) NotifyStatus(customerID string, status string, step int) {
	event := StatusEvent{
		Type:        "status_update",
		CustomerID:  customerID,
		Status:      status,
		CurrentStep: step,
	}

	select {
	case h.events <- event:
	default:
		logger.Warn("Status event buffer full, dropping event", map[string]interface{}{
			"customer_id": customerID,
		})
	}
}
