// Package kds fans floor events out to the kitchen display and staff
// screens over websockets.
package kds

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Event types
const (
	EventTableUpdate   = "table_update"
	EventTableDelete   = "table_delete"
	EventOrderUpdate   = "order_update"
	EventKitchenUpdate = "kitchen_update"
	EventPaymentUpdate = "payment_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds the connected screens. Broadcasting never blocks: a client
// whose buffer is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]string // client -> role
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]string)}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = c.role
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount reports the number of connected screens.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) TableChanged(table models.Table) {
	h.Broadcast(Message{Event: EventTableUpdate, Data: table})
}

func (h *Hub) TableRemoved(table models.Table) {
	h.Broadcast(Message{Event: EventTableDelete, Data: table})
}

// OrderChanged also pushes orders the kitchen still has to work on to the
// chef screens.
func (h *Hub) OrderChanged(order models.Order) {
	h.Broadcast(Message{Event: EventOrderUpdate, Data: order})
	if order.Status == models.OrderPlaced || order.Status == models.OrderPreparing {
		h.broadcastTo(Message{Event: EventKitchenUpdate, Data: order}, models.RoleChef, models.RoleAdmin)
	}
}

func (h *Hub) PaymentRecorded(payment models.Payment, order models.Order) {
	h.Broadcast(Message{
		Event: EventPaymentUpdate,
		Data: map[string]interface{}{
			"payment": payment,
			"order":   order,
		},
	})
}

// Broadcast sends msg to every connected screen.
func (h *Hub) Broadcast(msg Message) {
	h.broadcastTo(msg)
}

// broadcastTo sends msg to clients holding one of roles, or to all when
// roles is empty.
func (h *Hub) broadcastTo(msg Message, roles ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("marshal %s event: %v", msg.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c, role := range h.clients {
		if len(roles) > 0 && !contains(roles, role) {
			continue
		}
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.WithFields(logrus.Fields{"role": role}).Error("dropping slow websocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
