package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/utils"
)

// Lifecycle event names. Every successful mutating command emits
// exactly one of these.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderPaid    = "order.paid"
	EventPayRequested = "order.payRequested"
)

// Message is the wire envelope for every event.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Payloads are best-effort hints. Observers must re-fetch authoritative
// state instead of applying these as deltas.

type OrderCreatedPayload struct {
	Order models.Order `json:"order"`
}

type OrderUpdatedPayload struct {
	OrderID       uint   `json:"order_id"`
	KitchenStatus string `json:"kitchen_status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

type OrderPaidPayload struct {
	OrderIDs []uint `json:"order_ids"`
}

type PayRequestedPayload struct {
	TableNumber int     `json:"table_number"`
	OrderIDs    []uint  `json:"order_ids"`
	Total       float64 `json:"total"`
	Summary     string  `json:"summary"`
}

// Hub fans lifecycle events out to every connected observer
// (admin panel, kitchen display, customer app). Delivery is
// at-most-once and non-durable: a client that is not connected at
// emission time simply misses the event and catches up on its next
// reconciliation fetch.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> role
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]string),
	}
}

// Register adds a connection with its role.
func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = role
}

// Unregister drops a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) OrderCreated(order models.Order) {
	h.broadcast(Message{Event: EventOrderCreated, Data: OrderCreatedPayload{Order: order}})
}

func (h *Hub) OrderUpdated(orderID uint, kitchenStatus, paymentStatus string) {
	h.broadcast(Message{Event: EventOrderUpdated, Data: OrderUpdatedPayload{
		OrderID:       orderID,
		KitchenStatus: kitchenStatus,
		PaymentStatus: paymentStatus,
	}})
}

func (h *Hub) OrderPaid(orderIDs []uint) {
	h.broadcast(Message{Event: EventOrderPaid, Data: OrderPaidPayload{OrderIDs: orderIDs}})
}

func (h *Hub) PayRequested(tableNumber int, orderIDs []uint, total float64, summary string) {
	h.broadcast(Message{Event: EventPayRequested, Data: PayRequestedPayload{
		TableNumber: tableNumber,
		OrderIDs:    orderIDs,
		Total:       total,
		Summary:     summary,
	}})
}

// broadcast sends a message to every client. Failures are logged and
// swallowed; emission must never fail the mutation that triggered it.
func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("events: marshal %s: %v", msg.Event, err)
		return
	}

	for conn, role := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Errorf("events: send %s to %s client: %v", msg.Event, role, err)
			continue
		}
	}
}
