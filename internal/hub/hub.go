package hub

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// inboundMessage is what subscribers send over the socket
type inboundMessage struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

// Hub tracks subscribers and pushes account events to all of them. Delivery
// to one subscriber never blocks on another: each has its own bounded queue
// and overflow drops the message for that subscriber only.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	store          storage.AccountStore
	sendBuffer     int
	requestRefresh func(address string)
	logger         *logging.Logger
}

// NewHub creates a hub. requestRefresh is invoked when a subscriber asks for
// an account; it must not block.
func NewHub(store storage.AccountStore, sendBuffer int, requestRefresh func(address string)) *Hub {
	return &Hub{
		subscribers:    make(map[string]*Subscriber),
		store:          store,
		sendBuffer:     sendBuffer,
		requestRefresh: requestRefresh,
		logger:         logging.Global().WithField("component", "hub"),
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sub := newSubscriber(conn, h.sendBuffer, h.remove)
	h.register(sub)

	go sub.writePump()
	go sub.readPump(h.handleMessage)
}

// register adds the subscriber and sends it the current snapshot
func (h *Hub) register(sub *Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.WithFields(map[string]any{"subscriber": sub.ID, "total": count}).Info("Subscriber connected")
	h.sendSnapshot(sub)
}

func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub.ID)
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.WithFields(map[string]any{"subscriber": sub.ID, "total": count}).Info("Subscriber disconnected")
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast delivers an event to every subscriber. The payload is marshaled
// once; subscribers with full queues miss this event.
func (h *Hub) Broadcast(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if !s.enqueue(data) {
			h.logger.WithField("subscriber", s.ID).Warn("Subscriber queue full, dropping event")
		}
	}
}

// handleMessage dispatches one inbound subscriber message
func (h *Hub) handleMessage(sub *Subscriber, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.WithError(err).Debug("Ignoring malformed subscriber message")
		return
	}

	switch msg.Type {
	case "get_account":
		if msg.Address == "" {
			return
		}
		if record, ok := h.store.Get(msg.Address); ok {
			h.sendEvent(sub, models.Event{Type: models.EventAccountUpdate, Data: record})
		}
		if h.requestRefresh != nil {
			h.requestRefresh(msg.Address)
		}

	case "refresh_all":
		h.sendSnapshot(sub)

	default:
		h.logger.WithField("type", msg.Type).Debug("Ignoring unknown message type")
	}
}

// sendSnapshot pushes the full account set to one subscriber
func (h *Hub) sendSnapshot(sub *Subscriber) {
	h.sendEvent(sub, models.Event{Type: models.EventFullUpdate, Data: h.store.List()})
}

func (h *Hub) sendEvent(sub *Subscriber, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal event")
		return
	}
	if !sub.enqueue(data) {
		h.logger.WithField("subscriber", sub.ID).Warn("Subscriber queue full, dropping event")
	}
}
