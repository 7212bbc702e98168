package api

import (
	"sync"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const subscriberBuffer = 16

// NotificationHub fans stored notifications out to the open streams of their recipient
type NotificationHub struct {
	mu      sync.Mutex
	clients map[primitive.ObjectID]map[chan models.Notification]bool
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[primitive.ObjectID]map[chan models.Notification]bool),
	}
}

// Subscribe registers a stream for userID. The returned func unregisters it
// and closes the channel.
func (h *NotificationHub) Subscribe(userID primitive.ObjectID) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan models.Notification]bool)
	}
	h.clients[userID][ch] = true
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.clients[userID][ch]; ok {
				delete(h.clients[userID], ch)
				close(ch)
			}
			if len(h.clients[userID]) == 0 {
				delete(h.clients, userID)
			}
		})
	}
}

// Publish delivers n to every stream of n.UserID. A stream whose buffer is
// full misses the message; the stored list stays authoritative.
func (h *NotificationHub) Publish(n models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers returns the number of open streams for userID
func (h *NotificationHub) Subscribers(userID primitive.ObjectID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}
