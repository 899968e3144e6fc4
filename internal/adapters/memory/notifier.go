package memory

import (
	"context"
	"sync"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(_ context.Context, notification ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *Notifier) Sent() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.Notification(nil), n.sent...)
}
