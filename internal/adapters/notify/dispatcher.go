package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type job struct {
	ctx          context.Context
	notification ports.Notification
}

// Dispatcher decouples notification delivery from the request path. Notify
// only enqueues; Run delivers with a per-send timeout and logs failures.
type Dispatcher struct {
	next    ports.Notifier
	queue   chan job
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(next ports.Notifier, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		next:    next,
		queue:   make(chan job, queueSize),
		timeout: timeout,
		logger:  logger.With("module", "notify.dispatcher", "layer", "adapter"),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n ports.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("%w: notification dispatcher stopped", domain.ErrDependencyUnavailable)
	}
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), notification: n}:
		return nil
	default:
		return fmt.Errorf("%w: notification queue full", domain.ErrDependencyUnavailable)
	}
}

// Run delivers queued notifications until ctx is cancelled, then drains
// whatever is already queued and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		case <-ctx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()
			for {
				select {
				case j := <-d.queue:
					d.deliver(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()
	if err := d.next.Notify(ctx, j.notification); err != nil {
		d.logger.WarnContext(ctx, "notification delivery failed",
			"operation", "deliver",
			"outcome", "failure",
			"event", j.notification.Event,
			"user_id", j.notification.UserID.String(),
			"lease_id", j.notification.LeaseID.String(),
			"error", err.Error(),
		)
	}
}
