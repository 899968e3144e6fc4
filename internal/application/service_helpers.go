package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

const (
	EventLeaseCreated          = "lease.created"
	EventLeaseSent             = "lease.sent"
	EventLeaseChangesRequested = "lease.changes_requested"
	EventLeaseUpdated          = "lease.updated"
	EventLeaseSigned           = "lease.signed"
	EventLeaseFullyExecuted    = "lease.fully_executed"
	EventLeaseCancelled        = "lease.cancelled"
	EventLeaseExpired          = "lease.expired"
	EventLeaseDeleted          = "lease.deleted"
	EventLeaseRestored         = "lease.restored"
	EventLeaseMessagePosted    = "lease.message_posted"
	EventLeasePurged           = "lease.purged"
)

type leaseEventData struct {
	LeaseID        string `json:"lease_id"`
	PropertyID     string `json:"property_id"`
	LandlordID     string `json:"landlord_id"`
	TenantID       string `json:"tenant_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	ActorID        string `json:"actor_id,omitempty"`
	Version        int64  `json:"version"`
	IsLocked       bool   `json:"is_locked"`
	IsDeleted      bool   `json:"is_deleted,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

func (s *Service) leaseEvent(eventType string, previous domain.LeaseStatus, lease domain.Lease, actor uuid.UUID, occurredAt time.Time) ports.OutboxEvent {
	data := leaseEventData{
		LeaseID:    lease.LeaseID.String(),
		PropertyID: lease.PropertyID.String(),
		LandlordID: lease.LandlordID.String(),
		TenantID:   lease.TenantID.String(),
		Status:     string(lease.Status()),
		Version:    lease.Version,
		IsLocked:   lease.IsLocked(),
		IsDeleted:  lease.IsDeleted(),
		OccurredAt: occurredAt.Format(time.RFC3339),
	}
	if previous != lease.Status() {
		data.PreviousStatus = string(previous)
	}
	if actor != uuid.Nil {
		data.ActorID = actor.String()
	}
	eventID := uuid.New()
	payloadEnvelope := map[string]any{
		"event_id":           eventID.String(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     "1.0",
		"partition_key_path": "data.lease_id",
		"partition_key":      lease.LeaseID.String(),
		"data":               data,
	}
	payload, _ := json.Marshal(payloadEnvelope)
	return ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     lease.LeaseID.String(),
		PartitionKeyPath: "data.lease_id",
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	}
}

// transitionEvents emits the operation event plus milestone events for
// execution and expiry reached during this write.
func (s *Service) transitionEvents(eventType string, stored, next domain.Lease, actor uuid.UUID, at time.Time) []ports.OutboxEvent {
	prev := stored.Status()
	events := []ports.OutboxEvent{s.leaseEvent(eventType, prev, next, actor, at)}
	if next.Status() == domain.LeaseStatusFullyExecuted && prev != domain.LeaseStatusFullyExecuted {
		events = append(events, s.leaseEvent(EventLeaseFullyExecuted, prev, next, actor, at))
	}
	if next.Status() == domain.LeaseStatusExpired && prev != domain.LeaseStatusExpired && eventType != EventLeaseExpired {
		events = append(events, s.leaseEvent(EventLeaseExpired, prev, next, next.CreatedBy, at))
	}
	return events
}

func (s *Service) persist(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return err
}

func (s *Service) loadLease(ctx context.Context, leaseID uuid.UUID) (domain.Lease, error) {
	var lease domain.Lease
	err := s.persist(ctx, func(ctx context.Context) error {
		var err error
		lease, err = s.leases.GetByID(ctx, leaseID)
		return err
	})
	return lease, err
}

func cacheKeyStats(userID uuid.UUID) string {
	return "lease:stats:" + userID.String()
}

func (s *Service) invalidateStats(ctx context.Context, lease domain.Lease) {
	if err := s.cache.Delete(ctx, cacheKeyStats(lease.LandlordID), cacheKeyStats(lease.TenantID)); err != nil {
		s.logger.Warn("stats cache invalidation failed",
			"operation", "invalidate_stats",
			"outcome", "failure",
			"lease_id", lease.LeaseID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, event string, lease domain.Lease, data map[string]string) {
	if userID == uuid.Nil {
		return
	}
	if data == nil {
		data = map[string]string{}
	}
	data["lease_title"] = lease.Title
	data["status"] = string(lease.Status())
	err := s.notifier.Notify(ctx, ports.Notification{
		UserID:  userID,
		Event:   event,
		LeaseID: lease.LeaseID,
		Data:    data,
	})
	if err != nil {
		s.logger.Warn("lease notification not dispatched",
			"operation", "notify",
			"outcome", "failure",
			"lease_id", lease.LeaseID.String(),
			"event", event,
			"error", err.Error(),
		)
	}
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, field)
	}
	return id, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD or RFC3339)", domain.ErrValidation, field)
}

func toClauses(in []CustomClauseInput) []domain.CustomClause {
	if in == nil {
		return nil
	}
	out := make([]domain.CustomClause, 0, len(in))
	for _, c := range in {
		out = append(out, domain.CustomClause{Title: c.Title, Body: c.Body})
	}
	return out
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, error) { return "", domain.ErrNotFound }

func (noopCache) Set(context.Context, string, string, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, ...string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, ports.Notification) error { return nil }
