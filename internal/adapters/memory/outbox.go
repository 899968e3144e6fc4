package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type OutboxStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ports.OutboxRecord
	order   []uuid.UUID
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{records: map[uuid.UUID]*ports.OutboxRecord{}}
}

func (s *OutboxStore) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	s.enqueueAll([]ports.OutboxEvent{event})
	return nil
}

func (s *OutboxStore) enqueueAll(events []ports.OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		id := event.EventID
		if id == uuid.Nil {
			id = uuid.New()
		}
		occurredAt := event.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = time.Now().UTC()
		}
		if _, dup := s.records[id]; !dup {
			s.order = append(s.order, id)
		}
		s.records[id] = &ports.OutboxRecord{
			OutboxID:     id,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      append([]byte(nil), event.Payload...),
			FirstSeenAt:  occurredAt,
		}
	}
}

func (s *OutboxStore) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.OutboxRecord, 0)
	for _, id := range s.order {
		if rec := s.records[id]; rec.PublishedAt == nil {
			out = append(out, *rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *OutboxStore) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.PublishedAt = &at
	return nil
}

func (s *OutboxStore) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.RetryCount++
	rec.LastError = &errMsg
	rec.LastErrorAt = &at
	return nil
}

// EventTypes lists every enqueued event type in arrival order.
func (s *OutboxStore) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].EventType)
	}
	return out
}
