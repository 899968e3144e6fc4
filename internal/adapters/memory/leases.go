package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

// LeaseStore keeps leases as records and commits outbox events under the
// same lock, mirroring the single-transaction behaviour of the SQL store.
type LeaseStore struct {
	mu     sync.RWMutex
	leases map[uuid.UUID]domain.LeaseRecord
	outbox *OutboxStore
}

func NewLeaseStore(outbox *OutboxStore) *LeaseStore {
	if outbox == nil {
		outbox = NewOutboxStore()
	}
	return &LeaseStore{leases: map[uuid.UUID]domain.LeaseRecord{}, outbox: outbox}
}

func (s *LeaseStore) Create(_ context.Context, lease domain.Lease, events []ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leases[lease.LeaseID]; exists {
		return domain.ErrConflict
	}
	s.leases[lease.LeaseID] = lease.Record()
	s.outbox.enqueueAll(events)
	return nil
}

func (s *LeaseStore) GetByID(_ context.Context, leaseID uuid.UUID) (domain.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.leases[leaseID]
	if !ok {
		return domain.Lease{}, domain.ErrNotFound
	}
	return domain.LeaseFromRecord(rec), nil
}

func (s *LeaseStore) Update(_ context.Context, lease domain.Lease, expectedVersion int64, events []ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.leases[lease.LeaseID]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.Version != expectedVersion {
		return domain.ErrConcurrentUpdate
	}
	s.leases[lease.LeaseID] = lease.Record()
	s.outbox.enqueueAll(events)
	return nil
}

func (s *LeaseStore) ListByParty(_ context.Context, params ports.ListLeasesParams) ([]domain.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lease, 0)
	for _, rec := range s.leases {
		if rec.IsDeleted || !matchesRole(rec, params.UserID, params.Role) {
			continue
		}
		if params.Status != nil && effectiveStatus(rec, params.Now) != *params.Status {
			continue
		}
		out = append(out, domain.LeaseFromRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *LeaseStore) Stats(_ context.Context, params ports.LeaseStatsParams) (ports.LeaseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats ports.LeaseStats
	buckets := map[domain.LeaseStatus]*ports.StatusBucket{}
	horizon := params.Now.Add(params.ExpiringWithin)
	for _, rec := range s.leases {
		if rec.IsDeleted || !matchesRole(rec, params.UserID, "") {
			continue
		}
		status := effectiveStatus(rec, params.Now)
		b, ok := buckets[status]
		if !ok {
			b = &ports.StatusBucket{Status: status}
			buckets[status] = b
		}
		b.Count++
		b.TotalRent += rec.Terms.RentAmount
		stats.Total++
		if rec.LandlordID == params.UserID {
			stats.AsLandlord++
		}
		if rec.TenantID == params.UserID {
			stats.AsTenant++
		}
		if status == domain.LeaseStatusFullyExecuted && !rec.Terms.EndDate.Before(params.Now) && !rec.Terms.EndDate.After(horizon) {
			stats.ExpiringSoon++
		}
	}
	for _, status := range domain.LeaseStatuses() {
		if b, ok := buckets[status]; ok {
			stats.ByStatus = append(stats.ByStatus, *b)
		}
	}
	return stats, nil
}

func (s *LeaseStore) ListDecayable(_ context.Context, now time.Time, limit int) ([]domain.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lease, 0)
	for _, rec := range s.leases {
		if rec.Status == domain.LeaseStatusFullyExecuted && rec.Terms.EndDate.Before(now) {
			out = append(out, domain.LeaseFromRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Terms.EndDate.Before(out[j].Terms.EndDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *LeaseStore) Purge(_ context.Context, leaseID uuid.UUID, events []ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leases[leaseID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.leases, leaseID)
	s.outbox.enqueueAll(events)
	return nil
}

func matchesRole(rec domain.LeaseRecord, userID uuid.UUID, role domain.PartyRole) bool {
	switch role {
	case domain.PartyRoleLandlord:
		return rec.LandlordID == userID
	case domain.PartyRoleTenant:
		return rec.TenantID == userID
	default:
		return rec.LandlordID == userID || rec.TenantID == userID
	}
}

func effectiveStatus(rec domain.LeaseRecord, now time.Time) domain.LeaseStatus {
	if rec.Status == domain.LeaseStatusFullyExecuted && now.After(rec.Terms.EndDate) {
		return domain.LeaseStatusExpired
	}
	return rec.Status
}
