package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

type ListLeasesParams struct {
	UserID uuid.UUID
	// Role narrows the match to one side of the lease; empty matches both.
	Role   domain.PartyRole
	Status *domain.LeaseStatus
	Now    time.Time
}

type StatusBucket struct {
	Status    domain.LeaseStatus
	Count     int64
	TotalRent float64
}

type LeaseStats struct {
	ByStatus     []StatusBucket
	Total        int64
	AsLandlord   int64
	AsTenant     int64
	ExpiringSoon int64
}

type LeaseStatsParams struct {
	UserID         uuid.UUID
	Now            time.Time
	ExpiringWithin time.Duration
}

// LeaseRepository persists whole lease aggregates. Writes carry the outbox
// events that must commit atomically with them.
type LeaseRepository interface {
	Create(ctx context.Context, lease domain.Lease, events []OutboxEvent) error
	// GetByID returns the lease whether or not it is soft-deleted.
	GetByID(ctx context.Context, leaseID uuid.UUID) (domain.Lease, error)
	// Update writes lease only if the stored version equals expectedVersion,
	// otherwise it returns domain.ErrConcurrentUpdate.
	Update(ctx context.Context, lease domain.Lease, expectedVersion int64, events []OutboxEvent) error
	ListByParty(ctx context.Context, params ListLeasesParams) ([]domain.Lease, error)
	Stats(ctx context.Context, params LeaseStatsParams) (LeaseStats, error)
	// ListDecayable returns executed leases whose end date is before now.
	ListDecayable(ctx context.Context, now time.Time, limit int) ([]domain.Lease, error)
	Purge(ctx context.Context, leaseID uuid.UUID, events []OutboxEvent) error
}
