package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
	"gorm.io/gorm"
)

type leaseRepository struct {
	db *gorm.DB
}

func (r *leaseRepository) Create(ctx context.Context, lease domain.Lease, events []ports.OutboxEvent) error {
	rec := toLeaseModel(lease)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: lease already exists", domain.ErrConflict)
			}
			return err
		}
		return enqueueOutbox(tx, events)
	})
}

func (r *leaseRepository) GetByID(ctx context.Context, leaseID uuid.UUID) (domain.Lease, error) {
	var rec leaseModel
	if err := r.db.WithContext(ctx).Where("lease_id = ?", leaseID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Lease{}, domain.ErrNotFound
		}
		return domain.Lease{}, err
	}
	return fromLeaseModel(rec), nil
}

func (r *leaseRepository) Update(ctx context.Context, lease domain.Lease, expectedVersion int64, events []ports.OutboxEvent) error {
	rec := toLeaseModel(lease)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&leaseModel{}).
			Where("lease_id = ? AND version = ?", rec.LeaseID, expectedVersion).
			Updates(leaseColumns(rec))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&leaseModel{}).Where("lease_id = ?", rec.LeaseID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrConcurrentUpdate
		}
		return enqueueOutbox(tx, events)
	})
}

func (r *leaseRepository) ListByParty(ctx context.Context, params ports.ListLeasesParams) ([]domain.Lease, error) {
	q := r.db.WithContext(ctx).Model(&leaseModel{}).Where("is_deleted = ?", false)
	switch params.Role {
	case domain.PartyRoleLandlord:
		q = q.Where("landlord_id = ?", params.UserID)
	case domain.PartyRoleTenant:
		q = q.Where("tenant_id = ?", params.UserID)
	default:
		q = q.Where("(landlord_id = ? OR tenant_id = ?)", params.UserID, params.UserID)
	}
	if params.Status != nil {
		q = whereEffectiveStatus(q, *params.Status, params.Now)
	}
	var rows []leaseModel
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Lease, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromLeaseModel(row))
	}
	return out, nil
}

// whereEffectiveStatus filters on the status a reader would observe, with
// executed leases past their end date counted as expired.
func whereEffectiveStatus(q *gorm.DB, status domain.LeaseStatus, now time.Time) *gorm.DB {
	switch status {
	case domain.LeaseStatusExpired:
		return q.Where("(status = ? OR (status = ? AND end_date < ?))",
			domain.LeaseStatusExpired, domain.LeaseStatusFullyExecuted, now)
	case domain.LeaseStatusFullyExecuted:
		return q.Where("status = ? AND end_date >= ?", domain.LeaseStatusFullyExecuted, now)
	default:
		return q.Where("status = ?", status)
	}
}

const statsBucketSQL = `
SELECT CASE WHEN status = ? AND end_date < ? THEN ? ELSE status END AS bucket,
       COUNT(*) AS lease_count,
       CAST(COALESCE(SUM(rent_amount), 0) AS DOUBLE PRECISION) AS total_rent
FROM leases
WHERE is_deleted = ? AND (landlord_id = ? OR tenant_id = ?)
GROUP BY bucket`

const statsTotalsSQL = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(CASE WHEN landlord_id = ? THEN 1 ELSE 0 END), 0) AS as_landlord,
       COALESCE(SUM(CASE WHEN tenant_id = ? THEN 1 ELSE 0 END), 0) AS as_tenant,
       COALESCE(SUM(CASE WHEN status = ? AND end_date >= ? AND end_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_soon
FROM leases
WHERE is_deleted = ? AND (landlord_id = ? OR tenant_id = ?)`

type statsBucketRow struct {
	Bucket     string  `gorm:"column:bucket"`
	LeaseCount int64   `gorm:"column:lease_count"`
	TotalRent  float64 `gorm:"column:total_rent"`
}

type statsTotalsRow struct {
	Total        int64 `gorm:"column:total"`
	AsLandlord   int64 `gorm:"column:as_landlord"`
	AsTenant     int64 `gorm:"column:as_tenant"`
	ExpiringSoon int64 `gorm:"column:expiring_soon"`
}

func (r *leaseRepository) Stats(ctx context.Context, params ports.LeaseStatsParams) (ports.LeaseStats, error) {
	db := r.db.WithContext(ctx)
	executed := string(domain.LeaseStatusFullyExecuted)

	var buckets []statsBucketRow
	if err := db.Raw(statsBucketSQL,
		executed, params.Now, string(domain.LeaseStatusExpired),
		false, params.UserID, params.UserID,
	).Scan(&buckets).Error; err != nil {
		return ports.LeaseStats{}, err
	}
	var totals statsTotalsRow
	if err := db.Raw(statsTotalsSQL,
		params.UserID, params.UserID,
		executed, params.Now, params.Now.Add(params.ExpiringWithin),
		false, params.UserID, params.UserID,
	).Scan(&totals).Error; err != nil {
		return ports.LeaseStats{}, err
	}

	byStatus := make(map[domain.LeaseStatus]ports.StatusBucket, len(buckets))
	for _, b := range buckets {
		status := domain.LeaseStatus(b.Bucket)
		byStatus[status] = ports.StatusBucket{Status: status, Count: b.LeaseCount, TotalRent: b.TotalRent}
	}
	stats := ports.LeaseStats{
		Total:        totals.Total,
		AsLandlord:   totals.AsLandlord,
		AsTenant:     totals.AsTenant,
		ExpiringSoon: totals.ExpiringSoon,
	}
	for _, status := range domain.LeaseStatuses() {
		if b, ok := byStatus[status]; ok {
			stats.ByStatus = append(stats.ByStatus, b)
		}
	}
	return stats, nil
}

func (r *leaseRepository) ListDecayable(ctx context.Context, now time.Time, limit int) ([]domain.Lease, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", domain.LeaseStatusFullyExecuted, now).
		Order("end_date asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []leaseModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Lease, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromLeaseModel(row))
	}
	return out, nil
}

func (r *leaseRepository) Purge(ctx context.Context, leaseID uuid.UUID, events []ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("lease_id = ?", leaseID).Delete(&leaseModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return enqueueOutbox(tx, events)
	})
}

func enqueueOutbox(tx *gorm.DB, events []ports.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := toOutboxModels(events)
	return tx.Create(&rows).Error
}
