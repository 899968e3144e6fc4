package postgres

import (
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
	"gorm.io/datatypes"
)

func toLeaseModel(l domain.Lease) leaseModel {
	r := l.Record()
	return leaseModel{
		LeaseID:          r.LeaseID,
		Title:            r.Title,
		Description:      r.Description,
		LandlordID:       r.LandlordID,
		TenantID:         r.TenantID,
		PropertyID:       r.PropertyID,
		CreatedBy:        r.CreatedBy,
		StartDate:        r.Terms.StartDate,
		EndDate:          r.Terms.EndDate,
		RentAmount:       r.Terms.RentAmount,
		RentFrequency:    string(r.Terms.RentFrequency),
		SecurityDeposit:  r.Terms.SecurityDeposit,
		Terms:            datatypes.NewJSONType(nonNilMap(r.Terms.Terms)),
		CustomClauses:    datatypes.NewJSONType(nonNilSlice(r.Terms.CustomClauses)),
		Status:           string(r.Status),
		StatusHistory:    datatypes.NewJSONType(nonNilSlice(r.StatusHistory)),
		Messages:         datatypes.NewJSONType(nonNilSlice(r.Messages)),
		RequestedChanges: datatypes.NewJSONType(nonNilSlice(r.RequestedChanges)),
		Signatures:       datatypes.NewJSONType(r.Signatures),
		IsLocked:         r.IsLocked,
		LockedAt:         r.LockedAt,
		ExpiresAt:        r.ExpiresAt,
		IsDeleted:        r.IsDeleted,
		DeletedAt:        r.DeletedAt,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func fromLeaseModel(m leaseModel) domain.Lease {
	return domain.LeaseFromRecord(domain.LeaseRecord{
		LeaseID:     m.LeaseID,
		Title:       m.Title,
		Description: m.Description,
		LandlordID:  m.LandlordID,
		TenantID:    m.TenantID,
		PropertyID:  m.PropertyID,
		CreatedBy:   m.CreatedBy,
		Terms: domain.LeaseTerms{
			StartDate:       m.StartDate.UTC(),
			EndDate:         m.EndDate.UTC(),
			RentAmount:      m.RentAmount,
			RentFrequency:   domain.RentFrequency(m.RentFrequency),
			SecurityDeposit: m.SecurityDeposit,
			Terms:           m.Terms.Data(),
			CustomClauses:   m.CustomClauses.Data(),
		},
		Status:           domain.LeaseStatus(m.Status),
		StatusHistory:    m.StatusHistory.Data(),
		Messages:         m.Messages.Data(),
		RequestedChanges: m.RequestedChanges.Data(),
		Signatures:       m.Signatures.Data(),
		IsLocked:         m.IsLocked,
		LockedAt:         utcPtr(m.LockedAt),
		ExpiresAt:        utcPtr(m.ExpiresAt),
		IsDeleted:        m.IsDeleted,
		DeletedAt:        utcPtr(m.DeletedAt),
		Version:          m.Version,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	})
}

// leaseColumns is the column set rewritten by a compare-and-set update.
func leaseColumns(m leaseModel) map[string]any {
	return map[string]any{
		"title":             m.Title,
		"description":       m.Description,
		"start_date":        m.StartDate,
		"end_date":          m.EndDate,
		"rent_amount":       m.RentAmount,
		"rent_frequency":    m.RentFrequency,
		"security_deposit":  m.SecurityDeposit,
		"terms":             m.Terms,
		"custom_clauses":    m.CustomClauses,
		"status":            m.Status,
		"status_history":    m.StatusHistory,
		"messages":          m.Messages,
		"requested_changes": m.RequestedChanges,
		"signatures":        m.Signatures,
		"is_locked":         m.IsLocked,
		"locked_at":         m.LockedAt,
		"expires_at":        m.ExpiresAt,
		"is_deleted":        m.IsDeleted,
		"deleted_at":        m.DeletedAt,
		"version":           m.Version,
		"updated_at":        m.UpdatedAt,
	}
}

func toOutboxModels(events []ports.OutboxEvent) []leaseOutboxModel {
	out := make([]leaseOutboxModel, 0, len(events))
	for _, event := range events {
		out = append(out, toOutboxModel(event))
	}
	return out
}

func toOutboxModel(event ports.OutboxEvent) leaseOutboxModel {
	return leaseOutboxModel{
		OutboxID:         event.EventID,
		EventType:        event.EventType,
		PartitionKey:     event.PartitionKey,
		PartitionKeyPath: event.PartitionKeyPath,
		Payload:          string(event.Payload),
		SchemaVersion:    event.SchemaVersion,
		TraceID:          event.TraceID,
		CreatedAt:        event.OccurredAt,
		FirstSeenAt:      event.OccurredAt,
	}
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
