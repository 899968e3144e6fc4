package application

import (
	"time"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

func toLeaseView(l domain.Lease, now time.Time) LeaseView {
	view := LeaseView{
		LeaseID:     l.LeaseID.String(),
		Title:       l.Title,
		Description: l.Description,
		LandlordID:  l.LandlordID.String(),
		TenantID:    l.TenantID.String(),
		PropertyID:  l.PropertyID.String(),
		Status:      string(l.Status()),
		Terms: TermsView{
			StartDate:       l.Terms.StartDate,
			EndDate:         l.Terms.EndDate,
			RentAmount:      l.Terms.RentAmount,
			RentFrequency:   string(l.Terms.RentFrequency),
			SecurityDeposit: l.Terms.SecurityDeposit,
			Terms:           l.Terms.Terms,
		},
		IsLocked:          l.IsLocked(),
		LockedAt:          l.LockedAt(),
		ExpiresAt:         l.ExpiresAt(),
		IsExpired:         l.IsExpired(now),
		IsActive:          l.IsActive(now),
		DurationDays:      l.DurationDays(),
		UnresolvedChanges: l.UnresolvedChanges(),
		IsDeleted:         l.IsDeleted(),
		DeletedAt:         l.DeletedAt(),
		Version:           l.Version,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	for _, c := range l.Terms.CustomClauses {
		view.Terms.CustomClauses = append(view.Terms.CustomClauses, CustomClauseView{
			Title:   c.Title,
			Body:    c.Body,
			AddedBy: c.AddedBy.String(),
			AddedAt: c.AddedAt,
		})
	}
	sigs := l.Signatures()
	view.Signatures.Landlord = toSignatureView(sigs.Landlord)
	view.Signatures.Tenant = toSignatureView(sigs.Tenant)
	if next, ok := l.NextAction(); ok {
		view.NextAction = &NextActionView{By: string(next.By), Action: next.Action}
	}
	return view
}

func toSignatureView(slot *domain.SignatureSlot) *SignatureView {
	if slot == nil {
		return nil
	}
	return &SignatureView{
		SignedAt:      slot.SignedAt,
		SignatureType: slot.SignatureType,
		ImageURL:      slot.ImageURL,
		EvidenceHash:  slot.EvidenceHash,
	}
}

func toMessageView(m domain.Message) MessageView {
	return MessageView{
		MessageID: m.MessageID.String(),
		From:      m.From.String(),
		Body:      m.Body,
		SentAt:    m.SentAt,
	}
}
