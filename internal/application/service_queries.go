package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

func (s *Service) GetLease(ctx context.Context, actor, leaseID uuid.UUID) (LeaseDetail, error) {
	stored, err := s.loadLease(ctx, leaseID)
	if err != nil {
		return LeaseDetail{}, err
	}
	if stored.IsDeleted() {
		return LeaseDetail{}, fmt.Errorf("%w: lease not found", domain.ErrNotFound)
	}
	role, ok := stored.RoleOf(actor)
	if !ok {
		return LeaseDetail{}, fmt.Errorf("%w: lease not found", domain.ErrNotFound)
	}
	lease := s.decayOnRead(ctx, stored)

	detail := LeaseDetail{
		LeaseView:        toLeaseView(lease, s.nowFn()),
		MyRole:           string(role),
		Landlord:         s.partyView(ctx, lease.LandlordID),
		Tenant:           s.partyView(ctx, lease.TenantID),
		Property:         PropertyView{PropertyID: lease.PropertyID.String()},
		StatusHistory:    make([]StatusChangeView, 0, len(lease.StatusHistory())),
		Messages:         make([]MessageView, 0, len(lease.Messages())),
		RequestedChanges: make([]ChangeRequestView, 0, len(lease.RequestedChanges())),
	}
	if property, pErr := s.properties.FindPropertyByID(ctx, lease.PropertyID); pErr == nil {
		detail.Property.Title = property.Title
	}
	for _, h := range lease.StatusHistory() {
		detail.StatusHistory = append(detail.StatusHistory, StatusChangeView{
			Status:    string(h.Status),
			ChangedBy: h.ChangedBy.String(),
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
		})
	}
	for _, m := range lease.Messages() {
		detail.Messages = append(detail.Messages, toMessageView(m))
	}
	for _, rc := range lease.RequestedChanges() {
		detail.RequestedChanges = append(detail.RequestedChanges, ChangeRequestView{
			ChangeID:       rc.ChangeID.String(),
			RequestedBy:    rc.RequestedBy.String(),
			Description:    rc.Description,
			RequestedAt:    rc.RequestedAt,
			Resolved:       rc.Resolved,
			ResolvedAt:     rc.ResolvedAt,
			ResolutionNote: rc.ResolutionNote,
		})
	}
	return detail, nil
}

func (s *Service) ListMyLeases(ctx context.Context, actor uuid.UUID, query ListLeasesQuery) ([]LeaseView, error) {
	params := ports.ListLeasesParams{UserID: actor, Now: s.nowFn()}
	switch strings.TrimSpace(query.Role) {
	case "":
	case string(domain.PartyRoleLandlord):
		params.Role = domain.PartyRoleLandlord
	case string(domain.PartyRoleTenant):
		params.Role = domain.PartyRoleTenant
	default:
		return nil, fmt.Errorf("%w: role must be landlord or tenant", domain.ErrValidation)
	}
	if raw := strings.TrimSpace(query.Status); raw != "" && raw != "all" {
		status, err := domain.ParseLeaseStatus(raw)
		if err != nil {
			return nil, err
		}
		params.Status = &status
	}

	var leases []domain.Lease
	err := s.persist(ctx, func(ctx context.Context) error {
		var err error
		leases, err = s.leases.ListByParty(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]LeaseView, 0, len(leases))
	for _, stored := range leases {
		out = append(out, toLeaseView(s.decayOnRead(ctx, stored), params.Now))
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, actor uuid.UUID) (LeaseStatsView, error) {
	key := cacheKeyStats(actor)
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
		var cached LeaseStatsView
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return cached, nil
		}
	}

	var stats ports.LeaseStats
	err := s.persist(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.leases.Stats(ctx, ports.LeaseStatsParams{
			UserID:         actor,
			Now:            s.nowFn(),
			ExpiringWithin: s.cfg.ExpiringSoonWindow,
		})
		return err
	})
	if err != nil {
		return LeaseStatsView{}, err
	}
	view := LeaseStatsView{
		ByStatus:     make([]StatusBucketView, 0, len(stats.ByStatus)),
		Total:        stats.Total,
		AsLandlord:   stats.AsLandlord,
		AsTenant:     stats.AsTenant,
		ExpiringSoon: stats.ExpiringSoon,
	}
	for _, b := range stats.ByStatus {
		view.ByStatus = append(view.ByStatus, StatusBucketView{Status: string(b.Status), Count: b.Count, TotalRent: b.TotalRent})
	}
	// A lease inside the expiring window can decay before the entry would
	// lapse, so those results are always computed fresh.
	if view.ExpiringSoon > 0 {
		_ = s.cache.Delete(ctx, key)
		return view, nil
	}
	if raw, mErr := json.Marshal(view); mErr == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.cfg.StatsCacheTTL)
	}
	return view, nil
}

// decayOnRead returns the lease with passive expiry applied and tries to
// persist it. The caller gets the decayed view even if the write fails.
func (s *Service) decayOnRead(ctx context.Context, stored domain.Lease) domain.Lease {
	next, changed := stored.Decay(s.nowFn())
	if !changed {
		return stored
	}
	if _, err := s.flushDecay(ctx, stored); err != nil && !errors.Is(err, domain.ErrConcurrentUpdate) {
		s.logger.Warn("passive expiry flush failed",
			"operation", "decay_on_read",
			"outcome", "failure",
			"lease_id", stored.LeaseID.String(),
			"error", err.Error(),
		)
	}
	return next
}

func (s *Service) partyView(ctx context.Context, userID uuid.UUID) PartyView {
	view := PartyView{UserID: userID.String()}
	if user, err := s.users.FindUserByID(ctx, userID); err == nil {
		view.Name = user.Name
		view.Email = user.Email
	}
	return view
}
