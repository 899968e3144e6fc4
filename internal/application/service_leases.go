package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type applyFn func(current domain.Lease, t domain.Transition) (domain.Lease, error)

// transition loads the lease, applies fn and commits with a version
// compare-and-set together with the outbox events. A lost race is retried
// against fresh state up to MaxTransitionAttempts.
func (s *Service) transition(ctx context.Context, actor, leaseID uuid.UUID, eventType string, fn applyFn) (domain.Lease, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxTransitionAttempts; attempt++ {
		stored, err := s.loadLease(ctx, leaseID)
		if err != nil {
			return domain.Lease{}, err
		}
		now := s.nowFn()
		current, _ := stored.Decay(now)
		next, err := fn(current, domain.Transition{Actor: actor, Now: now})
		if err != nil {
			return domain.Lease{}, err
		}
		next = next.Seal(now, s.cfg.SignatureWindow)
		next.Version = stored.Version + 1

		events := s.transitionEvents(eventType, stored, next, actor, now)
		err = s.persist(ctx, func(ctx context.Context) error {
			return s.leases.Update(ctx, next, stored.Version, events)
		})
		if err == nil {
			s.invalidateStats(ctx, next)
			return next, nil
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return domain.Lease{}, err
		}
		lastErr = err
		s.logger.Info("lease write lost version race",
			"operation", eventType,
			"outcome", "retry",
			"lease_id", leaseID.String(),
			"attempt", attempt,
		)
	}
	return domain.Lease{}, lastErr
}

func (s *Service) CreateLease(ctx context.Context, actor uuid.UUID, req CreateLeaseRequest) (LeaseView, error) {
	propertyID, err := parseID(req.PropertyID, "property_id")
	if err != nil {
		return LeaseView{}, err
	}
	tenantID, err := parseID(req.TenantID, "tenant_id")
	if err != nil {
		return LeaseView{}, err
	}
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return LeaseView{}, err
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		return LeaseView{}, err
	}

	property, err := s.properties.FindPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LeaseView{}, fmt.Errorf("%w: property not found or not owned by caller", domain.ErrNotFound)
		}
		return LeaseView{}, err
	}
	if property.OwnerID != actor || property.IsDeleted {
		return LeaseView{}, fmt.Errorf("%w: property not found or not owned by caller", domain.ErrNotFound)
	}
	tenant, err := s.users.FindUserByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LeaseView{}, fmt.Errorf("%w: tenant not found", domain.ErrNotFound)
		}
		return LeaseView{}, err
	}
	if tenant.Role != domain.UserRoleTenant {
		return LeaseView{}, fmt.Errorf("%w: tenant not found", domain.ErrNotFound)
	}
	landlordName := "the landlord"
	if landlord, lErr := s.users.FindUserByID(ctx, actor); lErr == nil && strings.TrimSpace(landlord.Name) != "" {
		landlordName = landlord.Name
	}

	now := s.nowFn()
	lease, err := domain.NewLease(domain.NewLeaseParams{
		Title:       "Lease Agreement for " + property.Title,
		Description: fmt.Sprintf("Lease between %s and %s", landlordName, tenant.Name),
		LandlordID:  actor,
		TenantID:    tenantID,
		PropertyID:  propertyID,
		Terms: domain.LeaseTerms{
			StartDate:       start,
			EndDate:         end,
			RentAmount:      req.RentAmount,
			RentFrequency:   domain.RentFrequency(req.RentFrequency),
			SecurityDeposit: req.SecurityDeposit,
			Terms:           req.Terms,
			CustomClauses:   toClauses(req.CustomClauses),
		},
		Now:             now,
		SignatureWindow: s.cfg.SignatureWindow,
	})
	if err != nil {
		return LeaseView{}, err
	}
	lease = lease.Seal(now, s.cfg.SignatureWindow)
	lease.Version = 1

	events := []ports.OutboxEvent{s.leaseEvent(EventLeaseCreated, lease.Status(), lease, actor, now)}
	if err := s.persist(ctx, func(ctx context.Context) error {
		return s.leases.Create(ctx, lease, events)
	}); err != nil {
		return LeaseView{}, err
	}
	s.invalidateStats(ctx, lease)
	return toLeaseView(lease, now), nil
}

func (s *Service) SendLease(ctx context.Context, actor, leaseID uuid.UUID, req SendLeaseRequest) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseSent, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.Send(t, req.Message)
	})
	if err != nil {
		return LeaseView{}, err
	}
	s.notify(ctx, next.TenantID, "lease_sent", next, map[string]string{"message": req.Message})
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) RequestChanges(ctx context.Context, actor, leaseID uuid.UUID, req RequestChangesRequest) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseChangesRequested, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.RequestChanges(t, req.Changes)
	})
	if err != nil {
		return LeaseView{}, err
	}
	s.notify(ctx, next.OtherParty(actor), "changes_requested", next, map[string]string{"changes": req.Changes})
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) UpdateAndResend(ctx context.Context, actor, leaseID uuid.UUID, req UpdateLeaseRequest) (LeaseView, error) {
	update, err := toLeaseUpdate(req)
	if err != nil {
		return LeaseView{}, err
	}
	next, err := s.transition(ctx, actor, leaseID, EventLeaseUpdated, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.UpdateAndResend(t, update, req.ResolutionNote, req.Message)
	})
	if err != nil {
		return LeaseView{}, err
	}
	s.notify(ctx, next.TenantID, "lease_updated", next, map[string]string{"message": req.Message})
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) SignLease(ctx context.Context, actor, leaseID uuid.UUID, req SignLeaseRequest) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseSigned, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.Sign(t, domain.SignatureInput{
			SignatureType: req.SignatureType,
			Payload:       req.SignatureData,
			ImageURL:      req.SignatureImageURL,
			IPAddress:     req.IPAddress,
			UserAgent:     req.UserAgent,
		})
	})
	if err != nil {
		return LeaseView{}, err
	}
	role, _ := next.RoleOf(actor)
	if next.Status() == domain.LeaseStatusFullyExecuted {
		s.notify(ctx, next.LandlordID, "lease_fully_executed", next, nil)
		s.notify(ctx, next.TenantID, "lease_fully_executed", next, nil)
	} else {
		s.notify(ctx, next.OtherParty(actor), "lease_signed", next, map[string]string{"signed_by": string(role)})
	}
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) CancelLease(ctx context.Context, actor, leaseID uuid.UUID, req CancelLeaseRequest) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseCancelled, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.Cancel(t, req.Reason)
	})
	if err != nil {
		return LeaseView{}, err
	}
	s.notify(ctx, next.OtherParty(actor), "lease_cancelled", next, map[string]string{"reason": req.Reason})
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) DeleteLease(ctx context.Context, actor, leaseID uuid.UUID) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseDeleted, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.SoftDelete(t)
	})
	if err != nil {
		return LeaseView{}, err
	}
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) RestoreLease(ctx context.Context, actor, leaseID uuid.UUID) (LeaseView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseRestored, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.Restore(t)
	})
	if err != nil {
		return LeaseView{}, err
	}
	return toLeaseView(next, s.nowFn()), nil
}

func (s *Service) PostMessage(ctx context.Context, actor, leaseID uuid.UUID, req PostMessageRequest) (MessageView, error) {
	next, err := s.transition(ctx, actor, leaseID, EventLeaseMessagePosted, func(l domain.Lease, t domain.Transition) (domain.Lease, error) {
		return l.PostMessage(t, req.Message)
	})
	if err != nil {
		return MessageView{}, err
	}
	msgs := next.Messages()
	s.notify(ctx, next.OtherParty(actor), "lease_message", next, nil)
	return toMessageView(msgs[len(msgs)-1]), nil
}

// PurgeLease permanently removes a lease. Restricted to admin roles.
func (s *Service) PurgeLease(ctx context.Context, actor, leaseID uuid.UUID) error {
	user, err := s.users.FindUserByID(ctx, actor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
		}
		return err
	}
	if !user.Role.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	lease, err := s.loadLease(ctx, leaseID)
	if err != nil {
		return err
	}
	now := s.nowFn()
	events := []ports.OutboxEvent{s.leaseEvent(EventLeasePurged, lease.Status(), lease, actor, now)}
	if err := s.persist(ctx, func(ctx context.Context) error {
		return s.leases.Purge(ctx, leaseID, events)
	}); err != nil {
		return err
	}
	s.invalidateStats(ctx, lease)
	s.logger.Info("lease purged",
		"operation", "purge_lease",
		"outcome", "success",
		"lease_id", leaseID.String(),
		"actor_id", actor.String(),
	)
	return nil
}

// SweepExpired persists passive expiry for executed leases past their end
// date so that downstream consumers see lease.expired without a read.
func (s *Service) SweepExpired(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	var candidates []domain.Lease
	err := s.persist(ctx, func(ctx context.Context) error {
		var err error
		candidates, err = s.leases.ListDecayable(ctx, s.nowFn(), s.cfg.SweepBatchSize)
		return err
	})
	if err != nil {
		return result, err
	}
	result.Scanned = len(candidates)
	for _, stored := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		changed, err := s.flushDecay(ctx, stored)
		switch {
		case err != nil && errors.Is(err, domain.ErrConcurrentUpdate):
			result.Skipped++
		case err != nil:
			return result, err
		case changed:
			result.Expired++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

// flushDecay writes a passively expired lease back. A lost version race is
// reported but harmless since every reader re-applies the rule.
func (s *Service) flushDecay(ctx context.Context, stored domain.Lease) (bool, error) {
	now := s.nowFn()
	next, changed := stored.Decay(now)
	if !changed {
		return false, nil
	}
	next = next.Seal(now, s.cfg.SignatureWindow)
	next.Version = stored.Version + 1
	events := []ports.OutboxEvent{s.leaseEvent(EventLeaseExpired, stored.Status(), next, next.CreatedBy, now)}
	err := s.persist(ctx, func(ctx context.Context) error {
		return s.leases.Update(ctx, next, stored.Version, events)
	})
	if err != nil {
		return false, err
	}
	s.invalidateStats(ctx, next)
	return true, nil
}

func toLeaseUpdate(req UpdateLeaseRequest) (domain.LeaseUpdate, error) {
	update := domain.LeaseUpdate{
		Title:           req.Title,
		Description:     req.Description,
		RentAmount:      req.RentAmount,
		SecurityDeposit: req.SecurityDeposit,
		Terms:           req.Terms,
		CustomClauses:   toClauses(req.CustomClauses),
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate, "start_date")
		if err != nil {
			return domain.LeaseUpdate{}, err
		}
		update.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate, "end_date")
		if err != nil {
			return domain.LeaseUpdate{}, err
		}
		update.EndDate = &end
	}
	if req.RentFrequency != nil {
		freq := domain.RentFrequency(*req.RentFrequency)
		update.RentFrequency = &freq
	}
	return update, nil
}
