package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type NextAction struct {
	By     PartyRole `json:"by"`
	Action string    `json:"action"`
}

const (
	ActionSendToTenant = "send_to_tenant"
	ActionReview       = "review"
	ActionUpdateLease  = "update_lease"
	ActionSign         = "sign"
)

// NextAction reports whose move it is. Terminal statuses have none.
func (l Lease) NextAction() (NextAction, bool) {
	switch l.status {
	case LeaseStatusDraft:
		return NextAction{By: PartyRoleLandlord, Action: ActionSendToTenant}, true
	case LeaseStatusSentToTenant:
		return NextAction{By: PartyRoleTenant, Action: ActionReview}, true
	case LeaseStatusChangesRequested:
		return NextAction{By: PartyRoleLandlord, Action: ActionUpdateLease}, true
	case LeaseStatusSignedByLandlord:
		return NextAction{By: PartyRoleTenant, Action: ActionSign}, true
	case LeaseStatusSignedByTenant:
		return NextAction{By: PartyRoleLandlord, Action: ActionSign}, true
	default:
		return NextAction{}, false
	}
}

// IsExpired is true once an executed lease has run past its end date,
// whether or not the stored status has caught up yet.
func (l Lease) IsExpired(now time.Time) bool {
	if l.status == LeaseStatusExpired {
		return true
	}
	return l.status == LeaseStatusFullyExecuted && now.After(l.Terms.EndDate)
}

func (l Lease) IsActive(now time.Time) bool {
	return l.status == LeaseStatusFullyExecuted &&
		!now.Before(l.Terms.StartDate) &&
		!now.After(l.Terms.EndDate)
}

func (l Lease) DurationDays() int {
	d := l.Terms.EndDate.Sub(l.Terms.StartDate)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

func (l Lease) IsSignedByLandlord() bool { return l.signatures.Landlord != nil }

func (l Lease) IsSignedByTenant() bool { return l.signatures.Tenant != nil }

func (l Lease) IsFullySigned() bool {
	return l.IsSignedByLandlord() && l.IsSignedByTenant()
}

func (l Lease) IsParty(userID uuid.UUID) bool {
	_, ok := l.RoleOf(userID)
	return ok
}

func (l Lease) RoleOf(userID uuid.UUID) (PartyRole, bool) {
	switch {
	case userID == uuid.Nil:
		return "", false
	case userID == l.LandlordID:
		return PartyRoleLandlord, true
	case userID == l.TenantID:
		return PartyRoleTenant, true
	default:
		return "", false
	}
}

// OtherParty returns the counterparty of userID, or uuid.Nil for outsiders.
func (l Lease) OtherParty(userID uuid.UUID) uuid.UUID {
	switch userID {
	case l.LandlordID:
		return l.TenantID
	case l.TenantID:
		return l.LandlordID
	default:
		return uuid.Nil
	}
}
