package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LeaseStatus string

const (
	LeaseStatusDraft            LeaseStatus = "draft"
	LeaseStatusSentToTenant     LeaseStatus = "sent_to_tenant"
	LeaseStatusChangesRequested LeaseStatus = "changes_requested"
	LeaseStatusSignedByLandlord LeaseStatus = "signed_by_landlord"
	LeaseStatusSignedByTenant   LeaseStatus = "signed_by_tenant"
	LeaseStatusFullyExecuted    LeaseStatus = "fully_executed"
	LeaseStatusCancelled        LeaseStatus = "cancelled"
	LeaseStatusExpired          LeaseStatus = "expired"
)

var leaseStatuses = []LeaseStatus{
	LeaseStatusDraft,
	LeaseStatusSentToTenant,
	LeaseStatusChangesRequested,
	LeaseStatusSignedByLandlord,
	LeaseStatusSignedByTenant,
	LeaseStatusFullyExecuted,
	LeaseStatusCancelled,
	LeaseStatusExpired,
}

func LeaseStatuses() []LeaseStatus {
	return append([]LeaseStatus(nil), leaseStatuses...)
}

func ParseLeaseStatus(raw string) (LeaseStatus, error) {
	for _, s := range leaseStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", validationf("unknown lease status %q", raw)
}

// IsTerminal reports whether no actor-driven transition can leave the status.
func (s LeaseStatus) IsTerminal() bool {
	switch s {
	case LeaseStatusFullyExecuted, LeaseStatusCancelled, LeaseStatusExpired:
		return true
	default:
		return false
	}
}

type RentFrequency string

const (
	RentFrequencyMonthly   RentFrequency = "monthly"
	RentFrequencyWeekly    RentFrequency = "weekly"
	RentFrequencyBiweekly  RentFrequency = "biweekly"
	RentFrequencyQuarterly RentFrequency = "quarterly"
	RentFrequencyYearly    RentFrequency = "yearly"
)

func (f RentFrequency) Valid() bool {
	switch f {
	case RentFrequencyMonthly, RentFrequencyWeekly, RentFrequencyBiweekly, RentFrequencyQuarterly, RentFrequencyYearly:
		return true
	default:
		return false
	}
}

type PartyRole string

const (
	PartyRoleLandlord PartyRole = "landlord"
	PartyRoleTenant   PartyRole = "tenant"
)

// DefaultSignatureWindow is how long an unexecuted lease stays signable.
const DefaultSignatureWindow = 30 * 24 * time.Hour

type CustomClause struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	AddedBy uuid.UUID `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

type LeaseTerms struct {
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	RentAmount      float64           `json:"rent_amount"`
	RentFrequency   RentFrequency     `json:"rent_frequency"`
	SecurityDeposit float64           `json:"security_deposit"`
	Terms           map[string]string `json:"terms,omitempty"`
	CustomClauses   []CustomClause    `json:"custom_clauses,omitempty"`
}

type StatusChange struct {
	Status    LeaseStatus `json:"status"`
	ChangedBy uuid.UUID   `json:"changed_by"`
	Reason    string      `json:"reason,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

type Message struct {
	MessageID uuid.UUID `json:"message_id"`
	From      uuid.UUID `json:"from"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

type ChangeRequest struct {
	ChangeID       uuid.UUID  `json:"change_id"`
	RequestedBy    uuid.UUID  `json:"requested_by"`
	Description    string     `json:"description"`
	RequestedAt    time.Time  `json:"requested_at"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
}

type SignatureSlot struct {
	SignedAt      time.Time       `json:"signed_at"`
	SignatureType string          `json:"signature_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	IPAddress     string          `json:"ip_address"`
	UserAgent     string          `json:"user_agent"`
	EvidenceHash  string          `json:"evidence_hash"`
}

type Signatures struct {
	Landlord *SignatureSlot `json:"landlord,omitempty"`
	Tenant   *SignatureSlot `json:"tenant,omitempty"`
}

func (s Signatures) slot(role PartyRole) *SignatureSlot {
	if role == PartyRoleLandlord {
		return s.Landlord
	}
	return s.Tenant
}

func (s Signatures) clone() Signatures {
	out := Signatures{}
	if s.Landlord != nil {
		c := *s.Landlord
		c.Payload = append([]byte(nil), s.Landlord.Payload...)
		out.Landlord = &c
	}
	if s.Tenant != nil {
		c := *s.Tenant
		c.Payload = append([]byte(nil), s.Tenant.Payload...)
		out.Tenant = &c
	}
	return out
}

// Lease is the lifecycle aggregate. Status, signatures, audit logs, lock,
// expiry and archive markers are only reachable through transition methods;
// rehydration from storage goes through LeaseRecord.
type Lease struct {
	LeaseID     uuid.UUID
	Title       string
	Description string
	LandlordID  uuid.UUID
	TenantID    uuid.UUID
	PropertyID  uuid.UUID
	CreatedBy   uuid.UUID
	Terms       LeaseTerms
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	status           LeaseStatus
	statusHistory    []StatusChange
	messages         []Message
	requestedChanges []ChangeRequest
	signatures       Signatures
	isLocked         bool
	lockedAt         *time.Time
	expiresAt        *time.Time
	isDeleted        bool
	deletedAt        *time.Time
}

func (l Lease) Status() LeaseStatus { return l.status }

func (l Lease) IsLocked() bool { return l.isLocked }

func (l Lease) LockedAt() *time.Time { return copyTime(l.lockedAt) }

func (l Lease) ExpiresAt() *time.Time { return copyTime(l.expiresAt) }

func (l Lease) IsDeleted() bool { return l.isDeleted }

func (l Lease) DeletedAt() *time.Time { return copyTime(l.deletedAt) }

func (l Lease) Signatures() Signatures { return l.signatures.clone() }

func (l Lease) StatusHistory() []StatusChange {
	return append([]StatusChange(nil), l.statusHistory...)
}

func (l Lease) Messages() []Message {
	return append([]Message(nil), l.messages...)
}

func (l Lease) RequestedChanges() []ChangeRequest {
	out := make([]ChangeRequest, len(l.requestedChanges))
	for i, rc := range l.requestedChanges {
		rc.ResolvedAt = copyTime(rc.ResolvedAt)
		out[i] = rc
	}
	return out
}

func (l Lease) UnresolvedChanges() int {
	n := 0
	for _, rc := range l.requestedChanges {
		if !rc.Resolved {
			n++
		}
	}
	return n
}

func (l Lease) clone() Lease {
	out := l
	out.Terms = cloneTerms(l.Terms)
	out.statusHistory = append([]StatusChange(nil), l.statusHistory...)
	out.messages = append([]Message(nil), l.messages...)
	out.requestedChanges = l.RequestedChanges()
	out.signatures = l.signatures.clone()
	out.lockedAt = copyTime(l.lockedAt)
	out.expiresAt = copyTime(l.expiresAt)
	out.deletedAt = copyTime(l.deletedAt)
	return out
}

func cloneTerms(t LeaseTerms) LeaseTerms {
	out := t
	if t.Terms != nil {
		out.Terms = make(map[string]string, len(t.Terms))
		for k, v := range t.Terms {
			out.Terms[k] = v
		}
	}
	out.CustomClauses = append([]CustomClause(nil), t.CustomClauses...)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// LeaseRecord is the flat persisted shape of a Lease.
type LeaseRecord struct {
	LeaseID          uuid.UUID
	Title            string
	Description      string
	LandlordID       uuid.UUID
	TenantID         uuid.UUID
	PropertyID       uuid.UUID
	CreatedBy        uuid.UUID
	Terms            LeaseTerms
	Status           LeaseStatus
	StatusHistory    []StatusChange
	Messages         []Message
	RequestedChanges []ChangeRequest
	Signatures       Signatures
	IsLocked         bool
	LockedAt         *time.Time
	ExpiresAt        *time.Time
	IsDeleted        bool
	DeletedAt        *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l Lease) Record() LeaseRecord {
	c := l.clone()
	return LeaseRecord{
		LeaseID: c.LeaseID, Title: c.Title, Description: c.Description,
		LandlordID: c.LandlordID, TenantID: c.TenantID, PropertyID: c.PropertyID, CreatedBy: c.CreatedBy,
		Terms: c.Terms, Status: c.status, StatusHistory: c.statusHistory, Messages: c.messages,
		RequestedChanges: c.requestedChanges, Signatures: c.signatures,
		IsLocked: c.isLocked, LockedAt: c.lockedAt, ExpiresAt: c.expiresAt,
		IsDeleted: c.isDeleted, DeletedAt: c.deletedAt,
		Version: c.Version, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func LeaseFromRecord(r LeaseRecord) Lease {
	l := Lease{
		LeaseID: r.LeaseID, Title: r.Title, Description: r.Description,
		LandlordID: r.LandlordID, TenantID: r.TenantID, PropertyID: r.PropertyID, CreatedBy: r.CreatedBy,
		Terms: r.Terms, Version: r.Version, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		status: r.Status, statusHistory: r.StatusHistory, messages: r.Messages,
		requestedChanges: r.RequestedChanges, signatures: r.Signatures,
		isLocked: r.IsLocked, lockedAt: r.LockedAt, expiresAt: r.ExpiresAt,
		isDeleted: r.IsDeleted, deletedAt: r.DeletedAt,
	}
	return l.clone()
}
