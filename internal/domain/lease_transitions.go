package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transition carries who is acting and when. Every transition method works on
// a copy of the receiver and returns the next lease value; on error the
// receiver is untouched and the returned lease is the zero value.
type Transition struct {
	Actor uuid.UUID
	Now   time.Time
}

type NewLeaseParams struct {
	LeaseID         uuid.UUID
	Title           string
	Description     string
	LandlordID      uuid.UUID
	TenantID        uuid.UUID
	PropertyID      uuid.UUID
	Terms           LeaseTerms
	Now             time.Time
	SignatureWindow time.Duration
}

type LeaseUpdate struct {
	Title           *string
	Description     *string
	StartDate       *time.Time
	EndDate         *time.Time
	RentAmount      *float64
	RentFrequency   *RentFrequency
	SecurityDeposit *float64
	Terms           map[string]string
	CustomClauses   []CustomClause
}

type SignatureInput struct {
	SignatureType string
	Payload       json.RawMessage
	ImageURL      string
	IPAddress     string
	UserAgent     string
}

const (
	MaxMessageLength     = 2000
	DefaultSignatureType = "simple"
)

func NewLease(p NewLeaseParams) (Lease, error) {
	if p.LandlordID == uuid.Nil || p.TenantID == uuid.Nil || p.PropertyID == uuid.Nil {
		return Lease{}, validationf("landlord, tenant and property are required")
	}
	if p.LandlordID == p.TenantID {
		return Lease{}, validationf("landlord and tenant must be different users")
	}
	terms := cloneTerms(p.Terms)
	if terms.RentFrequency == "" {
		terms.RentFrequency = RentFrequencyMonthly
	}
	for i := range terms.CustomClauses {
		stampClause(&terms.CustomClauses[i], p.LandlordID, p.Now)
	}
	if err := ValidateTerms(terms); err != nil {
		return Lease{}, err
	}
	window := p.SignatureWindow
	if window <= 0 {
		window = DefaultSignatureWindow
	}
	id := p.LeaseID
	if id == uuid.Nil {
		id = uuid.New()
	}
	expiresAt := p.Now.Add(window)
	return Lease{
		LeaseID:     id,
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		LandlordID:  p.LandlordID,
		TenantID:    p.TenantID,
		PropertyID:  p.PropertyID,
		CreatedBy:   p.LandlordID,
		Terms:       terms,
		CreatedAt:   p.Now,
		UpdatedAt:   p.Now,
		status:      LeaseStatusDraft,
		statusHistory: []StatusChange{{
			Status:    LeaseStatusDraft,
			ChangedBy: p.LandlordID,
			Reason:    "Lease created as draft",
			ChangedAt: p.Now,
		}},
		expiresAt: &expiresAt,
	}, nil
}

func (l Lease) Send(t Transition, note string) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if t.Actor != l.LandlordID {
		return Lease{}, forbiddenf("only the landlord can send this lease")
	}
	if l.status != LeaseStatusDraft {
		return Lease{}, validationf("lease can only be sent from draft, current status is %s", l.status)
	}
	next := l.clone()
	next.appendMessage(t.Actor, orDefault(note, "Lease sent to tenant"), t.Now)
	next.changeStatus(LeaseStatusSentToTenant, t.Actor, "Lease sent to tenant", t.Now)
	return next, nil
}

func (l Lease) RequestChanges(t Transition, description string) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if !l.IsParty(t.Actor) {
		return Lease{}, forbiddenf("only a party to the lease can request changes")
	}
	if l.status != LeaseStatusSentToTenant && l.status != LeaseStatusChangesRequested {
		return Lease{}, validationf("cannot request changes in current status %s", l.status)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Lease{}, validationf("change description is required")
	}
	if len(description) > MaxMessageLength {
		return Lease{}, validationf("change description must be <= %d chars", MaxMessageLength)
	}
	next := l.clone()
	next.requestedChanges = append(next.requestedChanges, ChangeRequest{
		ChangeID:    uuid.New(),
		RequestedBy: t.Actor,
		Description: description,
		RequestedAt: t.Now,
	})
	next.appendMessage(t.Actor, "Requested changes: "+description, t.Now)
	next.changeStatus(LeaseStatusChangesRequested, t.Actor, "Changes requested", t.Now)
	return next, nil
}

// UpdateAndResend applies the landlord's edits, resolves every open change
// request and puts the lease back in front of the tenant.
func (l Lease) UpdateAndResend(t Transition, update LeaseUpdate, resolutionNote, note string) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if t.Actor != l.LandlordID {
		return Lease{}, forbiddenf("only the landlord can update this lease")
	}
	if l.status != LeaseStatusChangesRequested {
		return Lease{}, validationf("lease can only be updated after changes were requested, current status is %s", l.status)
	}
	if l.isLocked {
		return Lease{}, validationf("lease is locked")
	}
	next := l.clone()
	if update.Title != nil {
		next.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		next.Description = strings.TrimSpace(*update.Description)
	}
	terms := next.Terms
	if update.StartDate != nil {
		terms.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		terms.EndDate = *update.EndDate
	}
	if update.RentAmount != nil {
		terms.RentAmount = *update.RentAmount
	}
	if update.RentFrequency != nil {
		terms.RentFrequency = *update.RentFrequency
	}
	if update.SecurityDeposit != nil {
		terms.SecurityDeposit = *update.SecurityDeposit
	}
	if update.Terms != nil {
		terms.Terms = make(map[string]string, len(update.Terms))
		for k, v := range update.Terms {
			terms.Terms[k] = v
		}
	}
	if update.CustomClauses != nil {
		terms.CustomClauses = append([]CustomClause(nil), update.CustomClauses...)
		for i := range terms.CustomClauses {
			stampClause(&terms.CustomClauses[i], t.Actor, t.Now)
		}
	}
	if err := ValidateTerms(terms); err != nil {
		return Lease{}, err
	}
	next.Terms = terms

	resolvedAt := t.Now
	for i := range next.requestedChanges {
		if next.requestedChanges[i].Resolved {
			continue
		}
		at := resolvedAt
		next.requestedChanges[i].Resolved = true
		next.requestedChanges[i].ResolvedAt = &at
		next.requestedChanges[i].ResolutionNote = strings.TrimSpace(resolutionNote)
	}
	next.appendMessage(t.Actor, orDefault(note, "Lease updated and resent"), t.Now)
	next.changeStatus(LeaseStatusSentToTenant, t.Actor, "Lease updated and resent", t.Now)
	return next, nil
}

// Sign records the actor's signature. Whichever party signs second drives the
// lease to fully_executed and locks it.
func (l Lease) Sign(t Transition, in SignatureInput) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	role, ok := l.RoleOf(t.Actor)
	if !ok {
		return Lease{}, forbiddenf("not authorized to sign this lease")
	}
	if l.status != LeaseStatusFullyExecuted && l.expiresAt != nil && t.Now.After(*l.expiresAt) {
		return Lease{}, validationf("lease has expired")
	}
	if l.signatures.slot(role) != nil {
		return Lease{}, conflictf("already signed as %s", role)
	}
	if l.status.IsTerminal() {
		return Lease{}, validationf("cannot sign a %s lease", l.status)
	}
	payload := signaturePayload(in.Payload)
	if len(payload) == 0 && strings.TrimSpace(in.ImageURL) == "" {
		return Lease{}, validationf("signature payload or signature image is required")
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return Lease{}, validationf("signature payload must be valid json")
	}

	slot := SignatureSlot{
		SignedAt:      t.Now,
		SignatureType: orDefault(in.SignatureType, DefaultSignatureType),
		Payload:       append(json.RawMessage(nil), payload...),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
	}
	slot.EvidenceHash = SignatureEvidenceHash(l.LeaseID, role, t.Actor, slot)

	next := l.clone()
	target := LeaseStatusSignedByLandlord
	if role == PartyRoleLandlord {
		next.signatures.Landlord = &slot
	} else {
		next.signatures.Tenant = &slot
		target = LeaseStatusSignedByTenant
	}
	if next.IsFullySigned() {
		target = LeaseStatusFullyExecuted
	}
	narration := roleTitle(role) + " signed the lease"
	next.appendMessage(t.Actor, narration, t.Now)
	next.changeStatus(target, t.Actor, narration, t.Now)
	if target == LeaseStatusFullyExecuted {
		next.lock(t.Now)
	}
	return next, nil
}

func (l Lease) Cancel(t Transition, reason string) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if !l.IsParty(t.Actor) {
		return Lease{}, forbiddenf("only a party to the lease can cancel it")
	}
	if l.status.IsTerminal() {
		return Lease{}, validationf("cannot cancel a %s lease", l.status)
	}
	reason = orDefault(reason, "No reason provided")
	next := l.clone()
	next.appendMessage(t.Actor, "Lease cancelled. Reason: "+reason, t.Now)
	next.changeStatus(LeaseStatusCancelled, t.Actor, reason, t.Now)
	return next, nil
}

func (l Lease) SoftDelete(t Transition) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if !l.IsParty(t.Actor) {
		return Lease{}, forbiddenf("only a party to the lease can archive it")
	}
	switch l.status {
	case LeaseStatusDraft, LeaseStatusCancelled, LeaseStatusExpired:
	default:
		return Lease{}, validationf("only draft, cancelled or expired leases can be archived, current status is %s", l.status)
	}
	next := l.clone()
	at := t.Now
	next.isDeleted = true
	next.deletedAt = &at
	next.appendMessage(t.Actor, "Lease archived", t.Now)
	return next, nil
}

func (l Lease) Restore(t Transition) (Lease, error) {
	if !l.isDeleted {
		return Lease{}, notFoundf("deleted lease not found")
	}
	if !l.IsParty(t.Actor) {
		return Lease{}, forbiddenf("only a party to the lease can restore it")
	}
	next := l.clone()
	next.isDeleted = false
	next.deletedAt = nil
	next.appendMessage(t.Actor, "Lease restored", t.Now)
	return next, nil
}

// PostMessage appends a free-text party message without touching status.
func (l Lease) PostMessage(t Transition, body string) (Lease, error) {
	if l.isDeleted {
		return Lease{}, notFoundf("lease not found")
	}
	if !l.IsParty(t.Actor) {
		return Lease{}, forbiddenf("only a party to the lease can post messages")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Lease{}, validationf("message body is required")
	}
	if len(body) > MaxMessageLength {
		return Lease{}, validationf("message body must be <= %d chars", MaxMessageLength)
	}
	next := l.clone()
	next.appendMessage(t.Actor, body, t.Now)
	return next, nil
}

// Decay applies passive expiry: an executed lease whose term has ended
// becomes expired. The change is attributed to the lease creator.
func (l Lease) Decay(now time.Time) (Lease, bool) {
	if l.status != LeaseStatusFullyExecuted || !now.After(l.Terms.EndDate) {
		return l, false
	}
	next := l.clone()
	next.appendMessage(l.CreatedBy, "Lease term ended", now)
	next.changeStatus(LeaseStatusExpired, l.CreatedBy, "Lease term ended", now)
	return next, true
}

// Seal runs the save-path rules: passive expiry, lock on execution and the
// signature window for leases that never had one.
func (l Lease) Seal(now time.Time, window time.Duration) Lease {
	next, _ := l.Decay(now)
	next = next.clone()
	if next.status == LeaseStatusFullyExecuted && !next.isLocked {
		next.lock(now)
	}
	if next.expiresAt == nil && next.status != LeaseStatusFullyExecuted {
		if window <= 0 {
			window = DefaultSignatureWindow
		}
		at := now.Add(window)
		next.expiresAt = &at
	}
	next.UpdatedAt = now
	return next
}

// signaturePayload drops payloads that carry no signature data: blank input,
// JSON null and the empty string.
func signaturePayload(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`:
		return nil
	}
	return trimmed
}

func (l *Lease) changeStatus(to LeaseStatus, by uuid.UUID, reason string, at time.Time) {
	if l.status == to {
		return
	}
	l.status = to
	l.statusHistory = append(l.statusHistory, StatusChange{
		Status:    to,
		ChangedBy: by,
		Reason:    reason,
		ChangedAt: at,
	})
}

func (l *Lease) appendMessage(from uuid.UUID, body string, at time.Time) {
	l.messages = append(l.messages, Message{
		MessageID: uuid.New(),
		From:      from,
		Body:      body,
		SentAt:    at,
	})
}

func (l *Lease) lock(at time.Time) {
	if l.isLocked {
		return
	}
	l.isLocked = true
	l.lockedAt = &at
}

func stampClause(c *CustomClause, by uuid.UUID, at time.Time) {
	c.Title = strings.TrimSpace(c.Title)
	c.Body = strings.TrimSpace(c.Body)
	if c.AddedBy == uuid.Nil {
		c.AddedBy = by
	}
	if c.AddedAt.IsZero() {
		c.AddedAt = at
	}
}

func orDefault(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}

func roleTitle(role PartyRole) string {
	if role == PartyRoleLandlord {
		return "Landlord"
	}
	return "Tenant"
}
