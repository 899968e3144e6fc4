package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	landlord uuid.UUID
	tenant   uuid.UUID
	outsider uuid.UUID
	lease    Lease
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{landlord: uuid.New(), tenant: uuid.New(), outsider: uuid.New()}
	lease, err := NewLease(NewLeaseParams{
		Title:      "Lease Agreement for Harbor Loft",
		LandlordID: f.landlord,
		TenantID:   f.tenant,
		PropertyID: uuid.New(),
		Terms: LeaseTerms{
			StartDate:  testNow.AddDate(0, 1, 0),
			EndDate:    testNow.AddDate(1, 1, 0),
			RentAmount: 1200,
		},
		Now: testNow,
	})
	require.NoError(t, err)
	f.lease = lease
	return f
}

func at(actor uuid.UUID, offset time.Duration) Transition {
	return Transition{Actor: actor, Now: testNow.Add(offset)}
}

func signInput() SignatureInput {
	return SignatureInput{Payload: json.RawMessage(`{"strokes":[1,2,3]}`), IPAddress: "10.0.0.1", UserAgent: "test"}
}

func assertHistoryTracksStatus(t *testing.T, l Lease) {
	t.Helper()
	history := l.StatusHistory()
	require.NotEmpty(t, history)
	assert.Equal(t, l.Status(), history[len(history)-1].Status)
}

func TestNewLeaseStartsAsDraft(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.Equal(t, LeaseStatusDraft, f.lease.Status())
	assert.Equal(t, RentFrequencyMonthly, f.lease.Terms.RentFrequency)
	assert.Equal(t, f.landlord, f.lease.CreatedBy)
	require.NotNil(t, f.lease.ExpiresAt())
	assert.Equal(t, testNow.Add(DefaultSignatureWindow), *f.lease.ExpiresAt())
	assert.Empty(t, f.lease.Messages())
	assertHistoryTracksStatus(t, f.lease)
}

func TestNewLeaseRejectsBadTerms(t *testing.T) {
	t.Parallel()
	base := NewLeaseParams{
		LandlordID: uuid.New(),
		TenantID:   uuid.New(),
		PropertyID: uuid.New(),
		Now:        testNow,
	}
	cases := map[string]LeaseTerms{
		"end before start": {StartDate: testNow, EndDate: testNow.Add(-time.Hour), RentAmount: 1},
		"end equals start": {StartDate: testNow, EndDate: testNow, RentAmount: 1},
		"negative rent":    {StartDate: testNow, EndDate: testNow.AddDate(1, 0, 0), RentAmount: -1},
		"negative deposit": {StartDate: testNow, EndDate: testNow.AddDate(1, 0, 0), SecurityDeposit: -5},
		"bad frequency":    {StartDate: testNow, EndDate: testNow.AddDate(1, 0, 0), RentFrequency: "daily"},
	}
	for name, terms := range cases {
		terms := terms
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := base
			p.Terms = terms
			_, err := NewLease(p)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	same := base
	same.TenantID = same.LandlordID
	same.Terms = LeaseTerms{StartDate: testNow, EndDate: testNow.AddDate(1, 0, 0)}
	_, err := NewLease(same)
	require.ErrorIs(t, err, ErrValidation)
}

func TestHappyPathToFullyExecuted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	sent, err := f.lease.Send(at(f.landlord, time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusSentToTenant, sent.Status())
	assertHistoryTracksStatus(t, sent)

	tenantSigned, err := sent.Sign(at(f.tenant, 2*time.Hour), signInput())
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusSignedByTenant, tenantSigned.Status())
	assert.False(t, tenantSigned.IsLocked())

	executed, err := tenantSigned.Sign(at(f.landlord, 3*time.Hour), signInput())
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusFullyExecuted, executed.Status())
	assert.True(t, executed.IsLocked())
	require.NotNil(t, executed.LockedAt())
	assert.Equal(t, testNow.Add(3*time.Hour), *executed.LockedAt())
	assertHistoryTracksStatus(t, executed)

	sigs := executed.Signatures()
	require.NotNil(t, sigs.Landlord)
	require.NotNil(t, sigs.Tenant)
	assert.Len(t, sigs.Landlord.EvidenceHash, 64)
	assert.Equal(t, DefaultSignatureType, sigs.Tenant.SignatureType)

	_, ok := executed.NextAction()
	assert.False(t, ok)
	assert.Len(t, executed.Messages(), 3)
}

func TestSigningOrderIsCommutative(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)

	a, err := sent.Sign(at(f.landlord, time.Hour), signInput())
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusSignedByLandlord, a.Status())
	a, err = a.Sign(at(f.tenant, 2*time.Hour), signInput())
	require.NoError(t, err)

	b, err := sent.Sign(at(f.tenant, time.Hour), signInput())
	require.NoError(t, err)
	b, err = b.Sign(at(f.landlord, 2*time.Hour), signInput())
	require.NoError(t, err)

	assert.Equal(t, LeaseStatusFullyExecuted, a.Status())
	assert.Equal(t, a.Status(), b.Status())
	assert.Equal(t, a.IsLocked(), b.IsLocked())
}

func TestDoubleSignConflictsWithoutSideEffects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	signed, err := sent.Sign(at(f.landlord, time.Hour), signInput())
	require.NoError(t, err)

	again, err := signed.Sign(at(f.landlord, 2*time.Hour), signInput())
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "already signed as landlord")
	assert.Equal(t, Lease{}.Status(), again.Status())
	assert.Len(t, signed.Messages(), 2)
	assert.Equal(t, LeaseStatusSignedByLandlord, signed.Status())
}

func TestSignRejectsOutsiderAndExpiredWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.lease.Sign(at(f.outsider, time.Hour), signInput())
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.lease.Sign(at(f.tenant, DefaultSignatureWindow+time.Hour), signInput())
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "lease has expired")
	assert.False(t, f.lease.IsSignedByTenant())

	_, err = f.lease.Sign(at(f.tenant, time.Hour), SignatureInput{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSignRejectsTerminalStatuses(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cancelled, err := f.lease.Cancel(at(f.tenant, time.Hour), "")
	require.NoError(t, err)

	_, err = cancelled.Sign(at(f.landlord, 2*time.Hour), signInput())
	require.ErrorIs(t, err, ErrValidation)
}

func TestSignRejectsEmptySignatureData(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)

	for _, raw := range []string{"null", "  null\n", `""`, " "} {
		_, err := sent.Sign(at(f.tenant, time.Hour), SignatureInput{Payload: json.RawMessage(raw)})
		require.ErrorIs(t, err, ErrValidation, "payload %q", raw)
		assert.Contains(t, err.Error(), "signature payload or signature image is required")
	}
	assert.False(t, sent.IsSignedByTenant())
	assert.Equal(t, LeaseStatusSentToTenant, sent.Status())

	withImage, err := sent.Sign(at(f.tenant, time.Hour), SignatureInput{Payload: json.RawMessage("null"), ImageURL: "https://cdn.example.com/sig.png"})
	require.NoError(t, err)
	slot := withImage.Signatures().Tenant
	require.NotNil(t, slot)
	assert.Empty(t, slot.Payload)
}

func TestCancelRejectsExecutedLease(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Hour), "")
	require.NoError(t, err)
	tenantSigned, err := sent.Sign(at(f.tenant, 2*time.Hour), signInput())
	require.NoError(t, err)
	executed, err := tenantSigned.Sign(at(f.landlord, 3*time.Hour), signInput())
	require.NoError(t, err)

	cancelled, err := executed.Cancel(at(f.tenant, 4*time.Hour), "changed mind")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "cannot cancel a fully_executed lease")
	assert.Equal(t, Lease{}.Status(), cancelled.Status())

	assert.Equal(t, LeaseStatusFullyExecuted, executed.Status())
	assert.True(t, executed.IsLocked())
	assert.Equal(t, testNow.Add(3*time.Hour), *executed.LockedAt())
	assert.Len(t, executed.StatusHistory(), 4)
	assert.Len(t, executed.Messages(), 3)
}

func TestResignAfterExecutionConflictsPastSignatureWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Hour), "")
	require.NoError(t, err)
	tenantSigned, err := sent.Sign(at(f.tenant, 2*time.Hour), signInput())
	require.NoError(t, err)
	executed, err := tenantSigned.Sign(at(f.landlord, 3*time.Hour), signInput())
	require.NoError(t, err)

	_, err = executed.Sign(at(f.landlord, DefaultSignatureWindow+24*time.Hour), signInput())
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "already signed as landlord")
}

func TestNegotiationLoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "Please review")
	require.NoError(t, err)

	requested, err := sent.RequestChanges(at(f.tenant, time.Hour), "lower deposit")
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusChangesRequested, requested.Status())
	assert.Equal(t, 1, requested.UnresolvedChanges())
	msgs := requested.Messages()
	assert.Equal(t, "Requested changes: lower deposit", msgs[len(msgs)-1].Body)

	// a second request while already in changes_requested adds no history entry
	more, err := requested.RequestChanges(at(f.landlord, 2*time.Hour), "clarify pets clause")
	require.NoError(t, err)
	assert.Len(t, more.StatusHistory(), len(requested.StatusHistory()))
	assert.Equal(t, 2, more.UnresolvedChanges())

	deposit := 100.0
	updated, err := more.UpdateAndResend(at(f.landlord, 3*time.Hour), LeaseUpdate{SecurityDeposit: &deposit}, "done", "")
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusSentToTenant, updated.Status())
	assert.Equal(t, 0, updated.UnresolvedChanges())
	assert.Equal(t, deposit, updated.Terms.SecurityDeposit)
	for _, rc := range updated.RequestedChanges() {
		assert.True(t, rc.Resolved)
		require.NotNil(t, rc.ResolvedAt)
		assert.Equal(t, "done", rc.ResolutionNote)
	}
	assertHistoryTracksStatus(t, updated)

	n, ok := updated.NextAction()
	require.True(t, ok)
	assert.Equal(t, NextAction{By: PartyRoleTenant, Action: ActionReview}, n)
}

func TestRequestChangesOnlyFromNegotiableStatuses(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.lease.RequestChanges(at(f.tenant, time.Hour), "x")
	require.ErrorIs(t, err, ErrValidation)

	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	signed, err := sent.Sign(at(f.landlord, time.Hour), signInput())
	require.NoError(t, err)
	_, err = signed.RequestChanges(at(f.tenant, 2*time.Hour), "x")
	require.ErrorIs(t, err, ErrValidation)

	_, err = sent.RequestChanges(at(f.tenant, 2*time.Hour), "   ")
	require.ErrorIs(t, err, ErrValidation)

	_, err = sent.RequestChanges(at(f.outsider, 2*time.Hour), "x")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateAndResendGuards(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	requested, err := sent.RequestChanges(at(f.tenant, time.Hour), "shorter term")
	require.NoError(t, err)

	_, err = requested.UpdateAndResend(at(f.tenant, 2*time.Hour), LeaseUpdate{}, "", "")
	require.ErrorIs(t, err, ErrForbidden)

	badEnd := requested.Terms.StartDate.Add(-time.Hour)
	_, err = requested.UpdateAndResend(at(f.landlord, 2*time.Hour), LeaseUpdate{EndDate: &badEnd}, "", "")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, requested.UnresolvedChanges())

	_, err = sent.UpdateAndResend(at(f.landlord, 2*time.Hour), LeaseUpdate{}, "", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSendRequiresLandlordAndDraft(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.lease.Send(at(f.tenant, time.Minute), "")
	require.ErrorIs(t, err, ErrForbidden)

	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	_, err = sent.Send(at(f.landlord, time.Hour), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCancelRecordsReason(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	cancelled, err := f.lease.Cancel(at(f.tenant, time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusCancelled, cancelled.Status())
	msgs := cancelled.Messages()
	assert.Equal(t, "Lease cancelled. Reason: No reason provided", msgs[len(msgs)-1].Body)
	assertHistoryTracksStatus(t, cancelled)

	_, err = cancelled.Cancel(at(f.landlord, 2*time.Hour), "again")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.lease.Cancel(at(f.outsider, time.Hour), "nope")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	deleted, err := f.lease.SoftDelete(at(f.landlord, time.Hour))
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	require.NotNil(t, deleted.DeletedAt())
	assert.Equal(t, f.lease.Status(), deleted.Status())

	_, err = deleted.SoftDelete(at(f.landlord, 2*time.Hour))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = deleted.Send(at(f.landlord, 2*time.Hour), "")
	require.ErrorIs(t, err, ErrNotFound)

	restored, err := deleted.Restore(at(f.tenant, 3*time.Hour))
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Nil(t, restored.DeletedAt())

	_, err = restored.Restore(at(f.tenant, 4*time.Hour))
	require.ErrorIs(t, err, ErrNotFound)

	sent, err := restored.Send(at(f.landlord, 5*time.Hour), "")
	require.NoError(t, err)
	_, err = sent.SoftDelete(at(f.landlord, 6*time.Hour))
	require.ErrorIs(t, err, ErrValidation)
}

func TestDecayExpiresExecutedLeasePastEndDate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	l, err := sent.Sign(at(f.landlord, time.Hour), signInput())
	require.NoError(t, err)
	l, err = l.Sign(at(f.tenant, 2*time.Hour), signInput())
	require.NoError(t, err)

	_, changed := l.Decay(l.Terms.EndDate)
	assert.False(t, changed)

	after := l.Terms.EndDate.Add(time.Second)
	assert.True(t, l.IsExpired(after))
	expired, changed := l.Decay(after)
	require.True(t, changed)
	assert.Equal(t, LeaseStatusExpired, expired.Status())
	assert.True(t, expired.IsLocked())
	history := expired.StatusHistory()
	assert.Equal(t, f.landlord, history[len(history)-1].ChangedBy)
	assertHistoryTracksStatus(t, expired)

	// the lease still behaves as executed for everything else
	assert.Equal(t, LeaseStatusFullyExecuted, l.Status())
}

func TestSealLocksAndAssignsExpiry(t *testing.T) {
	t.Parallel()
	rec := newFixture(t).lease.Record()
	rec.ExpiresAt = nil
	sealed := LeaseFromRecord(rec).Seal(testNow, 48*time.Hour)
	require.NotNil(t, sealed.ExpiresAt())
	assert.Equal(t, testNow.Add(48*time.Hour), *sealed.ExpiresAt())

	rec.Status = LeaseStatusFullyExecuted
	rec.ExpiresAt = nil
	sealed = LeaseFromRecord(rec).Seal(testNow, 0)
	assert.True(t, sealed.IsLocked())
	assert.Nil(t, sealed.ExpiresAt())
}

func TestPostMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	next, err := f.lease.PostMessage(at(f.tenant, time.Hour), "  is parking included?  ")
	require.NoError(t, err)
	msgs := next.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "is parking included?", msgs[0].Body)
	assert.Equal(t, f.lease.Status(), next.Status())

	_, err = f.lease.PostMessage(at(f.outsider, time.Hour), "hi")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.lease.PostMessage(at(f.tenant, time.Hour), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	history := f.lease.StatusHistory()
	history[0].Status = LeaseStatusCancelled
	assert.Equal(t, LeaseStatusDraft, f.lease.StatusHistory()[0].Status)

	expires := f.lease.ExpiresAt()
	*expires = time.Time{}
	assert.False(t, f.lease.ExpiresAt().IsZero())
}

func TestRecordRoundTripPreservesState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sent, err := f.lease.Send(at(f.landlord, time.Minute), "")
	require.NoError(t, err)
	signed, err := sent.Sign(at(f.tenant, time.Hour), signInput())
	require.NoError(t, err)

	back := LeaseFromRecord(signed.Record())
	assert.Equal(t, signed.Status(), back.Status())
	assert.Equal(t, signed.Signatures(), back.Signatures())
	assert.Equal(t, signed.Messages(), back.Messages())
}

func TestNextActionTable(t *testing.T) {
	t.Parallel()
	cases := map[LeaseStatus]*NextAction{
		LeaseStatusDraft:            {By: PartyRoleLandlord, Action: ActionSendToTenant},
		LeaseStatusSentToTenant:     {By: PartyRoleTenant, Action: ActionReview},
		LeaseStatusChangesRequested: {By: PartyRoleLandlord, Action: ActionUpdateLease},
		LeaseStatusSignedByLandlord: {By: PartyRoleTenant, Action: ActionSign},
		LeaseStatusSignedByTenant:   {By: PartyRoleLandlord, Action: ActionSign},
		LeaseStatusFullyExecuted:    nil,
		LeaseStatusCancelled:        nil,
		LeaseStatusExpired:          nil,
	}
	for status, want := range cases {
		l := LeaseFromRecord(LeaseRecord{Status: status})
		got, ok := l.NextAction()
		if want == nil {
			assert.False(t, ok, status)
			continue
		}
		assert.True(t, ok, status)
		assert.Equal(t, *want, got, status)
	}
}

func TestEvidenceHashIsStable(t *testing.T) {
	t.Parallel()
	id, signer := uuid.New(), uuid.New()
	slot := SignatureSlot{SignedAt: testNow, SignatureType: "simple", Payload: json.RawMessage(`{"b":1, "a":2}`)}
	h1 := SignatureEvidenceHash(id, PartyRoleTenant, signer, slot)
	slot.Payload = json.RawMessage(`{"a":2,"b":1}`)
	h2 := SignatureEvidenceHash(id, PartyRoleTenant, signer, slot)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, SignatureEvidenceHash(id, PartyRoleLandlord, signer, slot))
}

func TestParseLeaseStatus(t *testing.T) {
	t.Parallel()
	s, err := ParseLeaseStatus("fully_executed")
	require.NoError(t, err)
	assert.Equal(t, LeaseStatusFullyExecuted, s)
	_, err = ParseLeaseStatus("archived")
	assert.True(t, errors.Is(err, ErrValidation))
}
