package application_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/adapters/memory"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc        *application.Service
	clock      *clock
	leases     *memory.LeaseStore
	outbox     *memory.OutboxStore
	notifier   *memory.Notifier
	cache      *memory.Cache
	landlord   uuid.UUID
	tenant     uuid.UUID
	outsider   uuid.UUID
	admin      uuid.UUID
	propertyID uuid.UUID
}

func newHarness(t *testing.T, wrap func(ports.LeaseRepository) ports.LeaseRepository) *harness {
	t.Helper()
	h := &harness{
		clock:      &clock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)},
		outbox:     memory.NewOutboxStore(),
		notifier:   memory.NewNotifier(),
		cache:      memory.NewCache(),
		landlord:   uuid.New(),
		tenant:     uuid.New(),
		outsider:   uuid.New(),
		admin:      uuid.New(),
		propertyID: uuid.New(),
	}
	h.leases = memory.NewLeaseStore(h.outbox)
	dir := memory.NewDirectory()
	dir.PutUser(domain.User{ID: h.landlord, Name: "Lena Landlord", Email: "lena@example.com", Role: domain.UserRoleOwner})
	dir.PutUser(domain.User{ID: h.tenant, Name: "Tomas Tenant", Email: "tomas@example.com", Role: domain.UserRoleTenant})
	dir.PutUser(domain.User{ID: h.outsider, Name: "Otto", Role: domain.UserRoleTenant})
	dir.PutUser(domain.User{ID: h.admin, Name: "Ada", Role: domain.UserRoleAdmin})
	dir.PutProperty(domain.Property{ID: h.propertyID, Title: "Harbor Loft", OwnerID: h.landlord})

	var repo ports.LeaseRepository = h.leases
	if wrap != nil {
		repo = wrap(repo)
	}
	h.svc = application.NewService(application.Dependencies{
		Leases:     repo,
		Users:      dir,
		Properties: dir,
		Cache:      h.cache,
		Notifier:   h.notifier,
		Clock:      h.clock.Now,
	})
	return h
}

func (h *harness) create(t *testing.T) uuid.UUID {
	t.Helper()
	view, err := h.svc.CreateLease(context.Background(), h.landlord, application.CreateLeaseRequest{
		PropertyID: h.propertyID.String(),
		TenantID:   h.tenant.String(),
		StartDate:  "2026-02-01",
		EndDate:    "2027-01-31",
		RentAmount: 1500,
	})
	require.NoError(t, err)
	return uuid.MustParse(view.LeaseID)
}

func (h *harness) execute(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := h.create(t)
	_, err := h.svc.SendLease(ctx, h.landlord, id, application.SendLeaseRequest{})
	require.NoError(t, err)
	_, err = h.svc.SignLease(ctx, h.tenant, id, sign())
	require.NoError(t, err)
	_, err = h.svc.SignLease(ctx, h.landlord, id, sign())
	require.NoError(t, err)
	return id
}

func sign() application.SignLeaseRequest {
	return application.SignLeaseRequest{SignatureData: json.RawMessage(`{"typed":"signed"}`), IPAddress: "192.0.2.1", UserAgent: "test"}
}

func TestCreateLeaseDerivesTitleAndDescription(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	id := h.create(t)
	detail, err := h.svc.GetLease(context.Background(), h.tenant, id)
	require.NoError(t, err)

	assert.Equal(t, "Lease Agreement for Harbor Loft", detail.Title)
	assert.Equal(t, "Lease between Lena Landlord and Tomas Tenant", detail.Description)
	assert.Equal(t, string(domain.LeaseStatusDraft), detail.Status)
	assert.Equal(t, "tenant", detail.MyRole)
	assert.Equal(t, "Harbor Loft", detail.Property.Title)
	require.NotNil(t, detail.NextAction)
	assert.Equal(t, "send_to_tenant", detail.NextAction.Action)
	assert.Equal(t, []string{application.EventLeaseCreated}, h.outbox.EventTypes())
}

func TestCreateLeaseRejectsForeignPropertyAndNonTenant(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.CreateLease(ctx, h.outsider, application.CreateLeaseRequest{
		PropertyID: h.propertyID.String(), TenantID: h.tenant.String(), StartDate: "2026-02-01", EndDate: "2027-02-01",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.CreateLease(ctx, h.landlord, application.CreateLeaseRequest{
		PropertyID: h.propertyID.String(), TenantID: h.admin.String(), StartDate: "2026-02-01", EndDate: "2027-02-01",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.CreateLease(ctx, h.landlord, application.CreateLeaseRequest{
		PropertyID: h.propertyID.String(), TenantID: h.tenant.String(), StartDate: "2026-02-01", EndDate: "2026-01-01",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.svc.CreateLease(ctx, h.landlord, application.CreateLeaseRequest{
		PropertyID: "not-a-uuid", TenantID: h.tenant.String(), StartDate: "2026-02-01", EndDate: "2027-02-01",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestHappyPathExecutesAndLocks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	id := h.execute(t)
	detail, err := h.svc.GetLease(context.Background(), h.landlord, id)
	require.NoError(t, err)

	assert.Equal(t, string(domain.LeaseStatusFullyExecuted), detail.Status)
	assert.True(t, detail.IsLocked)
	require.NotNil(t, detail.LockedAt)
	assert.Nil(t, detail.NextAction)
	assert.NotNil(t, detail.Signatures.Landlord)
	assert.NotNil(t, detail.Signatures.Tenant)
	assert.Equal(t, detail.Status, detail.StatusHistory[len(detail.StatusHistory)-1].Status)
	assert.Equal(t, int64(4), detail.Version)

	assert.Equal(t, []string{
		application.EventLeaseCreated,
		application.EventLeaseSent,
		application.EventLeaseSigned,
		application.EventLeaseSigned,
		application.EventLeaseFullyExecuted,
	}, h.outbox.EventTypes())

	var events []string
	for _, n := range h.notifier.Sent() {
		events = append(events, n.Event)
	}
	assert.Equal(t, []string{"lease_sent", "lease_signed", "lease_fully_executed", "lease_fully_executed"}, events)
}

func TestDoubleSignConflicts(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.create(t)
	_, err := h.svc.SendLease(ctx, h.landlord, id, application.SendLeaseRequest{})
	require.NoError(t, err)
	_, err = h.svc.SignLease(ctx, h.landlord, id, sign())
	require.NoError(t, err)

	_, err = h.svc.SignLease(ctx, h.landlord, id, sign())
	require.ErrorIs(t, err, domain.ErrConflict)

	detail, err := h.svc.GetLease(ctx, h.landlord, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LeaseStatusSignedByLandlord), detail.Status)
	assert.Len(t, detail.Messages, 2)
}

func TestNegotiationScenario(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.create(t)

	_, err := h.svc.SendLease(ctx, h.landlord, id, application.SendLeaseRequest{Message: "Have a look"})
	require.NoError(t, err)
	view, err := h.svc.RequestChanges(ctx, h.tenant, id, application.RequestChangesRequest{Changes: "Allow a cat"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.UnresolvedChanges)

	_, err = h.svc.UpdateAndResend(ctx, h.tenant, id, application.UpdateLeaseRequest{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	rent := 1400.0
	view, err = h.svc.UpdateAndResend(ctx, h.landlord, id, application.UpdateLeaseRequest{
		RentAmount:     &rent,
		Terms:          map[string]string{"pets": "one cat"},
		ResolutionNote: "cat allowed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.LeaseStatusSentToTenant), view.Status)
	assert.Equal(t, 0, view.UnresolvedChanges)
	assert.Equal(t, 1400.0, view.Terms.RentAmount)

	detail, err := h.svc.GetLease(ctx, h.landlord, id)
	require.NoError(t, err)
	require.Len(t, detail.RequestedChanges, 1)
	assert.True(t, detail.RequestedChanges[0].Resolved)
	assert.Equal(t, "cat allowed", detail.RequestedChanges[0].ResolutionNote)
	bodies := make([]string, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		bodies = append(bodies, m.Body)
	}
	assert.Equal(t, []string{"Have a look", "Requested changes: Allow a cat", "Lease updated and resent"}, bodies)
}

func TestSignAfterSignatureWindowFails(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.create(t)
	_, err := h.svc.SendLease(ctx, h.landlord, id, application.SendLeaseRequest{})
	require.NoError(t, err)

	h.clock.Advance(31 * 24 * time.Hour)
	_, err = h.svc.SignLease(ctx, h.tenant, id, sign())
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "lease has expired")
}

func TestPassiveExpiryOnReadIsPersisted(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.execute(t)

	h.clock.Advance(400 * 24 * time.Hour)
	detail, err := h.svc.GetLease(ctx, h.tenant, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LeaseStatusExpired), detail.Status)
	assert.True(t, detail.IsLocked)
	last := detail.StatusHistory[len(detail.StatusHistory)-1]
	assert.Equal(t, h.landlord.String(), last.ChangedBy)

	stored, err := h.leases.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusExpired, stored.Status())
	types := h.outbox.EventTypes()
	assert.Equal(t, application.EventLeaseExpired, types[len(types)-1])

	_, err = h.svc.CancelLease(ctx, h.tenant, id, application.CancelLeaseRequest{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSweepExpired(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.execute(t)
	h.create(t)

	result, err := h.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Scanned)

	h.clock.Advance(400 * 24 * time.Hour)
	result, err = h.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.SweepResult{Scanned: 1, Expired: 1}, result)

	stored, err := h.leases.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusExpired, stored.Status())
}

type racingRepo struct {
	ports.LeaseRepository
	mu       sync.Mutex
	failures int
}

func (r *racingRepo) Update(ctx context.Context, lease domain.Lease, expected int64, events []ports.OutboxEvent) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return domain.ErrConcurrentUpdate
	}
	r.mu.Unlock()
	return r.LeaseRepository.Update(ctx, lease, expected, events)
}

func TestTransitionRetriesOnceOnVersionRace(t *testing.T) {
	t.Parallel()
	var repo *racingRepo
	h := newHarness(t, func(inner ports.LeaseRepository) ports.LeaseRepository {
		repo = &racingRepo{LeaseRepository: inner, failures: 1}
		return repo
	})
	id := h.create(t)

	view, err := h.svc.SendLease(context.Background(), h.landlord, id, application.SendLeaseRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(domain.LeaseStatusSentToTenant), view.Status)

	repo.mu.Lock()
	repo.failures = 5
	repo.mu.Unlock()
	_, err = h.svc.CancelLease(context.Background(), h.landlord, id, application.CancelLeaseRequest{})
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestStaleVersionWriteIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.create(t)

	stale, err := h.leases.GetByID(ctx, id)
	require.NoError(t, err)
	_, err = h.svc.SendLease(ctx, h.landlord, id, application.SendLeaseRequest{})
	require.NoError(t, err)

	cancelled, err := stale.Cancel(domain.Transition{Actor: h.tenant, Now: h.clock.Now()}, "late")
	require.NoError(t, err)
	cancelled.Version = stale.Version + 1
	err = h.leases.Update(ctx, cancelled, stale.Version, nil)
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)
}

func TestListMyLeasesFilters(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	first := h.create(t)
	h.clock.Advance(time.Minute)
	second := h.create(t)
	_, err := h.svc.SendLease(ctx, h.landlord, second, application.SendLeaseRequest{})
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	archived := h.create(t)
	archivedView, err := h.svc.DeleteLease(ctx, h.tenant, archived)
	require.NoError(t, err)
	assert.True(t, archivedView.IsDeleted)
	require.NotNil(t, archivedView.DeletedAt)
	assert.Equal(t, h.clock.Now(), *archivedView.DeletedAt)
	assert.Equal(t, "draft", archivedView.Status)

	all, err := h.svc.ListMyLeases(ctx, h.tenant, application.ListLeasesQuery{Status: "all"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.String(), all[0].LeaseID)
	assert.Equal(t, first.String(), all[1].LeaseID)

	drafts, err := h.svc.ListMyLeases(ctx, h.landlord, application.ListLeasesQuery{Role: "landlord", Status: "draft"})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, first.String(), drafts[0].LeaseID)

	asLandlord, err := h.svc.ListMyLeases(ctx, h.tenant, application.ListLeasesQuery{Role: "landlord"})
	require.NoError(t, err)
	assert.Empty(t, asLandlord)

	_, err = h.svc.ListMyLeases(ctx, h.tenant, application.ListLeasesQuery{Status: "archived"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.svc.GetLease(ctx, h.tenant, archived)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.svc.RestoreLease(ctx, h.landlord, archived)
	require.NoError(t, err)
	all, err = h.svc.ListMyLeases(ctx, h.tenant, application.ListLeasesQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatsAggregatesAndInvalidates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	h.execute(t)
	draft := h.create(t)

	stats, err := h.svc.Stats(ctx, h.tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.AsTenant)
	assert.Equal(t, int64(0), stats.AsLandlord)
	byStatus := map[string]application.StatusBucketView{}
	for _, b := range stats.ByStatus {
		byStatus[b.Status] = b
	}
	assert.Equal(t, int64(1), byStatus["draft"].Count)
	assert.Equal(t, 1500.0, byStatus["fully_executed"].TotalRent)

	cached, err := h.cache.Get(ctx, "lease:stats:"+h.tenant.String())
	require.NoError(t, err)
	assert.NotEmpty(t, cached)

	_, err = h.svc.CancelLease(ctx, h.landlord, draft, application.CancelLeaseRequest{Reason: "withdrawn"})
	require.NoError(t, err)
	_, err = h.cache.Get(ctx, "lease:stats:"+h.tenant.String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	stats, err = h.svc.Stats(ctx, h.tenant)
	require.NoError(t, err)
	byStatus = map[string]application.StatusBucketView{}
	for _, b := range stats.ByStatus {
		byStatus[b.Status] = b
	}
	assert.Equal(t, int64(1), byStatus["cancelled"].Count)
	_, hasDraft := byStatus["draft"]
	assert.False(t, hasDraft)
}

func TestStatsExpiringSoon(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.execute(t)

	stats, err := h.svc.Stats(context.Background(), h.landlord)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ExpiringSoon)

	h.clock.Advance(370 * 24 * time.Hour)
	stats, err = h.svc.Stats(context.Background(), h.outsider)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)

	require.NoError(t, h.cache.Delete(context.Background(), "lease:stats:"+h.landlord.String()))
	stats, err = h.svc.Stats(context.Background(), h.landlord)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ExpiringSoon)
}

func TestStatsNotCachedWhileLeaseCanDecay(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	h.execute(t)
	key := "lease:stats:" + h.tenant.String()

	h.clock.Advance(370 * 24 * time.Hour)
	stats, err := h.svc.Stats(ctx, h.tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ExpiringSoon)
	_, err = h.cache.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	h.clock.Advance(30 * 24 * time.Hour)
	stats, err = h.svc.Stats(ctx, h.tenant)
	require.NoError(t, err)
	require.Len(t, stats.ByStatus, 1)
	assert.Equal(t, "expired", stats.ByStatus[0].Status)
	assert.Equal(t, int64(0), stats.ExpiringSoon)
}

func TestGetLeaseRestrictedToParties(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	id := h.create(t)

	_, err := h.svc.GetLease(context.Background(), h.outsider, id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
	_, err = h.svc.GetLease(context.Background(), h.tenant, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostMessageNotifiesOtherParty(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	id := h.create(t)

	msg, err := h.svc.PostMessage(context.Background(), h.tenant, id, application.PostMessageRequest{Message: "Is parking included?"})
	require.NoError(t, err)
	assert.Equal(t, "Is parking included?", msg.Body)
	assert.Equal(t, h.tenant.String(), msg.From)

	sent := h.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, h.landlord, sent[0].UserID)
}

func TestPurgeRequiresAdmin(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	id := h.create(t)

	err := h.svc.PurgeLease(ctx, h.landlord, id)
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, h.svc.PurgeLease(ctx, h.admin, id))
	_, err = h.leases.GetByID(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	types := h.outbox.EventTypes()
	assert.Equal(t, application.EventLeasePurged, types[len(types)-1])
}
