package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
)

func memoryConfig() Config {
	return Config{
		ServiceID:             "lease-service-test",
		LogLevel:              "error",
		HTTPPort:              0,
		GRPCPort:              0,
		StoreMode:             StoreModeMemory,
		JWTSecret:             "runtime-test-secret-0123456789",
		OutboxPollInterval:    time.Second,
		OutboxBatchSize:       50,
		NotifyTimeout:         time.Second,
		NotifyQueueSize:       16,
		SignatureWindow:       30 * 24 * time.Hour,
		ExpiringSoonWindow:    30 * 24 * time.Hour,
		StatsCacheTTL:         time.Minute,
		PersistTimeout:        time.Second,
		MaxTransitionAttempts: 2,
		ExpirySweepSpec:       "@every 1h",
		SweepBatchSize:        10,
	}
}

func TestMemoryRuntimeServesLeases(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntimeFromConfig(ctx, memoryConfig())
	require.NoError(t, err)
	defer rt.Close(ctx)

	landlord, tenant, property := uuid.New(), uuid.New(), uuid.New()
	seedPath := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
users:
  - {id: "`+landlord.String()+`", name: Lena, email: lena@example.com, role: owner}
  - {id: "`+tenant.String()+`", name: Tomas, email: tomas@example.com, role: tenant}
properties:
  - {id: "`+property.String()+`", title: Harbor Loft, owner_id: "`+landlord.String()+`"}
`), 0o600))
	res, err := rt.SeedDirectory(ctx, seedPath)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Users: 2, Properties: 1}, res)

	view, err := rt.Service().CreateLease(ctx, landlord, application.CreateLeaseRequest{
		PropertyID: property.String(),
		TenantID:   tenant.String(),
		StartDate:  "2027-03-01",
		EndDate:    "2028-02-28",
		RentAmount: 2100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lease Agreement for Harbor Loft", view.Title)

	relayed, err := rt.RelayOutbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, relayed.Published)

	swept, err := rt.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept.Expired)

	_, err = rt.Migrate(ctx)
	require.Error(t, err)

	err = rt.Purge(ctx, "not-a-uuid", view.LeaseID)
	require.ErrorContains(t, err, "invalid actor id")

	rec := httptest.NewRecorder()
	rt.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeedDirectoryRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntimeFromConfig(ctx, memoryConfig())
	require.NoError(t, err)
	defer rt.Close(ctx)

	seedPath := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
users:
  - {id: "`+uuid.NewString()+`", name: Bob, role: broker}
`), 0o600))
	_, err = rt.SeedDirectory(ctx, seedPath)
	require.ErrorContains(t, err, "unknown role")
}

func TestRuntimeRejectsShortJWTSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.JWTSecret = "short"
	_, err := NewRuntimeFromConfig(context.Background(), cfg)
	require.Error(t, err)
}
