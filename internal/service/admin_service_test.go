package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/encorebot/support-desk/internal/service"
	"github.com/encorebot/support-desk/internal/storage"
)

func TestAdminEmailWhitelist(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := service.NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	entry, err := svc.Add(ctx, "ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)

	_, err = svc.Add(ctx, "ops@example.com")
	assert.EqualError(t, err, "Email already in admin list")

	_, err = svc.Add(ctx, "not-an-email")
	assert.EqualError(t, err, "Invalid email address")

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, svc.Remove(ctx, entry.ID))
	entries, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureDefaultEmailIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := service.NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultEmail(ctx, ""))
	require.NoError(t, svc.EnsureDefaultEmail(ctx, "root@example.com"))
	require.NoError(t, svc.EnsureDefaultEmail(ctx, "root@example.com"))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWhitelistRemovalDoesNotDemote(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := service.NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	entry, err := svc.Add(ctx, "listed@example.com")
	require.NoError(t, err)

	// a user registered while listed keeps admin after the entry is removed
	user := seedUser(t, store, "listed@example.com", true)
	require.NoError(t, svc.Remove(ctx, entry.ID))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
}
