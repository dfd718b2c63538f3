package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

func TestChangePasswordAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(f.asCashier(), "123")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.svc.ChangePassword(f.asCashier(), "barurahasia"))

	user, tenant, err := f.svc.Authenticate(ctx, "KASIR@tes.id", "barurahasia")
	require.NoError(t, err)
	assert.Equal(t, f.kasir.ID, user.ID)
	assert.Equal(t, f.tenant.ID, tenant.ID)

	_, _, err = f.svc.Authenticate(ctx, "kasir@tes.id", "salah")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestItemLifecycle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateItem(f.asOwner(), domain.ItemCreateRequest{Name: " ", Price: 1000})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.CreateItem(f.asOwner(), domain.ItemCreateRequest{Name: "Kopi", Price: 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	item, err := f.svc.CreateItem(f.asOwner(), domain.ItemCreateRequest{Name: "  Kopi Tubruk ", Price: 9000})
	require.NoError(t, err)
	assert.Equal(t, "Kopi Tubruk", item.Name)
	assert.True(t, item.IsActive)

	require.NoError(t, f.svc.DeactivateItem(f.asOwner(), item.ID))

	active, err := f.svc.ListItems(f.asOwner(), true, "")
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.svc.ListItems(f.asOwner(), false, "tubruk")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateSettings(f.asCashier(), domain.SettingsUpdateRequest{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	name := "Warung Bu Sofia"
	address := "Jl. Kenanga 12"
	tenant, err := f.svc.UpdateSettings(f.asOwner(), domain.SettingsUpdateRequest{
		Name: &name, Address: &address,
	})
	require.NoError(t, err)
	assert.Equal(t, name, tenant.Name)
	assert.Equal(t, address, tenant.Address)

	empty := ""
	_, err = f.svc.UpdateSettings(f.asOwner(), domain.SettingsUpdateRequest{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTenantBySubdomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenant, err := f.svc.TenantBySubdomain(ctx, " WarungTes ")
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, tenant.ID)

	_, err = f.svc.TenantBySubdomain(ctx, "tidakada")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.TenantBySubdomain(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
