package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

func TestInviteFlow(t *testing.T) {
	f := newFixture(t)

	// cashiers cannot invite
	_, err := f.svc.InviteUser(f.asCashier(), domain.UserInviteRequest{Name: "Baru", Email: "baru@tes.id"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	invite, err := f.svc.InviteUser(f.asOwner(), domain.UserInviteRequest{
		Name: "Mbak Baru", Email: "Baru@Tes.ID", Role: "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, invite.User.Role, "unknown role falls back to cashier")
	assert.Equal(t, domain.UserStatusInvited, invite.User.Status)
	assert.Equal(t, "baru@tes.id", invite.User.Email)
	assert.NotEmpty(t, invite.InviteToken)
	assert.Equal(t, "/invite/"+invite.InviteToken, invite.InviteLink)

	// invited accounts cannot log in before accepting
	_, _, err = f.svc.Authenticate(context.Background(), "baru@tes.id", "whatever")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	info, err := f.svc.InviteInfo(context.Background(), invite.InviteToken)
	require.NoError(t, err)
	assert.Equal(t, "Mbak Baru", info.Name)
	assert.Equal(t, f.tenant.Name, info.TenantName)
	assert.Equal(t, f.owner.Name, info.InvitedBy)

	_, _, err = f.svc.AcceptInvite(context.Background(), invite.InviteToken, "123")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	user, tenant, err := f.svc.AcceptInvite(context.Background(), invite.InviteToken, "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.True(t, user.IsActive)
	assert.Equal(t, f.tenant.ID, tenant.ID)

	// token is single use
	_, _, err = f.svc.AcceptInvite(context.Background(), invite.InviteToken, "rahasia123")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// the new password works
	logged, _, err := f.svc.Authenticate(context.Background(), "baru@tes.id", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	// duplicate email rejected
	_, err = f.svc.InviteUser(f.asOwner(), domain.UserInviteRequest{Name: "Lagi", Email: "baru@tes.id"})
	assert.ErrorIs(t, err, ErrEmailRegistered)
}

func TestUpdateTenantUser(t *testing.T) {
	f := newFixture(t)

	// not your own account
	_, err := f.svc.UpdateTenantUser(f.asOwner(), f.owner.ID, domain.UserUpdateRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	newName := "Mas Kasir Senior"
	newRole := domain.RoleOwner
	updated, err := f.svc.UpdateTenantUser(f.asOwner(), f.kasir.ID, domain.UserUpdateRequest{
		Name: &newName, Role: &newRole,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, domain.RoleOwner, updated.Role)

	// user from another tenant is invisible
	other, err := f.repo.CreateTenant(context.Background(), domain.Tenant{Name: "Toko Lain", Subdomain: "lain"})
	require.NoError(t, err)
	foreign, err := f.repo.CreateUser(context.Background(), domain.User{
		TenantID: other.ID, Name: "Orang Lain", Email: "lain@tes.id",
		Role: domain.RoleCashier, IsActive: true, Status: domain.UserStatusActive,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateTenantUser(f.asOwner(), foreign.ID, domain.UserUpdateRequest{Name: &newName})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDisableTenantUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DisableTenantUser(f.asOwner(), f.owner.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.svc.DisableTenantUser(f.asOwner(), f.kasir.ID))

	disabled, err := f.repo.GetUser(context.Background(), f.kasir.ID)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)
	assert.Equal(t, domain.UserStatusDisabled, disabled.Status)

	// disabled accounts are locked out immediately
	_, err = f.svc.ResolveUser(context.Background(), f.kasir.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestProvisionTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.ProvisionTenant(ctx, "kedai kopi", "Kopi Senja", []string{"Kopi Susu", " ", "Es Teh"}, "senja@tes.id")
	require.NoError(t, err)
	assert.Equal(t, "kopisenja", result.Tenant.Subdomain)
	assert.Equal(t, "kedai kopi", result.Tenant.Config.BusinessType)
	assert.Equal(t, domain.RoleOwner, result.Owner.Role)
	assert.Len(t, result.TempPassword, 8)
	require.Len(t, result.Items, 2, "blank item names are dropped")
	assert.Equal(t, int64(10000), result.Items[0].Price)

	// temp password works right away
	_, _, err = f.svc.Authenticate(ctx, "senja@tes.id", result.TempPassword)
	require.NoError(t, err)

	// existing email is refused before anything is created
	_, err = f.svc.ProvisionTenant(ctx, "warung", "Lain", nil, f.owner.Email)
	assert.ErrorIs(t, err, ErrEmailRegistered)

	// same business name gets a disambiguated subdomain
	again, err := f.svc.ProvisionTenant(ctx, "kedai kopi", "Kopi Senja", nil, "senja2@tes.id")
	require.NoError(t, err)
	assert.NotEqual(t, result.Tenant.Subdomain, again.Tenant.Subdomain)
	assert.Contains(t, again.Tenant.Subdomain, "kopisenja")
}

func TestGenerateSubdomain(t *testing.T) {
	assert.Equal(t, "warungbusofia", GenerateSubdomain("Warung Bu Sofia"))
	assert.Equal(t, "kopi24jam", GenerateSubdomain("Kopi 24 Jam!"))
	assert.Equal(t, "toko", GenerateSubdomain("---"))
	assert.Len(t, GenerateSubdomain("Nama Usaha Yang Sangat Panjang Sekali"), 20)
}
