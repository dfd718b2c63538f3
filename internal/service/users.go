package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

func (s *Service) ListTenantUsers(ctx context.Context) (*domain.UserPage, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx, principal.TenantID)
	if err != nil {
		return nil, err
	}
	return &domain.UserPage{Users: users, Total: len(users)}, nil
}

// InviteUser creates an account in invited status with no password. The
// returned token is the invite link secret; the account only becomes
// usable once AcceptInvite sets a password.
func (s *Service) InviteUser(ctx context.Context, req domain.UserInviteRequest) (*domain.UserInviteResponse, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidArgument)
	}

	role := req.Role
	if role != domain.RoleOwner && role != domain.RoleCashier {
		role = domain.RoleCashier
	}

	token := uuid.NewString()
	user, err := s.repo.CreateUser(ctx, domain.User{
		TenantID:    principal.TenantID,
		Name:        req.Name,
		Email:       req.Email,
		Role:        role,
		IsActive:    false,
		Status:      domain.UserStatusInvited,
		InvitedBy:   principal.UserID,
		InviteToken: token,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailRegistered
		}
		return nil, err
	}

	return &domain.UserInviteResponse{
		User: domain.UserProfileWithStatus{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
			Status: user.Status,
		},
		InviteToken: token,
		InviteLink:  "/invite/" + token,
		Message:     fmt.Sprintf("Undangan berhasil dikirim ke %s", user.Email),
	}, nil
}

// AcceptInvite redeems an invite token: sets the password, activates the
// account, and burns the token. Single use.
func (s *Service) AcceptInvite(ctx context.Context, token string, password string) (*domain.User, *domain.Tenant, error) {
	if len(password) < 6 {
		return nil, nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidArgument)
	}

	user, err := s.repo.GetUserByInviteToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if user.Status != domain.UserStatusInvited {
		return nil, nil, fmt.Errorf("%w: invite already used", ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = string(hash)
	user.Status = domain.UserStatusActive
	user.IsActive = true
	user.InviteToken = ""

	updated, err := s.repo.UpdateUser(ctx, *user)
	if err != nil {
		return nil, nil, err
	}
	tenant, err := s.repo.GetTenant(ctx, updated.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return updated, tenant, nil
}

func (s *Service) InviteInfo(ctx context.Context, token string) (*domain.InviteInfo, error) {
	user, err := s.repo.GetUserByInviteToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusInvited {
		return nil, fmt.Errorf("%w: invite already used", ErrInvalidArgument)
	}

	tenantName := "Toko"
	if tenant, err := s.repo.GetTenant(ctx, user.TenantID); err == nil {
		tenantName = tenant.Name
	}
	invitedBy := "Pemilik"
	if user.InvitedBy != "" {
		if inviter, err := s.repo.GetUser(ctx, user.InvitedBy); err == nil {
			invitedBy = inviter.Name
		}
	}

	return &domain.InviteInfo{
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		TenantName: tenantName,
		InvitedBy:  invitedBy,
	}, nil
}

// UpdateTenantUser edits another user in the tenant. Owners manage their
// own account through the profile endpoints, not this one.
func (s *Service) UpdateTenantUser(ctx context.Context, userID string, req domain.UserUpdateRequest) (*domain.User, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if userID == principal.UserID {
		return nil, fmt.Errorf("%w: use the profile endpoints to edit your own account", ErrInvalidArgument)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != principal.TenantID {
		return nil, store.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
		}
		user.Name = name
	}
	if req.Role != nil && (*req.Role == domain.RoleOwner || *req.Role == domain.RoleCashier) {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if *req.IsActive {
			user.Status = domain.UserStatusActive
		} else {
			user.Status = domain.UserStatusDisabled
		}
	}

	return s.repo.UpdateUser(ctx, *user)
}

// DisableTenantUser is the delete endpoint's behavior: accounts are
// disabled, never removed, so their name stays on past transactions.
func (s *Service) DisableTenantUser(ctx context.Context, userID string) error {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}
	if userID == principal.UserID {
		return fmt.Errorf("%w: cannot disable your own account", ErrInvalidArgument)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TenantID != principal.TenantID {
		return store.ErrNotFound
	}

	user.IsActive = false
	user.Status = domain.UserStatusDisabled
	_, err = s.repo.UpdateUser(ctx, *user)
	return err
}
