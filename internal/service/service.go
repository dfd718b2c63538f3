package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrAlreadyVoided       = errors.New("transaction already voided")
	ErrEmailRegistered     = errors.New("email already registered")
)

type principalContextKey struct{}

func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(domain.Principal)
	return principal, ok
}

type Service struct {
	repo store.Repository
	log  zerolog.Logger
}

func New(repo store.Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) principal(ctx context.Context) (domain.Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok || principal.UserID == "" {
		return domain.Principal{}, ErrUnauthenticated
	}
	return principal, nil
}

func (s *Service) requireOwner(ctx context.Context) (domain.Principal, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return domain.Principal{}, err
	}
	if principal.Role != domain.RoleOwner {
		return domain.Principal{}, ErrPermissionDenied
	}
	return principal, nil
}

// Authenticate verifies email+password and returns the user with its tenant.
// All three failure modes (unknown email, wrong password, disabled account)
// collapse into ErrUnauthenticated so callers can't probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (*domain.User, *domain.Tenant, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, nil, ErrUnauthenticated
	}

	tenant, err := s.repo.GetTenant(ctx, user.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return user, tenant, nil
}

// ResolveUser loads the user behind a token subject. Used by the auth
// middleware to build the request principal from fresh store state, so a
// disabled account is locked out immediately rather than at token expiry.
func (s *Service) ResolveUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context) (*domain.User, *domain.Tenant, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.GetUser(ctx, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	tenant, err := s.repo.GetTenant(ctx, principal.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return user, tenant, nil
}

func (s *Service) ChangePassword(ctx context.Context, newPassword string) error {
	principal, err := s.principal(ctx)
	if err != nil {
		return err
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidArgument)
	}

	user, err := s.repo.GetUser(ctx, principal.UserID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	_, err = s.repo.UpdateUser(ctx, *user)
	return err
}

func (s *Service) ListItems(ctx context.Context, activeOnly bool, search string) ([]domain.Item, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, principal.TenantID, activeOnly, strings.TrimSpace(search))
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (*domain.Item, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidArgument)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrInvalidArgument)
	}

	return s.repo.CreateItem(ctx, domain.Item{
		TenantID: principal.TenantID,
		Name:     req.Name,
		Price:    req.Price,
		IsActive: true,
	})
}

func (s *Service) UpdateItem(ctx context.Context, itemID string, req domain.ItemUpdateRequest) (*domain.Item, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, principal.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrInvalidArgument)
		}
		item.Name = name
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be greater than zero", ErrInvalidArgument)
		}
		item.Price = *req.Price
	}

	return s.repo.UpdateItem(ctx, *item)
}

// DeactivateItem soft-deletes: the item disappears from active listings but
// recorded transaction lines keep their snapshot of it.
func (s *Service) DeactivateItem(ctx context.Context, itemID string) error {
	principal, err := s.principal(ctx)
	if err != nil {
		return err
	}

	item, err := s.repo.GetItem(ctx, principal.TenantID, itemID)
	if err != nil {
		return err
	}
	item.IsActive = false
	_, err = s.repo.UpdateItem(ctx, *item)
	return err
}

func (s *Service) Settings(ctx context.Context) (*domain.Tenant, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetTenant(ctx, principal.TenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (*domain.Tenant, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	tenant, err := s.repo.GetTenant(ctx, principal.TenantID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: business name is required", ErrInvalidArgument)
		}
		tenant.Name = name
	}
	if req.Address != nil {
		tenant.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		tenant.Phone = strings.TrimSpace(*req.Phone)
	}

	return s.repo.UpdateTenant(ctx, *tenant)
}

func (s *Service) TenantBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	subdomain = strings.TrimSpace(strings.ToLower(subdomain))
	if subdomain == "" {
		return nil, store.ErrNotFound
	}
	return s.repo.GetTenantBySubdomain(ctx, subdomain)
}

// ProvisionResult is what the onboarding flow hands back to the caller once
// a store has been set up.
type ProvisionResult struct {
	Tenant       domain.Tenant
	Owner        domain.User
	TempPassword string
	Items        []domain.OnboardItem
}

const defaultItemPrice = 10000

// ProvisionTenant creates a tenant, its owner account with a temporary
// password, and default-priced starter items. Called by the onboarding flow
// after the assistant has collected all four answers.
func (s *Service) ProvisionTenant(ctx context.Context, businessType string, businessName string, itemNames []string, email string) (*ProvisionResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if businessName == "" {
		businessName = "Toko Saya"
	}
	if businessType == "" {
		businessType = "general"
	}

	subdomain := GenerateSubdomain(businessName)
	tenant, err := s.repo.CreateTenant(ctx, domain.Tenant{
		Name:      businessName,
		Subdomain: subdomain,
		Config:    domain.TenantConfig{BusinessType: businessType},
	})
	if errors.Is(err, store.ErrConflict) {
		// Subdomain collision across tenants; disambiguate and retry once.
		subdomain = subdomain + uuid.NewString()[:4]
		tenant, err = s.repo.CreateTenant(ctx, domain.Tenant{
			Name:      businessName,
			Subdomain: subdomain,
			Config:    domain.TenantConfig{BusinessType: businessType},
		})
	}
	if err != nil {
		return nil, err
	}

	tempPassword := uuid.NewString()[:8]
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.CreateUser(ctx, domain.User{
		TenantID:     tenant.ID,
		Name:         "Pemilik",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleOwner,
		IsActive:     true,
		Status:       domain.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailRegistered
		}
		return nil, err
	}

	created := make([]domain.OnboardItem, 0, len(itemNames))
	for _, name := range itemNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := s.repo.CreateItem(ctx, domain.Item{
			TenantID: tenant.ID,
			Name:     name,
			Price:    defaultItemPrice,
			IsActive: true,
		}); err != nil {
			return nil, err
		}
		created = append(created, domain.OnboardItem{Name: name, Price: defaultItemPrice})
	}

	s.log.Info().
		Str("tenant_id", tenant.ID).
		Str("subdomain", tenant.Subdomain).
		Int("items", len(created)).
		Msg("tenant provisioned via onboarding")

	return &ProvisionResult{
		Tenant:       *tenant,
		Owner:        *owner,
		TempPassword: tempPassword,
		Items:        created,
	}, nil
}

// GenerateSubdomain derives a subdomain slug from a business name:
// lowercase, alphanumeric only, capped at 20 characters.
func GenerateSubdomain(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	slug := b.String()
	if slug == "" {
		slug = "toko"
	}
	if len(slug) > 20 {
		slug = slug[:20]
	}
	return slug
}

func (s *Service) receiptFor(ctx context.Context, tenantID string) domain.Receipt {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("receipt header lookup failed")
		return domain.Receipt{BusinessName: "Toko"}
	}
	return domain.Receipt{
		BusinessName: tenant.Name,
		Address:      tenant.Address,
		Phone:        tenant.Phone,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
