package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

// Store is the in-memory repository used for dev mode and tests. All maps
// are guarded by a single mutex; sequence allocation takes the write lock,
// which makes it linearizable per (tenant, day).
type Store struct {
	mu               sync.RWMutex
	tenantsByID      map[string]domain.Tenant
	usersByID        map[string]domain.User
	itemsByID        map[string]domain.Item
	transactionsByID map[string]domain.Transaction
	sequences        map[string]int64
}

func New() *Store {
	return &Store{
		tenantsByID:      make(map[string]domain.Tenant),
		usersByID:        make(map[string]domain.User),
		itemsByID:        make(map[string]domain.Item),
		transactionsByID: make(map[string]domain.Transaction),
		sequences:        make(map[string]int64),
	}
}

// NewSeeded returns a store preloaded with one demo tenant, an owner and a
// cashier account, and a small warung catalog. The owner password is read
// from SEED_OWNER_PASSWORD with a hardcoded dev fallback.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	tenant := domain.Tenant{
		ID:        uuid.NewString(),
		Name:      "Warung Demo",
		Subdomain: "warungdemo",
		Address:   "Jl. Melati No. 3, Yogyakarta",
		Phone:     "0812-0000-1111",
		Config: domain.TenantConfig{
			BusinessType:   "warung",
			PaymentMethods: []string{domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer},
		},
		CreatedAt: now,
	}
	s.tenantsByID[tenant.ID] = tenant

	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	for _, u := range []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Pemilik Demo", "owner@warungdemo.test", ownerPwd, domain.RoleOwner},
		{"Kasir Demo", "cashier@warungdemo.test", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.email, err)
		}
		user := domain.User{
			ID:           uuid.NewString(),
			TenantID:     tenant.ID,
			Name:         u.name,
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
			Status:       domain.UserStatusActive,
			CreatedAt:    now,
		}
		s.usersByID[user.ID] = user
	}

	for _, it := range []struct {
		name  string
		price int64
	}{
		{"Kopi Susu", 12000},
		{"Es Teh Manis", 6000},
		{"Nasi Goreng", 18000},
		{"Mie Goreng", 15000},
		{"Pisang Goreng", 8000},
		{"Air Mineral", 4000},
	} {
		item := domain.Item{
			ID:        uuid.NewString(),
			TenantID:  tenant.ID,
			Name:      it.name,
			Price:     it.price,
			IsActive:  true,
			CreatedAt: now,
		}
		s.itemsByID[item.ID] = item
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateTenant(_ context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	if len(tenant.Config.PaymentMethods) == 0 {
		tenant.Config.PaymentMethods = []string{domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer}
	}
	for _, existing := range s.tenantsByID {
		if existing.Subdomain == tenant.Subdomain {
			return nil, store.ErrConflict
		}
	}

	s.tenantsByID[tenant.ID] = tenant
	created := tenant
	return &created, nil
}

func (s *Store) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenantsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := tenant
	return &found, nil
}

func (s *Store) GetTenantBySubdomain(_ context.Context, subdomain string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subdomain = strings.ToLower(subdomain)
	for _, tenant := range s.tenantsByID {
		if tenant.Subdomain == subdomain {
			found := tenant
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateTenant(_ context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tenantsByID[tenant.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.Name = tenant.Name
	existing.Address = tenant.Address
	existing.Phone = tenant.Phone
	s.tenantsByID[tenant.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	user.Email = strings.ToLower(user.Email)
	for _, existing := range s.usersByID {
		if existing.Email == user.Email {
			return nil, store.ErrConflict
		}
	}

	s.usersByID[user.ID] = user
	created := user
	return &created, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range s.usersByID {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByInviteToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.usersByID {
		if user.InviteToken == token {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, tenantID string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, 8)
	for _, user := range s.usersByID {
		if user.TenantID == tenantID {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usersByID[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.Name = user.Name
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.IsActive = user.IsActive
	existing.Status = user.Status
	existing.InviteToken = user.InviteToken
	s.usersByID[user.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.itemsByID[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetItem(_ context.Context, tenantID string, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.itemsByID[id]
	if !ok || item.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) ListItems(_ context.Context, tenantID string, activeOnly bool, search string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(search)
	items := make([]domain.Item, 0, 32)
	for _, item := range s.itemsByID {
		if item.TenantID != tenantID {
			continue
		}
		if activeOnly && !item.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.itemsByID[item.ID]
	if !ok || existing.TenantID != item.TenantID {
		return nil, store.ErrNotFound
	}
	existing.Name = item.Name
	existing.Price = item.Price
	existing.IsActive = item.IsActive
	s.itemsByID[item.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) NextDailySequence(_ context.Context, tenantID string, dayKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantID + ":" + dayKey
	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}
	for _, existing := range s.transactionsByID {
		if existing.TenantID == tx.TenantID && existing.TransactionNumber == tx.TransactionNumber {
			return nil, store.ErrConflict
		}
	}

	tx.Items = append([]domain.TransactionLine(nil), tx.Items...)
	s.transactionsByID[tx.ID] = tx
	created := tx
	return &created, nil
}

func (s *Store) GetTransaction(_ context.Context, tenantID string, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok || tx.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	found := tx
	found.Items = append([]domain.TransactionLine(nil), tx.Items...)
	return &found, nil
}

func (s *Store) ListTransactions(_ context.Context, tenantID string, filter store.TransactionFilter) ([]domain.Transaction, int64, error) {
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactionsByID {
		if tx.TenantID != tenantID {
			continue
		}
		if filter.DayKey != "" && !strings.HasPrefix(tx.TransactionNumber, filter.DayKey) {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (s *Store) ListTransactionsByDayRange(_ context.Context, tenantID string, startKey string, endKey string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactionsByID {
		if tx.TenantID != tenantID {
			continue
		}
		if len(tx.TransactionNumber) < 8 {
			continue
		}
		day := tx.TransactionNumber[:8]
		if day < startKey || day > endKey {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TransactionNumber < matched[j].TransactionNumber
	})
	return matched, nil
}

func (s *Store) VoidTransaction(_ context.Context, tenantID string, id string, voidedBy string, reason string, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok || tx.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	if tx.Status != domain.TxStatusCompleted {
		return nil, store.ErrConflict
	}

	at = at.UTC()
	tx.Status = domain.TxStatusVoided
	tx.VoidedAt = &at
	tx.VoidedBy = voidedBy
	tx.VoidReason = reason
	s.transactionsByID[id] = tx

	voided := tx
	voided.Items = append([]domain.TransactionLine(nil), tx.Items...)
	return &voided, nil
}
