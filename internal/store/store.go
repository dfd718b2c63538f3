package store

import (
	"context"
	"errors"
	"time"

	"aikasir/backend/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("storage unavailable")
)

// TransactionFilter narrows ListTransactions. DayKey is the YYYYMMDD prefix
// of the transaction number, not a created_at range.
type TransactionFilter struct {
	DayKey string
	Limit  int
	Offset int
}

type Repository interface {
	CreateTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error)
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error)

	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByInviteToken(ctx context.Context, token string) (*domain.User, error)
	ListUsers(ctx context.Context, tenantID string) ([]domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)

	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItem(ctx context.Context, tenantID string, id string) (*domain.Item, error)
	ListItems(ctx context.Context, tenantID string, activeOnly bool, search string) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)

	// NextDailySequence atomically increments and returns the per-(tenant, day)
	// counter, starting at 1. Issued values are never reused, even when the
	// transaction they were allocated for fails to persist.
	NextDailySequence(ctx context.Context, tenantID string, dayKey string) (int64, error)

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, tenantID string, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, tenantID string, filter TransactionFilter) ([]domain.Transaction, int64, error)
	ListTransactionsByDayRange(ctx context.Context, tenantID string, startKey string, endKey string) ([]domain.Transaction, error)
	VoidTransaction(ctx context.Context, tenantID string, id string, voidedBy string, reason string, at time.Time) (*domain.Transaction, error)
}
