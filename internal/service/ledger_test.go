package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
	"aikasir/backend/internal/store/memory"
)

type fixture struct {
	svc    *Service
	repo   *memory.Store
	tenant domain.Tenant
	owner  domain.User
	kasir  domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	tenant, err := repo.CreateTenant(ctx, domain.Tenant{Name: "Warung Tes", Subdomain: "warungtes"})
	require.NoError(t, err)

	owner, err := repo.CreateUser(ctx, domain.User{
		TenantID: tenant.ID, Name: "Bu Owner", Email: "owner@tes.id",
		Role: domain.RoleOwner, IsActive: true, Status: domain.UserStatusActive,
	})
	require.NoError(t, err)

	kasir, err := repo.CreateUser(ctx, domain.User{
		TenantID: tenant.ID, Name: "Mas Kasir", Email: "kasir@tes.id",
		Role: domain.RoleCashier, IsActive: true, Status: domain.UserStatusActive,
	})
	require.NoError(t, err)

	return &fixture{
		svc:    New(repo, zerolog.Nop()),
		repo:   repo,
		tenant: *tenant,
		owner:  *owner,
		kasir:  *kasir,
	}
}

func (f *fixture) asOwner() context.Context {
	return WithPrincipal(context.Background(), domain.Principal{
		UserID: f.owner.ID, TenantID: f.tenant.ID, Name: f.owner.Name, Role: domain.RoleOwner,
	})
}

func (f *fixture) asCashier() context.Context {
	return WithPrincipal(context.Background(), domain.Principal{
		UserID: f.kasir.ID, TenantID: f.tenant.ID, Name: f.kasir.Name, Role: domain.RoleCashier,
	})
}

func (f *fixture) addItem(t *testing.T, name string, price int64, active bool) domain.Item {
	t.Helper()
	item, err := f.repo.CreateItem(context.Background(), domain.Item{
		TenantID: f.tenant.ID, Name: name, Price: price, IsActive: active,
	})
	require.NoError(t, err)
	return *item
}

func TestFormatTransactionNumber(t *testing.T) {
	assert.Equal(t, "202501150001", FormatTransactionNumber("20250115", 1))
	assert.Equal(t, "202501150042", FormatTransactionNumber("20250115", 42))
	assert.Equal(t, "202501159999", FormatTransactionNumber("20250115", 9999))
	// past the pad the number grows a digit; the day prefix stays 8 chars
	assert.Equal(t, "2025011510000", FormatTransactionNumber("20250115", 10000))
}

func TestCreateTransactionCashSettlement(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Kopi Susu", 15000, true)

	cases := []struct {
		name       string
		amount     int64
		wantChange int64
		wantErr    error
	}{
		{"underpayment rejected", 29999, 0, ErrInsufficientPayment},
		{"exact payment", 30000, 0, nil},
		{"overpayment returns change", 35000, 5000, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
				Items:         []domain.CartLine{{ItemID: item.ID, Qty: 2}},
				PaymentMethod: domain.PaymentCash,
				PaymentAmount: tc.amount,
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(30000), detail.Transaction.Total)
			assert.Equal(t, tc.wantChange, detail.Transaction.ChangeAmount)
			assert.Equal(t, domain.TxStatusCompleted, detail.Transaction.Status)
		})
	}
}

func TestCreateTransactionNonCashNormalizesAmount(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Es Teh", 6000, true)

	for _, method := range []string{domain.PaymentQRIS, domain.PaymentTransfer} {
		t.Run(method, func(t *testing.T) {
			detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
				Items:         []domain.CartLine{{ItemID: item.ID, Qty: 3}},
				PaymentMethod: method,
				PaymentAmount: 1000, // understated; raised to total, never an error
			})
			require.NoError(t, err)
			assert.Equal(t, int64(18000), detail.Transaction.Total)
			assert.Equal(t, int64(18000), detail.Transaction.PaymentAmount)
			assert.Equal(t, int64(0), detail.Transaction.ChangeAmount)
		})
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Roti", 8000, true)

	_, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		PaymentMethod: domain.PaymentCash, PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 0}},
		PaymentMethod: domain.PaymentCash, PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
		PaymentMethod: "cek", PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.CreateTransaction(context.Background(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
		PaymentMethod: domain.PaymentCash, PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateTransactionSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Nasi Goreng", 18000, true)

	detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
		PaymentMethod: domain.PaymentCash,
		PaymentAmount: 20000,
	})
	require.NoError(t, err)

	// repricing the catalog must not touch the recorded line
	newPrice := int64(25000)
	_, err = f.svc.UpdateItem(f.asOwner(), item.ID, domain.ItemUpdateRequest{Price: &newPrice})
	require.NoError(t, err)

	fetched, err := f.svc.GetTransaction(f.asCashier(), detail.Transaction.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Transaction.Items, 1)
	assert.Equal(t, int64(18000), fetched.Transaction.Items[0].Price)
	assert.Equal(t, int64(18000), fetched.Transaction.Total)
}

func TestCreateTransactionRejectsInactiveAndForeignItems(t *testing.T) {
	f := newFixture(t)
	inactive := f.addItem(t, "Menu Lama", 10000, false)

	_, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: inactive.ID, Qty: 1}},
		PaymentMethod: domain.PaymentCash, PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// item from another tenant is invisible here
	other, err := f.repo.CreateTenant(context.Background(), domain.Tenant{Name: "Toko Lain", Subdomain: "tokolain"})
	require.NoError(t, err)
	foreign, err := f.repo.CreateItem(context.Background(), domain.Item{
		TenantID: other.ID, Name: "Barang Lain", Price: 5000, IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: foreign.ID, Qty: 1}},
		PaymentMethod: domain.PaymentCash, PaymentAmount: 10000,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Air Mineral", 4000, true)

	const n = 25
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
				Items:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
				PaymentMethod: domain.PaymentCash,
				PaymentAmount: 4000,
			})
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			numbers <- detail.Transaction.TransactionNumber
		}()
	}
	wg.Wait()
	close(numbers)

	dayKey := DayKey(time.Now())
	seen := make(map[string]bool, n)
	for num := range numbers {
		require.False(t, seen[num], "transaction number %s issued twice", num)
		seen[num] = true
		assert.Equal(t, dayKey, num[:8])
	}
	require.Len(t, seen, n)

	// max gap bounded by the number of attempts
	maxNum := fmt.Sprintf("%s%04d", dayKey, n)
	for num := range seen {
		assert.LessOrEqual(t, num, maxNum)
	}
}

func TestVoidTransaction(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Pisang Goreng", 8000, true)

	detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 2}},
		PaymentMethod: domain.PaymentCash,
		PaymentAmount: 16000,
	})
	require.NoError(t, err)
	txID := detail.Transaction.ID

	// cashier cannot void
	_, err = f.svc.VoidTransaction(f.asCashier(), txID, "salah input")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// reason is mandatory
	_, err = f.svc.VoidTransaction(f.asOwner(), txID, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	voided, err := f.svc.VoidTransaction(f.asOwner(), txID, "salah input")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusVoided, voided.Status)
	assert.Equal(t, f.owner.ID, voided.VoidedBy)
	assert.Equal(t, "salah input", voided.VoidReason)
	require.NotNil(t, voided.VoidedAt)
	assert.Equal(t, detail.Transaction.Total, voided.Total, "void must not change the total")

	// voided is terminal
	_, err = f.svc.VoidTransaction(f.asOwner(), txID, "sekali lagi")
	assert.ErrorIs(t, err, ErrAlreadyVoided)

	// unknown id
	_, err = f.svc.VoidTransaction(f.asOwner(), "no-such-tx", "alasan")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDayReconcilesAfterVoid(t *testing.T) {
	f := newFixture(t)
	active := f.addItem(t, "Ayam Geprek", 15000, true)
	inactive := f.addItem(t, "Menu Lama", 10000, false)

	detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: active.ID, Qty: 2}},
		PaymentMethod: domain.PaymentCash,
		PaymentAmount: 40000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), detail.Transaction.Total)
	assert.Equal(t, int64(10000), detail.Transaction.ChangeAmount)
	assert.Equal(t, domain.TxStatusCompleted, detail.Transaction.Status)

	_, err = f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: inactive.ID, Qty: 1}},
		PaymentMethod: domain.PaymentCash,
		PaymentAmount: 10000,
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.VoidTransaction(f.asOwner(), detail.Transaction.ID, "batal pesanan")
	require.NoError(t, err)

	// the voided sale drops out of the summary entirely
	today := time.Now().UTC().Format("2006-01-02")
	summary, err := f.svc.SummaryReport(f.asOwner(), today, today)
	require.NoError(t, err)
	assert.Zero(t, summary.Summary.TotalSales)
	assert.Zero(t, summary.Summary.TotalTransactions)
	assert.Empty(t, summary.TopItems)

	// but the daily detail still accounts for it
	daily, err := f.svc.DailyReport(f.asOwner(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, daily.Summary.TotalVoided)
	assert.Equal(t, int64(30000), daily.Summary.VoidedAmount)
}

func TestListTransactionsTenantIsolation(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Kopi", 10000, true)

	detail, err := f.svc.CreateTransaction(f.asCashier(), domain.TransactionCreateRequest{
		Items:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
		PaymentMethod: domain.PaymentQRIS,
	})
	require.NoError(t, err)

	// same id, different tenant: not found
	otherCtx := WithPrincipal(context.Background(), domain.Principal{
		UserID: "u-other", TenantID: "t-other", Name: "Orang Lain", Role: domain.RoleOwner,
	})
	_, err = f.svc.GetTransaction(otherCtx, detail.Transaction.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	page, err := f.svc.ListTransactions(otherCtx, "", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.Zero(t, page.Total)

	page, err = f.svc.ListTransactions(f.asCashier(), "", 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.svc.ListTransactions(f.asCashier(), "15-01-2025", 50, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
