package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			subdomain TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			business_type TEXT NOT NULL DEFAULT 'general',
			payment_methods TEXT NOT NULL DEFAULT 'cash,qris,transfer',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL REFERENCES tenants(id),
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			status TEXT NOT NULL DEFAULT 'active',
			invited_by TEXT,
			invite_token TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_invite_token ON users (invite_token) WHERE invite_token IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL REFERENCES tenants(id),
			name TEXT NOT NULL,
			price BIGINT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_tenant ON items (tenant_id, name)`,
		`CREATE TABLE IF NOT EXISTS daily_sequences (
			tenant_id TEXT NOT NULL,
			day TEXT NOT NULL,
			last_value BIGINT NOT NULL,
			PRIMARY KEY (tenant_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL REFERENCES tenants(id),
			transaction_number TEXT NOT NULL,
			total BIGINT NOT NULL,
			payment_method TEXT NOT NULL,
			payment_amount BIGINT NOT NULL,
			change_amount BIGINT NOT NULL,
			payment_reference TEXT,
			status TEXT NOT NULL,
			voided_at TIMESTAMPTZ,
			voided_by TEXT,
			void_reason TEXT,
			created_by TEXT NOT NULL,
			created_by_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (tenant_id, transaction_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_tenant_number ON transactions (tenant_id, transaction_number)`,
		`CREATE TABLE IF NOT EXISTS transaction_lines (
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			line_no INT NOT NULL,
			item_id TEXT NOT NULL,
			name TEXT NOT NULL,
			qty INT NOT NULL,
			price BIGINT NOT NULL,
			subtotal BIGINT NOT NULL,
			PRIMARY KEY (transaction_id, line_no)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	if len(tenant.Config.PaymentMethods) == 0 {
		tenant.Config.PaymentMethods = []string{domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, subdomain, address, phone, business_type, payment_methods, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, tenant.ID, tenant.Name, tenant.Subdomain, tenant.Address, tenant.Phone,
		tenant.Config.BusinessType, strings.Join(tenant.Config.PaymentMethods, ","), tenant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := tenant
	return &created, nil
}

const tenantColumns = `id, name, subdomain, address, phone, business_type, payment_methods, created_at`

func (s *Store) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.getTenantWhere(ctx, "id = $1", id)
}

func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	return s.getTenantWhere(ctx, "subdomain = $1", strings.ToLower(subdomain))
}

func (s *Store) getTenantWhere(ctx context.Context, where string, arg any) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var methods string
	err := s.db.QueryRowContext(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE `+where, arg).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Address,
		&tenant.Phone, &tenant.Config.BusinessType, &methods, &tenant.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	tenant.Config.PaymentMethods = splitMethods(methods)
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	return &tenant, nil
}

func (s *Store) UpdateTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET name = $2, address = $3, phone = $4
		WHERE id = $1
	`, tenant.ID, tenant.Name, tenant.Address, tenant.Phone)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTenant(ctx, tenant.ID)
}

const userColumns = `id, tenant_id, name, email, password_hash, role, is_active, status, invited_by, invite_token, created_at`

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, name, email, password_hash, role, is_active, status, invited_by, invite_token, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, user.ID, user.TenantID, user.Name, strings.ToLower(user.Email), user.PasswordHash, user.Role,
		user.IsActive, user.Status, nullIfEmpty(user.InvitedBy), nullIfEmpty(user.InviteToken), user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = $1", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email = $1", strings.ToLower(email))
}

func (s *Store) GetUserByInviteToken(ctx context.Context, token string) (*domain.User, error) {
	return s.getUserWhere(ctx, "invite_token = $1", token)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, password_hash = $3, role = $4, is_active = $5, status = $6, invite_token = $7
		WHERE id = $1
	`, user.ID, user.Name, user.PasswordHash, user.Role, user.IsActive, user.Status, nullIfEmpty(user.InviteToken))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUser(ctx, user.ID)
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, tenant_id, name, price, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, item.ID, item.TenantID, item.Name, item.Price, item.IsActive, item.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) GetItem(ctx context.Context, tenantID string, id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, price, is_active, created_at
		FROM items
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&item.ID, &item.TenantID, &item.Name, &item.Price, &item.IsActive, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context, tenantID string, activeOnly bool, search string) ([]domain.Item, error) {
	query := `
		SELECT id, tenant_id, name, price, is_active, created_at
		FROM items
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if activeOnly {
		query += ` AND is_active = true`
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.TenantID, &item.Name, &item.Price, &item.IsActive, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $3, price = $4, is_active = $5
		WHERE tenant_id = $1 AND id = $2
	`, item.TenantID, item.ID, item.Name, item.Price, item.IsActive)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetItem(ctx, item.TenantID, item.ID)
}

// NextDailySequence issues the next counter value for (tenant, day) in a
// single atomic statement. The row itself is the counter, so two concurrent
// calls can never observe the same value; counting transaction rows would
// race between the read and the insert.
func (s *Store) NextDailySequence(ctx context.Context, tenantID string, dayKey string) (int64, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		var value int64
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO daily_sequences (tenant_id, day, last_value)
			VALUES ($1, $2, 1)
			ON CONFLICT (tenant_id, day)
			DO UPDATE SET last_value = daily_sequences.last_value + 1
			RETURNING last_value
		`, tenantID, dayKey).Scan(&value)
		if err == nil {
			return value, nil
		}
		if !isRetryable(err) {
			return 0, err
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: daily sequence allocation failed: %v", store.ErrUnavailable, lastErr)
}

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, tenant_id, transaction_number, total, payment_method, payment_amount,
			change_amount, payment_reference, status, voided_at, voided_by, void_reason,
			created_by, created_by_name, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, tx.ID, tx.TenantID, tx.TransactionNumber, tx.Total, tx.PaymentMethod, tx.PaymentAmount,
		tx.ChangeAmount, nullIfEmpty(tx.PaymentReference), tx.Status, nullTime(tx.VoidedAt),
		nullIfEmpty(tx.VoidedBy), nullIfEmpty(tx.VoidReason), tx.CreatedBy, tx.CreatedByName, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for i, line := range tx.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_lines (transaction_id, line_no, item_id, name, qty, price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, tx.ID, i+1, line.ItemID, line.Name, line.Qty, line.Price, line.Subtotal)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &tx, nil
}

const transactionColumns = `id, tenant_id, transaction_number, total, payment_method, payment_amount,
	change_amount, payment_reference, status, voided_at, voided_by, void_reason,
	created_by, created_by_name, created_at`

func (s *Store) GetTransaction(ctx context.Context, tenantID string, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := s.attachLines(ctx, []*domain.Transaction{tx}); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, tenantID string, filter store.TransactionFilter) ([]domain.Transaction, int64, error) {
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := `tenant_id = $1`
	args := []any{tenantID}
	if filter.DayKey != "" {
		args = append(args, filter.DayKey)
		where += fmt.Sprintf(` AND left(transaction_number, 8) = $%d`, len(args))
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachLinesSlice(ctx, transactions); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (s *Store) ListTransactionsByDayRange(ctx context.Context, tenantID string, startKey string, endKey string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE tenant_id = $1 AND left(transaction_number, 8) BETWEEN $2 AND $3
		ORDER BY transaction_number ASC
	`, tenantID, startKey, endKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachLinesSlice(ctx, transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (s *Store) VoidTransaction(ctx context.Context, tenantID string, id string, voidedBy string, reason string, at time.Time) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT status
		FROM transactions
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.TxStatusCompleted {
		return nil, store.ErrConflict
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $3, voided_at = $4, voided_by = $5, void_reason = $6
		WHERE tenant_id = $1 AND id = $2 AND status = $7
	`, tenantID, id, domain.TxStatusVoided, at, voidedBy, reason, domain.TxStatusCompleted)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.GetTransaction(ctx, tenantID, id)
}

func (s *Store) attachLinesSlice(ctx context.Context, transactions []domain.Transaction) error {
	ptrs := make([]*domain.Transaction, len(transactions))
	for i := range transactions {
		ptrs[i] = &transactions[i]
	}
	return s.attachLines(ctx, ptrs)
}

func (s *Store) attachLines(ctx context.Context, transactions []*domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(transactions))
	byID := make(map[string]*domain.Transaction, len(transactions))
	for _, tx := range transactions {
		ids = append(ids, tx.ID)
		byID[tx.ID] = tx
		tx.Items = make([]domain.TransactionLine, 0, 4)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, item_id, name, qty, price, subtotal
		FROM transaction_lines
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, line_no
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var txID string
		var line domain.TransactionLine
		if err := rows.Scan(&txID, &line.ItemID, &line.Name, &line.Qty, &line.Price, &line.Subtotal); err != nil {
			return err
		}
		if tx, ok := byID[txID]; ok {
			tx.Items = append(tx.Items, line)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var paymentRef, voidedBy, voidReason sql.NullString
	var voidedAt sql.NullTime
	err := row.Scan(&tx.ID, &tx.TenantID, &tx.TransactionNumber, &tx.Total, &tx.PaymentMethod,
		&tx.PaymentAmount, &tx.ChangeAmount, &paymentRef, &tx.Status, &voidedAt, &voidedBy,
		&voidReason, &tx.CreatedBy, &tx.CreatedByName, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	tx.PaymentReference = paymentRef.String
	tx.VoidedBy = voidedBy.String
	tx.VoidReason = voidReason.String
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		tx.VoidedAt = &at
	}
	tx.CreatedAt = tx.CreatedAt.UTC()
	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	transactions := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var invitedBy, inviteToken sql.NullString
	err := row.Scan(&user.ID, &user.TenantID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.Status, &invitedBy, &inviteToken, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.InvitedBy = invitedBy.String
	user.InviteToken = inviteToken.String
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func splitMethods(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	methods := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			methods = append(methods, p)
		}
	}
	return methods
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isRetryable reports serialization and deadlock failures, which postgres
// asks clients to retry.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
