package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/store"
)

const dayKeyLayout = "20060102"

// DayKey returns the UTC calendar day bucket a timestamp falls into.
// Transaction numbers, sequence rows, and report filters all share it.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// FormatTransactionNumber builds YYYYMMDD + zero-padded daily sequence.
// The pad is 4 digits; past 9999 the number simply grows a digit, which
// keeps the 8-character day prefix intact for report filtering.
func FormatTransactionNumber(dayKey string, seq int64) string {
	return fmt.Sprintf("%s%04d", dayKey, seq)
}

func validPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer:
		return true
	}
	return false
}

// CreateTransaction prices the cart against the current catalog, settles the
// payment, allocates a transaction number, and persists the record. The
// stored lines are snapshots; the total never changes afterwards.
func (s *Service) CreateTransaction(ctx context.Context, req domain.TransactionCreateRequest) (*domain.TransactionDetail, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: cart must not be empty", ErrInvalidArgument)
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidArgument, req.PaymentMethod)
	}

	lines := make([]domain.TransactionLine, 0, len(req.Items))
	var total int64
	for _, cartLine := range req.Items {
		if cartLine.Qty < 1 {
			return nil, fmt.Errorf("%w: qty must be at least 1", ErrInvalidArgument)
		}
		item, err := s.repo.GetItem(ctx, principal.TenantID, cartLine.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("item %s: %w", cartLine.ItemID, store.ErrNotFound)
			}
			return nil, err
		}
		if !item.IsActive {
			return nil, fmt.Errorf("item %s: %w", cartLine.ItemID, store.ErrNotFound)
		}

		subtotal := item.Price * int64(cartLine.Qty)
		lines = append(lines, domain.TransactionLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Qty:      cartLine.Qty,
			Price:    item.Price,
			Subtotal: subtotal,
		})
		total += subtotal
	}

	paymentAmount := req.PaymentAmount
	var change int64
	if req.PaymentMethod == domain.PaymentCash {
		if paymentAmount < total {
			return nil, fmt.Errorf("%w: received %d, total is %d", ErrInsufficientPayment, paymentAmount, total)
		}
		change = paymentAmount - total
	} else {
		// QRIS and transfer settle for the exact amount; an understated
		// payment_amount is normalized up, never rejected.
		change = 0
		if paymentAmount < total {
			paymentAmount = total
		}
	}

	now := nowUTC()
	dayKey := DayKey(now)

	// Allocation and insert are separate statements, so an insert clash
	// (another writer won the same number) burns the sequence value and
	// allocates a fresh one. Gaps are fine; duplicates are not.
	const attempts = 3
	var created *domain.Transaction
	for i := 0; i < attempts; i++ {
		seq, err := s.repo.NextDailySequence(ctx, principal.TenantID, dayKey)
		if err != nil {
			return nil, err
		}

		created, err = s.repo.CreateTransaction(ctx, domain.Transaction{
			TenantID:          principal.TenantID,
			TransactionNumber: FormatTransactionNumber(dayKey, seq),
			Items:             lines,
			Total:             total,
			PaymentMethod:     req.PaymentMethod,
			PaymentAmount:     paymentAmount,
			ChangeAmount:      change,
			PaymentReference:  strings.TrimSpace(req.PaymentReference),
			Status:            domain.TxStatusCompleted,
			CreatedBy:         principal.UserID,
			CreatedByName:     principal.Name,
			CreatedAt:         now,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		created = nil
	}
	if created == nil {
		return nil, fmt.Errorf("%w: transaction number allocation kept colliding", store.ErrUnavailable)
	}

	s.log.Info().
		Str("tenant_id", principal.TenantID).
		Str("transaction_number", created.TransactionNumber).
		Int64("total", created.Total).
		Str("payment_method", created.PaymentMethod).
		Msg("transaction recorded")

	return &domain.TransactionDetail{
		Transaction: *created,
		Receipt:     s.receiptFor(ctx, principal.TenantID),
	}, nil
}

// VoidTransaction marks a completed transaction voided. Owner only, reason
// required, and voided is terminal: a second void is a state conflict, and
// there is no way back to completed.
func (s *Service) VoidTransaction(ctx context.Context, transactionID string, reason string) (*domain.Transaction, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: void reason is required", ErrInvalidArgument)
	}

	voided, err := s.repo.VoidTransaction(ctx, principal.TenantID, transactionID, principal.UserID, reason, nowUTC())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyVoided
		}
		return nil, err
	}

	s.log.Info().
		Str("tenant_id", principal.TenantID).
		Str("transaction_number", voided.TransactionNumber).
		Str("voided_by", principal.UserID).
		Msg("transaction voided")

	return voided, nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*domain.TransactionDetail, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.GetTransaction(ctx, principal.TenantID, transactionID)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionDetail{
		Transaction: *tx,
		Receipt:     s.receiptFor(ctx, principal.TenantID),
	}, nil
}

// ListTransactions pages the tenant ledger, newest first. A date filter
// ("2006-01-02") selects by transaction number day prefix.
func (s *Service) ListTransactions(ctx context.Context, date string, limit int, offset int) (*domain.TransactionPage, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	var dayKey string
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
		}
		dayKey = parsed.Format(dayKeyLayout)
	}

	transactions, total, err := s.repo.ListTransactions(ctx, principal.TenantID, store.TransactionFilter{
		DayKey: dayKey,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	return &domain.TransactionPage{Transactions: transactions, Total: total}, nil
}
