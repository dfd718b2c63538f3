package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aikasir/backend/internal/domain"
	"aikasir/backend/internal/report"
)

const reportDateLayout = "2006-01-02"

func parseReportDate(value string) (string, error) {
	parsed, err := time.Parse(reportDateLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
	}
	return parsed.Format(dayKeyLayout), nil
}

// SummaryReport aggregates completed transactions over a date range. Day
// membership is decided by the transaction number prefix, not created_at:
// a sale numbered into a day belongs to that day no matter when the row
// landed. Figures are recomputed from the ledger on every call.
func (s *Service) SummaryReport(ctx context.Context, startDate string, endDate string) (*domain.SummaryReport, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	if startDate == "" {
		startDate = nowUTC().Format(reportDateLayout)
	}
	if endDate == "" {
		endDate = startDate
	}
	startKey, err := parseReportDate(startDate)
	if err != nil {
		return nil, err
	}
	endKey, err := parseReportDate(endDate)
	if err != nil {
		return nil, err
	}
	if startKey > endKey {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidArgument)
	}

	transactions, err := s.repo.ListTransactionsByDayRange(ctx, principal.TenantID, startKey, endKey)
	if err != nil {
		return nil, err
	}

	var totalSales int64
	var totalItemsSold int
	completedCount := 0
	breakdown := make(map[string]domain.PaymentBucket)
	itemStats := make(map[string]*domain.ItemStat)
	dailySales := make(map[string]domain.DailyBucket)

	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		completedCount++
		totalSales += tx.Total

		bucket := breakdown[tx.PaymentMethod]
		bucket.Count++
		bucket.Amount += tx.Total
		breakdown[tx.PaymentMethod] = bucket

		for _, line := range tx.Items {
			stat, ok := itemStats[line.Name]
			if !ok {
				stat = &domain.ItemStat{Name: line.Name}
				itemStats[line.Name] = stat
			}
			stat.Qty += line.Qty
			stat.Revenue += line.Subtotal
			totalItemsSold += line.Qty
		}

		day := formatDayKey(tx.TransactionNumber[:8])
		daily := dailySales[day]
		daily.Transactions++
		daily.Amount += tx.Total
		dailySales[day] = daily
	}

	var avg int64
	if completedCount > 0 {
		avg = totalSales / int64(completedCount)
	}

	return &domain.SummaryReport{
		Period: domain.ReportPeriod{StartDate: startDate, EndDate: endDate},
		Summary: domain.SummaryTotals{
			TotalSales:          totalSales,
			TotalSalesFormatted: report.FormatRupiah(totalSales),
			TotalTransactions:   completedCount,
			TotalItemsSold:      totalItemsSold,
			AvgTransaction:      avg,
		},
		PaymentBreakdown: breakdown,
		TopItems:         topItemsByRevenue(itemStats, 10),
		DailySales:       dailySales,
	}, nil
}

// DailyReport covers a single day for both statuses: completed sales feed
// the totals, voided ones are counted and summed separately so the day
// reconciles against the full ledger.
func (s *Service) DailyReport(ctx context.Context, date string) (*domain.DailyReport, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	if date == "" {
		date = nowUTC().Format(reportDateLayout)
	}
	dayKey, err := parseReportDate(date)
	if err != nil {
		return nil, err
	}

	transactions, err := s.repo.ListTransactionsByDayRange(ctx, principal.TenantID, dayKey, dayKey)
	if err != nil {
		return nil, err
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})

	var totalSales, voidedAmount int64
	completedCount, voidedCount := 0, 0
	for _, tx := range transactions {
		switch tx.Status {
		case domain.TxStatusCompleted:
			completedCount++
			totalSales += tx.Total
		case domain.TxStatusVoided:
			voidedCount++
			voidedAmount += tx.Total
		}
	}

	return &domain.DailyReport{
		Date: date,
		Summary: domain.DailyTotals{
			TotalSales:          totalSales,
			TotalSalesFormatted: report.FormatRupiah(totalSales),
			TotalTransactions:   completedCount,
			TotalVoided:         voidedCount,
			VoidedAmount:        voidedAmount,
		},
		Transactions: transactions,
	}, nil
}

// DashboardToday is the landing widget: today's completed sales and the
// top 5 items by quantity sold.
func (s *Service) DashboardToday(ctx context.Context) (*domain.DashboardToday, error) {
	principal, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	dayKey := DayKey(now)
	transactions, err := s.repo.ListTransactionsByDayRange(ctx, principal.TenantID, dayKey, dayKey)
	if err != nil {
		return nil, err
	}

	var totalSales int64
	var totalItemsSold int
	completedCount := 0
	itemStats := make(map[string]*domain.ItemStat)
	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		completedCount++
		totalSales += tx.Total
		for _, line := range tx.Items {
			stat, ok := itemStats[line.Name]
			if !ok {
				stat = &domain.ItemStat{Name: line.Name}
				itemStats[line.Name] = stat
			}
			stat.Qty += line.Qty
			stat.Revenue += line.Subtotal
			totalItemsSold += line.Qty
		}
	}

	return &domain.DashboardToday{
		Date:                now.Format(reportDateLayout),
		TotalSales:          totalSales,
		TotalSalesFormatted: report.FormatRupiah(totalSales),
		TotalTransactions:   completedCount,
		TotalItemsSold:      totalItemsSold,
		TopItems:            topItemsByQty(itemStats, 5),
	}, nil
}

// ExportRows flattens every transaction in the range, voided included, one
// row per transaction.
func (s *Service) ExportRows(ctx context.Context, startDate string, endDate string) (*domain.ExportReport, error) {
	principal, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	if startDate == "" {
		startDate = nowUTC().Format(reportDateLayout)
	}
	if endDate == "" {
		endDate = startDate
	}
	startKey, err := parseReportDate(startDate)
	if err != nil {
		return nil, err
	}
	endKey, err := parseReportDate(endDate)
	if err != nil {
		return nil, err
	}

	transactions, err := s.repo.ListTransactionsByDayRange(ctx, principal.TenantID, startKey, endKey)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ExportRow, 0, len(transactions))
	for _, tx := range transactions {
		createdAt := tx.CreatedAt.UTC()
		rows = append(rows, domain.ExportRow{
			TransactionNumber: tx.TransactionNumber,
			Date:              createdAt.Format(reportDateLayout),
			Time:              createdAt.Format("15:04:05"),
			Items:             report.FlattenItems(tx.Items),
			Total:             tx.Total,
			PaymentMethod:     tx.PaymentMethod,
			Status:            tx.Status,
			Cashier:           tx.CreatedByName,
		})
	}

	return &domain.ExportReport{
		Format:       "json",
		Period:       domain.ReportPeriod{StartDate: startDate, EndDate: endDate},
		TotalRecords: len(rows),
		Data:         rows,
	}, nil
}

func topItemsByRevenue(stats map[string]*domain.ItemStat, limit int) []domain.ItemStat {
	return topItems(stats, limit, func(a, b domain.ItemStat) bool {
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
}

func topItemsByQty(stats map[string]*domain.ItemStat, limit int) []domain.ItemStat {
	return topItems(stats, limit, func(a, b domain.ItemStat) bool {
		if a.Qty != b.Qty {
			return a.Qty > b.Qty
		}
		return a.Name < b.Name
	})
}

func topItems(stats map[string]*domain.ItemStat, limit int, less func(a, b domain.ItemStat) bool) []domain.ItemStat {
	items := make([]domain.ItemStat, 0, len(stats))
	for _, stat := range stats {
		items = append(items, *stat)
	}
	sort.Slice(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// formatDayKey turns "20250115" into "2025-01-15".
func formatDayKey(dayKey string) string {
	if len(dayKey) != 8 {
		return dayKey
	}
	return dayKey[:4] + "-" + dayKey[4:6] + "-" + dayKey[6:8]
}
