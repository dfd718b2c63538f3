// Package report renders ledger data into user-facing formats: rupiah
// currency strings and CSV export tables. Everything here is pure.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"aikasir/backend/internal/domain"
)

// FormatRupiah renders an integer rupiah amount with dot thousand
// separators, e.g. 1234567 -> "Rp 1.234.567".
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}

// FlattenItems joins transaction lines into a single export cell,
// e.g. "Kopi Susu x2, Es Teh x1".
func FlattenItems(lines []domain.TransactionLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d", line.Name, line.Qty))
	}
	return strings.Join(parts, ", ")
}

var exportHeader = []string{
	"transaction_number", "date", "time", "items", "total", "payment_method", "status", "cashier",
}

// ExportCSV renders export rows as a CSV table. The header row comes from
// the record field set; no records means no table at all, not a lone header.
func ExportCSV(rows []domain.ExportRow) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := []string{
			row.TransactionNumber,
			row.Date,
			row.Time,
			row.Items,
			strconv.FormatInt(row.Total, 10),
			row.PaymentMethod,
			row.Status,
			row.Cashier,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
