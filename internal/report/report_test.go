package report

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikasir/backend/internal/domain"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{5, "Rp 5"},
		{999, "Rp 999"},
		{1000, "Rp 1.000"},
		{15000, "Rp 15.000"},
		{1234567, "Rp 1.234.567"},
		{1000000000, "Rp 1.000.000.000"},
		{-25000, "Rp -25.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRupiah(tc.amount), "amount %d", tc.amount)
	}
}

func TestFlattenItems(t *testing.T) {
	assert.Equal(t, "", FlattenItems(nil))
	assert.Equal(t, "Kopi Susu x2", FlattenItems([]domain.TransactionLine{
		{Name: "Kopi Susu", Qty: 2},
	}))
	assert.Equal(t, "Kopi Susu x2, Es Teh x1", FlattenItems([]domain.TransactionLine{
		{Name: "Kopi Susu", Qty: 2},
		{Name: "Es Teh", Qty: 1},
	}))
}

func TestExportCSVEmpty(t *testing.T) {
	out, err := ExportCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out, "no records means no header either")
}

func TestExportCSV(t *testing.T) {
	out, err := ExportCSV([]domain.ExportRow{
		{
			TransactionNumber: "202501150001",
			Date:              "2025-01-15",
			Time:              "09:15:00",
			Items:             "Kopi Susu x2, Es Teh x1",
			Total:             36000,
			PaymentMethod:     "cash",
			Status:            "completed",
			Cashier:           "Mas Kasir",
		},
		{
			TransactionNumber: "202501150002",
			Date:              "2025-01-15",
			Time:              "10:00:00",
			Items:             "Bakso x1",
			Total:             20000,
			PaymentMethod:     "qris",
			Status:            "voided",
			Cashier:           "Mas Kasir",
		},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"transaction_number", "date", "time", "items", "total", "payment_method", "status", "cashier",
	}, records[0])
	assert.Equal(t, []string{
		"202501150001", "2025-01-15", "09:15:00", "Kopi Susu x2, Es Teh x1", "36000", "cash", "completed", "Mas Kasir",
	}, records[1])
	assert.Equal(t, "voided", records[2][6])
}
