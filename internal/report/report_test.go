package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

func TestWriteDashboard(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	d := &analytics.Dashboard{
		GeneratedAt: now,
		Summary: &analytics.LibraryStats{
			TotalBooks:      2,
			TotalCopies:     3,
			CopiesByStatus:  map[models.CopyStatus]int{models.CopyAvailable: 2, models.CopyBorrowed: 1},
			TotalMembers:    1,
			MembersByStatus: map[models.MemberStatus]int{models.MemberActive: 1},
			ActiveBorrows:   1,
			Overdue:         1,
			UnpaidFines:     decimal.RequireFromString("1.50"),
		},
		Alerts: analytics.Alerts{
			OverdueLoans: []analytics.OverdueLoan{{
				Loan: &models.Loan{
					Transaction: models.Transaction{ID: "tx-1", DueDate: now.AddDate(0, 0, -3)},
					MemberName:  "Ada",
					BookTitle:   "Dune",
					CopyNumber:  1,
				},
				DaysOverdue: 3,
			}},
		},
	}
	popular := []storage.PopularBook{
		{BookID: "b1", Title: "Dune", Author: "Frank Herbert", BorrowCount: 4, UniqueBorrowers: 2},
		{BookID: "b2", Title: "Emma", Author: "Jane Austen", BorrowCount: 1, UniqueBorrowers: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, d, popular))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, PopularSheet, OverdueSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Books", "2"}, summary[2])
	assert.Contains(t, summary, []string{"Copies borrowed", "1"})
	assert.Contains(t, summary, []string{"Unpaid fines", "1.5"})

	rows, err := f.GetRows(PopularSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Dune", "Frank Herbert", "4", "2"}, rows[1])

	rows, err = f.GetRows(OverdueSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tx-1", rows[1][0])
	assert.Equal(t, "3", rows[1][5])
}
