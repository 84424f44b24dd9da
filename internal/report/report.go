// Package report renders analytics as an xlsx workbook.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// Sheet names, in workbook order.
const (
	SummarySheet = "Summary"
	PopularSheet = "Popular"
	OverdueSheet = "Overdue"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteDashboard writes a workbook with the dashboard summary, the popular
// books ranking and the overdue loans to w.
func WriteDashboard(w io.Writer, d *analytics.Dashboard, popular []storage.PopularBook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{PopularSheet, OverdueSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, d, bold); err != nil {
		return err
	}
	if err := writePopular(f, popular, bold); err != nil {
		return err
	}
	if err := writeOverdue(f, d.Alerts.OverdueLoans, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, d *analytics.Dashboard, bold int) error {
	s := d.Summary
	rows := [][]any{
		{"Metric", "Value"},
		{"Generated at", d.GeneratedAt.Format(timeLayout)},
		{"Books", s.TotalBooks},
		{"Copies", s.TotalCopies},
		{"Members", s.TotalMembers},
		{"Transactions", s.TotalTransactions},
		{"Active borrows", s.ActiveBorrows},
		{"Overdue", s.Overdue},
		{"Unpaid fines", s.UnpaidFines.InexactFloat64()},
	}

	rows = append(rows, countRows("Copies ", s.CopiesByStatus)...)
	rows = append(rows, countRows("Members ", s.MembersByStatus)...)
	rows = append(rows,
		[]any{"Members at limit", len(d.Alerts.MembersAtLimit)},
		[]any{"Copies in maintenance", len(d.Alerts.CopiesInMaintenance)},
	)

	return writeRows(f, SummarySheet, rows, bold)
}

func writePopular(f *excelize.File, popular []storage.PopularBook, bold int) error {
	rows := [][]any{{"Rank", "Title", "Author", "Borrows", "Distinct borrowers"}}
	for i, b := range popular {
		rows = append(rows, []any{i + 1, b.Title, b.Author, b.BorrowCount, b.UniqueBorrowers})
	}
	return writeRows(f, PopularSheet, rows, bold)
}

func writeOverdue(f *excelize.File, loans []analytics.OverdueLoan, bold int) error {
	rows := [][]any{{"Transaction", "Member", "Title", "Copy", "Due", "Days overdue"}}
	for _, l := range loans {
		rows = append(rows, []any{
			l.ID, l.MemberName, l.BookTitle, l.CopyNumber, l.DueDate.Format(timeLayout), l.DaysOverdue,
		})
	}
	return writeRows(f, OverdueSheet, rows, bold)
}

// writeRows writes rows from A1 down and bolds the first one.
func writeRows(f *excelize.File, sheet string, rows [][]any, bold int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, bold)
}

// countRows renders a status count map as rows sorted by status.
func countRows[K ~string](prefix string, m map[K]int) [][]any {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{prefix + string(k), m[k]}
	}
	return rows
}
