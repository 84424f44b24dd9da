package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/report"
)

func newSweepCmd(a *app) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Flag active loans past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				now = t
			}
			res, err := a.circulation.SweepOverdue(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transitioned, %d skipped\n", res.Transitioned, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep as of this RFC 3339 time instead of now")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print library-wide totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.analytics.LibraryStats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Books\t%d\n", st.TotalBooks)
			fmt.Fprintf(w, "Copies\t%d\n", st.TotalCopies)
			statuses := make([]string, 0, len(st.CopiesByStatus))
			for s := range st.CopiesByStatus {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				fmt.Fprintf(w, "  %s\t%d\n", s, st.CopiesByStatus[models.CopyStatus(s)])
			}
			fmt.Fprintf(w, "Members\t%d\n", st.TotalMembers)
			fmt.Fprintf(w, "Transactions\t%d\n", st.TotalTransactions)
			fmt.Fprintf(w, "Active borrows\t%d\n", st.ActiveBorrows)
			fmt.Fprintf(w, "Overdue\t%d\n", st.Overdue)
			fmt.Fprintf(w, "Unpaid fines\t%s\n", st.UnpaidFines.StringFixed(2))
			return w.Flush()
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var (
		out       string
		timeframe string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the dashboard and popularity ranking as an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := analytics.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			now := time.Now()

			d, err := a.analytics.Dashboard(ctx, now)
			if err != nil {
				return err
			}
			popular, err := a.analytics.PopularBooks(ctx, tf, analytics.MaxPopularLimit, now)
			if err != nil {
				return err
			}

			if out == "" {
				out = "library-report-" + now.UTC().Format(time.DateOnly) + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteDashboard(f, d, popular); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&timeframe, "timeframe", "month", "popularity window: week, month, quarter, year or all")
	return cmd
}
