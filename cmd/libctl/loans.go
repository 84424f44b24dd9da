package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/shelfkeeper/internal/circulation"
)

func newLoanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Check copies out and in",
	}
	cmd.AddCommand(newCheckoutCmd(a), newCheckinCmd(a), newRenewCmd(a))
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout MEMBER_ID COPY_ID",
		Short: "Lend a copy to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := a.circulation.Checkout(cmd.Context(), circulation.CheckoutRequest{
				MemberID: args[0],
				CopyID:   args[1],
				At:       time.Now(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s #%d due %s\n",
				loan.ID, loan.BookTitle, loan.CopyNumber, loan.DueDate.Format(time.DateOnly))
			return nil
		},
	}
}

func newCheckinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin TRANSACTION_ID",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.circulation.Checkin(cmd.Context(), circulation.CheckinRequest{
				TransactionID: args[0],
				At:            time.Now(),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s returned\n", res.Loan.ID)
			if res.Fine != nil {
				fmt.Fprintf(out, "Late fee %s (fine %s)\n", res.Fine.Amount.StringFixed(2), res.Fine.ID)
			}
			return nil
		},
	}
}

func newRenewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "renew TRANSACTION_ID",
		Short: "Extend a loan by one loan period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := a.circulation.Renew(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s due %s (renewal %d)\n",
				loan.ID, loan.DueDate.Format(time.DateOnly), loan.RenewalCount)
			return nil
		},
	}
}
