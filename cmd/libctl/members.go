package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/shelfkeeper/internal/membership"
	"github.com/mmynk/shelfkeeper/internal/models"
)

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members",
	}
	cmd.AddCommand(newMemberAddCmd(a), newMemberListCmd(a), newMemberStatusCmd(a), newMemberSetStatusCmd(a))
	return cmd
}

func newMemberAddCmd(a *app) *cobra.Command {
	var in membership.NewMember
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.members.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s <%s> max %d\n", m.ID, m.Name, m.Email, m.MaxBooks)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.IntVar(&in.MaxBooks, "max-books", 0, "borrowing limit (default 3)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newMemberListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := a.members.ListMembers(cmd.Context(), models.MemberStatus(status))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS\tMAX")
			for _, m := range members {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", m.ID, m.Name, m.Email, m.Status, m.MaxBooks)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only members with this status")
	return cmd
}

func newMemberStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status MEMBER_ID",
		Short: "Show what a member has out and whether they may borrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			st, err := a.members.Status(cmd.Context(), args[0], now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", st.Member.Name, st.Member.Status)
			fmt.Fprintf(out, "Borrowed: %d/%d, overdue: %d, outstanding fines: %s\n",
				st.CurrentBorrowed, st.MaxBooks, st.OverdueCount, st.Outstanding.StringFixed(2))
			if st.CanBorrow {
				fmt.Fprintln(out, "Can borrow: yes")
			} else {
				fmt.Fprintf(out, "Can borrow: no (%s)\n", strings.Join(st.Reasons, ", "))
			}
			for _, l := range st.ActiveTransactions {
				fmt.Fprintf(out, "  %s\t%s #%d\tdue %s\n", l.ID, l.BookTitle, l.CopyNumber, l.DueDate.Format(time.DateOnly))
			}
			return nil
		},
	}
}

func newMemberSetStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "set-status MEMBER_ID STATUS",
		Short:     "Suspend, expire or reactivate a member",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.MemberActive), string(models.MemberSuspended), string(models.MemberExpired)},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.members.UpdateStatus(cmd.Context(), args[0], models.MemberStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", m.Name, m.Status)
			return nil
		},
	}
}
