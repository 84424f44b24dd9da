package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/shelfkeeper/internal/catalog"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalog",
	}
	cmd.AddCommand(newBookAddCmd(a), newBookListCmd(a), newBookCopiesCmd(a))
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var (
		in     catalog.NewBook
		copies int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Catalogue a book and its copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if copies < 0 {
				return fmt.Errorf("--copies cannot be negative")
			}
			ctx := cmd.Context()
			book, err := a.catalog.AddBook(ctx, in)
			if err != nil {
				return err
			}
			for i := 0; i < copies; i++ {
				if _, err := a.catalog.AddCopy(ctx, book.ID, models.ConditionGood); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%d copies)\n", book.ID, book.Title, copies)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "title")
	f.StringVar(&in.Author, "author", "", "author")
	f.StringVar(&in.ISBN, "isbn", "", "ISBN")
	f.StringVar(&in.Genre, "genre", "", "genre")
	f.IntVar(&in.PublicationYear, "year", 0, "publication year")
	f.IntVar(&copies, "copies", 1, "number of copies to add")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("author")
	return cmd
}

func newBookListCmd(a *app) *cobra.Command {
	var filter storage.BookFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.catalog.ListBooks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tISBN")
			for _, b := range books {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.ISBN)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "match title, author or ISBN")
	cmd.Flags().StringVar(&filter.Genre, "genre", "", "only this genre")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum rows")
	return cmd
}

func newBookCopiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copies BOOK_ID",
		Short: "List the copies of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copies, err := a.catalog.ListCopies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tCONDITION")
			for _, c := range copies {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.ID, c.CopyNumber, c.Status, c.Condition)
			}
			return w.Flush()
		},
	}
}
