package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
	"github.com/bryanwahyu/newscheck/internal/format"
	"github.com/bryanwahyu/newscheck/internal/middleware"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var verdict, search string
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List stored analyses, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Service.History(cmd.Context(), verdict, middleware.SanitizeSearch(search))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if root.jsonOutput() {
				if records == nil {
					records = []*domain.Record{}
				}
				return writeJSON(out, records)
			}
			mode, err := root.tableMode()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No analyses found.")
				return nil
			}
			fmt.Fprintln(out, format.History(records, mode))
			return nil
		},
	}
	cmd.Flags().StringVar(&verdict, "verdict", "All", "Filter: All, Fake, Real or Uncertain")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive substring of the stored input")
	return cmd
}

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one analysis by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := middleware.ValidateRecordID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := a.Service.Delete(cmd.Context(), domain.ID(id))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: #%d", domain.ErrNotFound, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis #%d\n", id)
			return nil
		},
	}
}

var errNeedConfirm = errors.New("refusing to clear history without --yes")

func newClearCmd(root *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNeedConfirm
			}
			a, err := openApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Service.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d analyses\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the whole history")
	return cmd
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"dashboard"},
		Short:   "Show verdict distribution, average score and score histogram",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Service.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if root.jsonOutput() {
				return writeJSON(out, d)
			}
			mode, err := root.tableMode()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, format.Dashboard(d, mode))
			return nil
		},
	}
}
