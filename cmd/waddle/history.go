package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/waddle/internal/config"
	"github.com/MikeSquared-Agency/waddle/internal/history"
	"github.com/MikeSquared-Agency/waddle/internal/render"
)

func historyCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List analyses saved with --save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if f == render.FormatText {
				return render.History(cmd.OutOrStdout(), entries)
			}
			return render.Encode(cmd.OutOrStdout(), entries, f)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max entries")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text/json/yaml)")

	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid analysis id %q: %w", args[0], err)
			}
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := db.GetAnalysis(cmd.Context(), id)
			if err != nil {
				return err
			}
			if f == render.FormatText {
				return render.Analysis(cmd.OutOrStdout(), a, render.Width(os.Stdout))
			}
			return render.Encode(cmd.OutOrStdout(), a, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text/json/yaml)")

	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Forget a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid analysis id %q: %w", args[0], err)
			}
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteAnalysis(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func openHistory() (*history.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryDB)
}
