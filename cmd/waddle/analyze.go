package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/config"
	"github.com/MikeSquared-Agency/waddle/internal/history"
	"github.com/MikeSquared-Agency/waddle/internal/processor"
	"github.com/MikeSquared-Agency/waddle/internal/render"
)

func analyzeCmd() *cobra.Command {
	var (
		partner  int
		timezone string
		format   string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <export>",
		Short: "Rebuild the call history with one partner and chart it",
		Long: `Rebuilds the call table of the conversation at --partner (see "waddle partners")
and prints its charts. Times are shown in --timezone, or WADDLE_TIMEZONE when unset.`,
		Example: `  waddle analyze 8_me_export.tar --partner 3
  waddle analyze messages.json --partner 0 --timezone Europe/Berlin --format json
  waddle analyze messages.json --partner 0 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, closeLog := cliLogger(cfg)
			defer closeLog()

			convs, err := readExport(args[0])
			if err != nil {
				return err
			}

			var st processor.Store
			if save {
				db, err := history.Open(cfg.HistoryDB)
				if err != nil {
					return err
				}
				defer db.Close()
				st = db
			}

			proc := processor.New(st, nil, cfg.Timezone, logger)
			req := processor.Request{
				Source:        filepath.Base(args[0]),
				Conversations: convs,
				Partner:       partner,
				Timezone:      timezone,
			}

			// Progress goes to stderr and only when a person is watching.
			var bar *render.ProgressBar
			if f == render.FormatText && render.IsTerminal(os.Stderr) {
				bar = render.NewProgressBar(os.Stderr, "reading messages")
				req.Progress = bar.Update
			}

			a, err := proc.Analyze(cmd.Context(), req)
			if bar != nil {
				bar.Done()
			}
			if err != nil {
				var rerr *calls.ReconstructError
				if errors.As(err, &rerr) {
					return fmt.Errorf("could not build call history: %w", rerr.Err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if f == render.FormatText {
				if err := render.Analysis(out, a, render.Width(os.Stdout)); err != nil {
					return err
				}
				if save {
					fmt.Fprintf(out, "\nSaved as %s\n", a.ID)
				}
				return nil
			}
			return render.Encode(out, a, f)
		},
	}

	cmd.Flags().IntVarP(&partner, "partner", "p", -1, "Index of the conversation to analyze")
	cmd.Flags().StringVarP(&timezone, "timezone", "t", "", "IANA timezone for call times (default WADDLE_TIMEZONE)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text/json/yaml)")
	cmd.Flags().BoolVar(&save, "save", false, "Record the analysis in the local history")
	_ = cmd.MarkFlagRequired("partner")

	return cmd
}
