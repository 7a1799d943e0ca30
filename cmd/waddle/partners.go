package main

import (
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/waddle/internal/export"
	"github.com/MikeSquared-Agency/waddle/internal/render"
)

// partnerListing is the JSON/YAML shape of "waddle partners", matching the
// API's partner response.
type partnerListing struct {
	Partners []export.Partner `json:"partners"`
	Index    map[string]int   `json:"index"`
}

func partnersCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "partners <export>",
		Short: "List the conversations an analysis can pick from",
		Long:  `Reads a .json or .tar export and prints every selectable conversation with the index to pass to "waddle analyze --partner". System threads are left out.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			convs, err := readExport(args[0])
			if err != nil {
				return err
			}

			partners := export.Partners(convs)
			if f == render.FormatText {
				return render.Partners(cmd.OutOrStdout(), partners)
			}
			return render.Encode(cmd.OutOrStdout(), partnerListing{
				Partners: partners,
				Index:    export.PartnerIndex(partners),
			}, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text/json/yaml)")

	return cmd
}
