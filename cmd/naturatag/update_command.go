package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"naturatag/internal/update"
	"naturatag/internal/version"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var openPage bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			checker := update.NewChecker(cfg, logger)
			result, err := checker.Check(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current version: %s\n", result.Current)
			fmt.Fprintf(out, "Latest release:  %s\n", result.Latest.TagName)

			switch result.Status {
			case version.StatusOutdated:
				fmt.Fprintln(out, "A newer release is available.")
				for _, asset := range result.Latest.Assets {
					fmt.Fprintf(out, "  %s\n", asset.DownloadURL)
				}
				if openPage {
					if err := checker.OpenReleasePage(result.Latest); err != nil {
						return err
					}
					fmt.Fprintln(out, "Opened the release page in your browser.")
				}
			case version.StatusUpToDate:
				fmt.Fprintln(out, "You are running the latest release.")
			case version.StatusNewer:
				fmt.Fprintln(out, "You are ahead of the latest published release.")
			default:
				fmt.Fprintln(out, "Could not compare versions; check the releases page manually.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&openPage, "open", false, "Open the release page when an update exists")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the naturatag version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Current)
		},
	}
}
