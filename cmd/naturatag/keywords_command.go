package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"naturatag/internal/catalog"
)

func newKeywordsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List species keywords recorded in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.ListKeywords(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				type keywordReport struct {
					Keyword    string `json:"keyword"`
					CommonName string `json:"common_name,omitempty"`
					LatinName  string `json:"latin_name,omitempty"`
					Photos     int    `json:"photos"`
				}
				report := make([]keywordReport, 0, len(summaries))
				for _, summary := range summaries {
					report = append(report, keywordReport{
						Keyword:    summary.Keyword,
						CommonName: summary.CommonName,
						LatinName:  summary.LatinName,
						Photos:     summary.PhotoCount,
					})
				}
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No keywords recorded yet. Run `naturatag identify` on a photo first.")
				return nil
			}

			headers := []string{"Keyword", "Latin Name", "Photos"}
			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rows = append(rows, []string{
					summary.Keyword,
					summary.LatinName,
					strconv.Itoa(summary.PhotoCount),
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))

			keywordCount, photoCount, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d keywords across %d photos\n", keywordCount, photoCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
