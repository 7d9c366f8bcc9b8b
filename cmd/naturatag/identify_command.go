package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"naturatag/internal/catalog"
	"naturatag/internal/export"
	"naturatag/internal/notifications"
	"naturatag/internal/photos"
	"naturatag/internal/tagging"
	"naturatag/internal/workflow"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var (
		observe    bool
		selectExpr string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "identify <photo> [photo...]",
		Short: "Identify species in photos and apply keywords",
		Long: `Exports each photo, submits it to the iNaturalist computer-vision scorer,
and lets you pick which candidate species to apply as keywords. With
--observe, a tagged photo is also submitted as an iNaturalist observation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client, tokens, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if valid, reason := tokens.Valid(); !valid {
				return fmt.Errorf("%s; run `naturatag token set` to save a fresh token", reason)
			}

			selector, interactive, err := resolveSelector(selectExpr)
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			exifTool, err := photos.NewExifTool()
			if err != nil {
				return fmt.Errorf("exiftool is required to read photo metadata: %w", err)
			}
			defer exifTool.Close()

			manager := workflow.NewManager(
				cfg,
				export.NewExporter(cfg, logger),
				client,
				exifTool,
				exifTool,
				store,
				selector,
				notifications.NewService(cfg),
				logger,
			)

			opts := workflow.Options{Observe: observe}
			if observe && interactive {
				opts.ConfirmObserve = observationPrompt(cmd)
			}

			batch := manager.ProcessBatch(cmd.Context(), args, opts)
			if jsonOutput {
				if err := writeJSON(cmd, batchReport(batch)); err != nil {
					return err
				}
			} else {
				printBatch(cmd, batch)
			}

			if batch.Failed > 0 {
				return fmt.Errorf("%d of %d photos failed", batch.Failed, len(batch.Results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&observe, "observe", false, "Submit tagged photos as iNaturalist observations")
	cmd.Flags().StringVar(&selectExpr, "select", "", `Non-interactive selection: "all", "top", "none", or 1-based positions like "1,3"`)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// resolveSelector picks the interactive picker on a terminal, and demands an
// explicit --select expression everywhere else.
func resolveSelector(selectExpr string) (tagging.Selector, bool, error) {
	if strings.TrimSpace(selectExpr) != "" {
		return tagging.StaticSelector{Expression: selectExpr}, false, nil
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return tagging.TerminalSelector{}, true, nil
	}
	return nil, false, fmt.Errorf("stdout is not a terminal; pass --select to choose candidates non-interactively")
}

// observationPrompt asks for confirmation before each observation is
// submitted. Anything other than y/yes declines.
func observationPrompt(cmd *cobra.Command) func(photo, speciesGuess string) bool {
	reader := bufio.NewReader(cmd.InOrStdin())
	return func(photo, speciesGuess string) bool {
		fmt.Fprintf(cmd.OutOrStdout(), "Submit %s as an observation of %q? [y/N] ", photo, speciesGuess)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func printBatch(cmd *cobra.Command, batch workflow.BatchResult) {
	out := cmd.OutOrStdout()

	headers := []string{"Photo", "Keywords", "Observed", "Status"}
	rows := make([][]string, 0, len(batch.Results))
	for _, result := range batch.Results {
		status := "tagged"
		switch {
		case result.Err != nil:
			status = "failed: " + result.Err.Error()
		case result.Skipped:
			status = "skipped: " + result.SkipReason
		}
		rows = append(rows, []string{
			result.Photo,
			strings.Join(result.Keywords, ", "),
			yesNo(result.Observed),
			status,
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, nil))
	fmt.Fprintf(out, "%d tagged, %d skipped, %d failed in %s\n",
		batch.Processed, batch.Skipped, batch.Failed, batch.Duration.Round(batchDurationUnit))
}

type photoReport struct {
	Photo        string   `json:"photo"`
	Keywords     []string `json:"keywords,omitempty"`
	Observed     bool     `json:"observed"`
	SpeciesGuess string   `json:"species_guess,omitempty"`
	Skipped      bool     `json:"skipped,omitempty"`
	SkipReason   string   `json:"skip_reason,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type runReport struct {
	RunID     string        `json:"run_id"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  string        `json:"duration"`
	Photos    []photoReport `json:"photos"`
}

func batchReport(batch workflow.BatchResult) runReport {
	report := runReport{
		RunID:     batch.RunID,
		Processed: batch.Processed,
		Skipped:   batch.Skipped,
		Failed:    batch.Failed,
		Duration:  batch.Duration.Round(batchDurationUnit).String(),
	}
	for _, result := range batch.Results {
		photo := photoReport{
			Photo:        result.Photo,
			Keywords:     result.Keywords,
			Observed:     result.Observed,
			SpeciesGuess: result.SpeciesGuess,
			Skipped:      result.Skipped,
			SkipReason:   result.SkipReason,
		}
		if result.Err != nil {
			photo.Error = result.Err.Error()
		}
		report.Photos = append(report.Photos, photo)
	}
	return report
}
