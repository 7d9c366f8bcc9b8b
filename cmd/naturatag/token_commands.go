package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"naturatag/internal/services/inaturalist"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the iNaturalist API token",
		Long: `iNaturalist API tokens are pasted from the website and stay valid for 24
hours. "token renew" opens the token page in your browser; "token set"
saves the pasted token.`,
	}

	tokenCmd.AddCommand(newTokenSetCommand(ctx))
	tokenCmd.AddCommand(newTokenStatusCommand(ctx))
	tokenCmd.AddCommand(newTokenRenewCommand(ctx))
	tokenCmd.AddCommand(newTokenVerifyCommand(ctx))

	return tokenCmd
}

func newTokenSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Save an API token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "Paste API token: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			tokens, err := ctx.tokenManager()
			if err != nil {
				return err
			}
			if err := tokens.Save(token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved; valid for %s\n", inaturalist.TokenLifetime)
			return nil
		},
	}
}

func newTokenStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show token freshness",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := ctx.tokenManager()
			if err != nil {
				return err
			}

			valid, reason := tokens.Valid()
			age, hasToken := tokens.Age()

			if jsonOutput {
				status := map[string]any{
					"valid":  valid,
					"saved":  hasToken,
					"window": inaturalist.TokenLifetime.String(),
				}
				if hasToken {
					status["age"] = age.Round(time.Second).String()
				}
				if !valid {
					status["reason"] = reason
				}
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token saved: %s\n", yesNo(hasToken))
			if hasToken {
				fmt.Fprintf(out, "Token age:   %s (window %s)\n", age.Round(time.Second), inaturalist.TokenLifetime)
			}
			fmt.Fprintf(out, "Token valid: %s\n", yesNo(valid))
			if !valid {
				fmt.Fprintf(out, "Reason:      %s\n", reason)
				fmt.Fprintln(out, "Run `naturatag token renew` to fetch a fresh token.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newTokenRenewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Open the iNaturalist token page in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			url := cfg.INaturalist.TokenURL
			if err := browser.OpenURL(url); err != nil {
				return fmt.Errorf("open %s: %w", url, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\nCopy the token and run `naturatag token set`.\n", url)
			return nil
		},
	}
}

func newTokenVerifyCommand(ctx *commandContext) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the saved token",
		Long: `Without --live the check is local: the token counts as valid for 24 hours
after it was saved. With --live the token is tested against the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !live {
				tokens, err := ctx.tokenManager()
				if err != nil {
					return err
				}
				valid, reason := tokens.Valid()
				if !valid {
					return fmt.Errorf("token invalid: %s", reason)
				}
				fmt.Fprintln(out, "Token valid (local check)")
				return nil
			}

			client, _, err := ctx.apiClient()
			if err != nil {
				return err
			}
			login, err := client.VerifyToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Token valid; authenticated as %s\n", login)
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Verify against the iNaturalist API")
	return cmd
}
