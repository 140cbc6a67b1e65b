package main

import (
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/kalado/authentication/internal/infrastructure/config"
)

func newAllowlistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "allowlist",
		Short: "Print the emails allowed to self-register as ADMIN or GOD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(cmd.Context(), envconfig.OsLookuper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			allow := cfg.BuildAllowlist()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ADMIN: %s\n", orNone(allow.AdminEmails()))
			fmt.Fprintf(out, "GOD:   %s\n", orNone(allow.GodEmails()))
			return nil
		},
	}
}

func orNone(emails []string) string {
	if len(emails) == 0 {
		return "(none)"
	}
	return strings.Join(emails, ", ")
}
