package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "pkce-client",
	Short: "OAuth 2.0 authorization code + PKCE client",
	Long: `pkce-client runs the authorization code flow with PKCE against a single provider
as a confidential client, and keeps the resulting tokens fresh.

Running without a subcommand starts the HTTP server.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to serve when no subcommand is given
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Suppress errors from being printed twice
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load before reading the environment (default: .env.local)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
