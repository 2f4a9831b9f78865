package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired pending flows once",
	Long: `Delete pending authorization flows whose state has expired.
Only useful with a SQL store; the in-memory store starts empty.`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) (err error) {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.close()) }()

	purged, err := flowstate.PurgeExpired(cmd.Context(), a.flows, time.Now())
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired pending flows\n", purged)
	return nil
}
