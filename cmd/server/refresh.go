package main

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-pkce-client/server"
	"github.com/spf13/cobra"
)

var refreshUserID string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the stored tokens of a user",
	Long: `Refresh the stored tokens of a user through the token endpoint, regardless of their
expiry, and save the result. The refresh token rotation policy comes from REFRESH_ROTATION.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshUserID, "user", "u", "", "User id whose tokens to refresh (required)")
	_ = refreshCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) (err error) {
	if refreshUserID == "" {
		return errors.New("--user is required")
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.close()) }()

	s, err := server.New(a.config, a.flows, a.tokens)
	if err != nil {
		return err
	}
	ts, err := s.Manager().ForceRefresh(cmd.Context(), refreshUserID)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", refreshUserID, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "refreshed tokens for %s\n", refreshUserID)
	if expiresAt, ok := ts.ExpiresAt(); ok {
		fmt.Fprintf(out, "access token expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
	}
	if ts.RefreshToken == "" {
		fmt.Fprintln(out, "no refresh token retained; the user must authorize again when this access token expires")
	}
	return nil
}
