package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the Graph subscription once",
	Long: `Refreshes the access token, verifies Graph access and then creates,
renews or (with ENABLE_SUBSCRIPTIONS=false) deletes the channel message
subscription.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Delete the stored Graph subscription",
	Args:  cobra.NoArgs,
	RunE:  runDrain,
}

var refreshTokenCmd = &cobra.Command{
	Use:   "refresh-token",
	Short: "Fetch a new access token and store it",
	Args:  cobra.NoArgs,
	RunE:  runRefreshToken,
}

func init() {
	rootCmd.AddCommand(syncCmd, drainCmd, refreshTokenCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Sync(cmd.Context()); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ subscription in sync")
	return nil
}

func runDrain(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()

	svc.Drain(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "✓ subscription drained")
	return nil
}

func runRefreshToken(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.RefreshToken(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ access token refreshed")
	return nil
}
