package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the stored token for a fresh one",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		s, err := a.Session.Refresh(ctx)
		if err != nil {
			return err
		}
		if s.Expiry.IsZero() {
			_, _ = fmt.Fprintln(stdout(cmd), "Session refreshed.")
			return nil
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Session refreshed, valid until %s.\n", s.Expiry.Local().Format(time.DateTime))
		return nil
	})
}
