package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		var notify func(context.Context) error
		if client, err := a.Authenticated(ctx); err == nil {
			notify = client.Logout
		}
		if err := a.Session.Logout(ctx, notify); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout(cmd), "Signed out.")
		return nil
	})
}
