package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		client, err := a.Authenticated(ctx)
		if err != nil {
			return err
		}
		u, err := client.Me(ctx)
		if err != nil {
			return err
		}
		printer(cmd).PrintUser(u)
		return nil
	})
}
