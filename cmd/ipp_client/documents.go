package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

var documentsAll bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents in the working set",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsAll, "all", false, "List every uploaded document, not just the working set")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		if documentsAll {
			client, err := a.Authenticated(ctx)
			if err != nil {
				return err
			}
			docs, err := client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			printer(cmd).PrintDocuments(docs)
			return nil
		}

		ctl, snap, err := a.Workspace(ctx)
		if err != nil {
			return err
		}
		defer ctl.Close()
		printer(cmd).PrintDocuments(snap.Documents)
		return nil
	})
}
