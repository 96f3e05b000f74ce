package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

var discardCmd = &cobra.Command{
	Use:   "discard resume|job",
	Short: "Drop a document from the working set",
	Long:  "Removes the resume or job description from the working set so a different one can be uploaded. The uploaded copy stays on the server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscard,
}

func init() {
	rootCmd.AddCommand(discardCmd)
}

func runDiscard(cmd *cobra.Command, args []string) error {
	docType, err := parseDocType(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		ctl, _, err := a.Workspace(ctx)
		if err != nil {
			return err
		}
		defer ctl.Close()

		if !ctl.Discard(docType) {
			_, _ = fmt.Fprintf(stdout(cmd), "No %s in the working set.\n", docType.Label())
			return nil
		}
		if err := a.SaveWorkspace(ctx, ctl); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "%s discarded.\n", docType.Label())
		return nil
	})
}
