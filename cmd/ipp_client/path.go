package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var pathCmd = &cobra.Command{
	Use:   "path [exploration|interview]",
	Short: "Show or choose your journey",
	Long:  "Without an argument, prints the chosen journey. With one, stores it: exploration for open-ended career reflection, interview for preparing a specific application.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPath,
}

func init() {
	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		if len(args) == 0 {
			p, err := a.SelectedPath(ctx)
			if err != nil {
				return err
			}
			if p == "" {
				_, _ = fmt.Fprintln(stdout(cmd), "No path chosen yet.")
				return nil
			}
			_, _ = fmt.Fprintf(stdout(cmd), "Path: %s\n", p)
			return nil
		}

		p, err := workflow.ParsePath(args[0])
		if err != nil {
			return err
		}
		if err := workflow.SelectPath(ctx, a.Store, p); err != nil {
			return err
		}
		a.Logger.Info("cli.path.selected", "path", string(p))
		_, _ = fmt.Fprintf(stdout(cmd), "Path set to %s.\n", p)
		return nil
	})
}
