package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/connections"
	"github.com/jonathan/ipp-client/internal/experience"
	"github.com/jonathan/ipp-client/internal/export"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write your progress and analysis to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "ipp-report.xlsx", "Output file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		client, err := a.Authenticated(ctx)
		if err != nil {
			return err
		}
		user, err := client.Me(ctx)
		if err != nil {
			return err
		}
		ctl, snap, err := a.Workspace(ctx)
		if err != nil {
			return err
		}
		defer ctl.Close()
		state, err := workflow.LoadStageState(ctx, a.Store)
		if err != nil {
			return err
		}

		r := export.Report{
			User:        user,
			Stage:       state.Stage,
			Documents:   snap.Documents,
			Job:         snap.Latest,
			GeneratedAt: time.Now(),
		}
		if snap.Latest != nil {
			r.Alignment, err = connections.Parse(snap.Latest.ConnectionsAnalysis, a.Logger)
			if err != nil {
				a.Logger.Warn("cli.export.alignment_skipped", "error", err)
			}
		}
		items, err := experience.Candidates(snap.Latest)
		var decodeErr *experience.DecodeError
		if errors.As(err, &decodeErr) {
			a.Logger.Warn("cli.export.experiences_skipped", "error", err)
		} else if err != nil {
			return err
		}
		r.Items = items
		r.Selection = experience.NewSelection(items)
		r.Selection.Restore(state.Selected, state.Elaborations)

		path, err := export.WriteFile(r, exportOut)
		if err != nil {
			return err
		}
		a.Logger.Info("cli.export.written", "path", path)
		_, _ = fmt.Fprintf(stdout(cmd), "Report written to %s\n", path)
		return nil
	})
}
