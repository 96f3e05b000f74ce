package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/types"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status [analysis-id]",
	Short: "Show an analysis, the latest one by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "List every analysis")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var id int64
	if len(args) == 1 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid analysis id %q", args[0])
		}
		id = n
	}

	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		client, err := a.Authenticated(ctx)
		if err != nil {
			return err
		}

		if statusAll {
			jobs, err := client.ListAnalyses(ctx)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				printer(cmd).PrintJob(nil)
			}
			for i := range jobs {
				printer(cmd).PrintJob(&jobs[i])
			}
			return nil
		}

		var job *types.AnalysisJob
		if id > 0 {
			job, err = client.FetchStatus(ctx, id)
		} else {
			job, err = client.LatestStatus(ctx)
			if errors.Is(err, api.ErrNotFound) {
				printer(cmd).PrintJob(nil)
				return nil
			}
		}
		if err != nil {
			return err
		}
		printJobDetails(cmd, a, job)
		return nil
	})
}
