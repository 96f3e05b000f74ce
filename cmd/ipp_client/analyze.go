package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/connections"
	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/poller"
	"github.com/jonathan/ipp-client/internal/tui"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var (
	analyzeKind    string
	analyzeStage   string
	analyzeWatch   bool
	analyzeNoWait  bool
	analyzeTimeout time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Start an analysis of the working set and follow its progress",
	Long: `Starts an analysis of the documents in the working set and polls it until it completes or fails.

Kinds:
  full    resume against job description (default when both are uploaded)
  resume  resume only (default when no job description is uploaded)
  job     add the job description to the latest resume analysis`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeKind, "kind", "", "Analysis kind: full, resume or job")
	analyzeCmd.Flags().StringVar(&analyzeStage, "stage", string(gate.StageContext), "Stage the analysis belongs to")
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "Show an interactive progress view")
	analyzeCmd.Flags().BoolVar(&analyzeNoWait, "no-wait", false, "Start the analysis and return immediately")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "Stop waiting after this long (0 waits indefinitely)")
	analyzeCmd.MarkFlagsMutuallyExclusive("watch", "no-wait")
	rootCmd.AddCommand(analyzeCmd)
}

// defaultKind picks full when both documents are present and resume otherwise.
func defaultKind(ctl *workflow.Controller) types.AnalysisKind {
	if ctl.Document(types.DocumentTypeJobDescription) != nil && ctl.Document(types.DocumentTypeResume) != nil {
		return types.AnalysisFull
	}
	return types.AnalysisResume
}

// progressLines prints one line per new step.
func progressLines(w io.Writer) func(poller.Update) {
	var (
		mu   sync.Mutex
		last string
	)
	return func(u poller.Update) {
		mu.Lock()
		defer mu.Unlock()
		if u.Step == last {
			return
		}
		last = u.Step
		label := u.Step
		if i := types.ProgressIndex(u.Step, u.Status); i >= 0 {
			label = types.ProgressSteps[i].Label
		}
		_, _ = fmt.Fprintf(w, "  %3.0f%%  %s\n", u.Percent, label)
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	stage, err := gate.ParseStage(analyzeStage)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		if analyzeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
			defer cancel()
		}

		var prog atomic.Pointer[tui.Program]
		lines := progressLines(os.Stderr)
		onUpdate := func(u poller.Update) {
			if analyzeWatch {
				if p := prog.Load(); p != nil {
					p.Notify(u)
				}
				return
			}
			lines(u)
		}

		ctl, _, err := a.Workspace(ctx, workflow.WithOnUpdate(onUpdate))
		if err != nil {
			return err
		}
		defer ctl.Close()

		kind := defaultKind(ctl)
		if analyzeKind != "" {
			if kind, err = types.ParseAnalysisKind(analyzeKind); err != nil {
				return err
			}
		}

		h, err := ctl.StartAnalysis(ctx, stage, kind)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Analysis #%d started (%s).\n", h.JobID(), kind)
		if analyzeNoWait {
			_, _ = fmt.Fprintln(stdout(cmd), "Check on it with: ipp status")
			return nil
		}

		if analyzeWatch {
			p := tui.NewProgram(h.JobID(), workflow.UserMessage, stdout(cmd), cmd.InOrStdin())
			prog.Store(p)
			_, _ = p.Run(h)
		}

		job, err := ctl.Await(ctx, h)
		if job != nil {
			printJobDetails(cmd, a, job)
		}
		return err
	})
}

// printJobDetails prints the job and, once it completed, its skill alignment.
func printJobDetails(cmd *cobra.Command, a *app.Context, job *types.AnalysisJob) {
	pr := printer(cmd)
	pr.PrintJob(job)
	if job.Status != types.JobStatusCompleted {
		return
	}
	alignment, err := connections.Parse(job.ConnectionsAnalysis, a.Logger)
	if err != nil {
		a.Logger.Warn("cli.alignment.unreadable", "analysis_id", job.ID, "error", err)
		return
	}
	if alignment != nil {
		pr.PrintAlignment(alignment)
	}
}
