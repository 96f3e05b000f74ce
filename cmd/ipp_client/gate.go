package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var (
	gateReflections []string
	gatePrompts     int
	gatePlan        string
	gateInterview   []string
	gateAssessments []string
	gateFinal       string
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Show whether the current stage can be completed",
	Args:  cobra.NoArgs,
	RunE:  runGateShow,
}

var gateNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Continue to the next stage when its requirements are met",
	Args:  cobra.NoArgs,
	RunE:  runGateNext,
}

var gateBackCmd = &cobra.Command{
	Use:   "back",
	Short: "Return to the previous stage",
	Args:  cobra.NoArgs,
	RunE:  runGateBack,
}

var gateRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record stage work: reflections, project plan, interview answers and assessments",
	Args:  cobra.NoArgs,
	RunE:  runGateRecord,
}

func init() {
	f := gateRecordCmd.Flags()
	f.StringArrayVar(&gateReflections, "reflection", nil, "Reflection answer (repeatable)")
	f.IntVar(&gatePrompts, "prompts", 0, "Number of reflection prompts offered")
	f.StringVar(&gatePlan, "plan", "", "Project plan for the Action stage")
	f.StringArrayVar(&gateInterview, "interview", nil, "Interview practice answer (repeatable)")
	f.StringArrayVar(&gateAssessments, "assessment", nil, "Self-assessment (repeatable)")
	f.StringVar(&gateFinal, "final", "", "Final reflection for the Evaluation stage")

	gateCmd.AddCommand(gateNextCmd, gateBackCmd, gateRecordCmd)
	rootCmd.AddCommand(gateCmd)
}

// gateInputs loads the working set and stage state and builds the gate inputs for
// the current stage.
func gateInputs(ctx context.Context, a *app.Context) (*workflow.StageState, gate.Inputs, error) {
	st, err := workflow.LoadStageState(ctx, a.Store)
	if err != nil {
		return nil, gate.Inputs{}, err
	}
	ctl, _, err := a.Workspace(ctx)
	if err != nil {
		return nil, gate.Inputs{}, err
	}
	defer ctl.Close()
	return st, ctl.GateInputs(st.Stage), nil
}

func runGateShow(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		st, in, err := gateInputs(ctx, a)
		if err != nil {
			return err
		}
		printer(cmd).PrintDecision(st.Stage, gate.Evaluate(st.Apply(in)))
		return nil
	})
}

func runGateNext(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		st, in, err := gateInputs(ctx, a)
		if err != nil {
			return err
		}
		from := st.Stage
		d, moved := st.Advance(in)
		printer(cmd).PrintDecision(from, d)
		if !moved {
			return nil
		}
		if err := workflow.SaveStageState(ctx, a.Store, st); err != nil {
			return err
		}
		a.Logger.Info("cli.stage.advanced", "from", string(from), "to", string(st.Stage))
		_, _ = fmt.Fprintf(stdout(cmd), "Now in %s.\n", st.Stage.Title())
		return nil
	})
}

func runGateBack(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		st, err := workflow.LoadStageState(ctx, a.Store)
		if err != nil {
			return err
		}
		if !st.Back() {
			_, _ = fmt.Fprintf(stdout(cmd), "Already at %s.\n", st.Stage.Title())
			return nil
		}
		if err := workflow.SaveStageState(ctx, a.Store, st); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Back to %s.\n", st.Stage.Title())
		return nil
	})
}

func runGateRecord(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		st, err := workflow.LoadStageState(ctx, a.Store)
		if err != nil {
			return err
		}

		st.Reflections = append(st.Reflections, gateReflections...)
		st.InterviewResponses = append(st.InterviewResponses, gateInterview...)
		st.SelfAssessments = append(st.SelfAssessments, gateAssessments...)
		if f.Changed("prompts") {
			st.ReflectionPrompts = gatePrompts
		}
		if f.Changed("plan") {
			st.ProjectPlan = gatePlan
		}
		if f.Changed("final") {
			st.FinalReflection = gateFinal
		}

		if err := workflow.SaveStageState(ctx, a.Store, st); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Recorded: %d reflections, %d interview answers, %d self-assessments.\n",
			gate.CountNonEmpty(st.Reflections), gate.CountNonEmpty(st.InterviewResponses), gate.CountNonEmpty(st.SelfAssessments))
		return nil
	})
}
