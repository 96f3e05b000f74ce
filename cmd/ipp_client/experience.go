package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/experience"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var experienceCmd = &cobra.Command{
	Use:   "experience",
	Short: "Review and select experiences from the latest analysis",
}

var experienceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate experiences by relevance",
	Args:  cobra.NoArgs,
	RunE:  runExperienceList,
}

var experienceSelectCmd = &cobra.Command{
	Use:   "select ITEM-ID...",
	Short: "Toggle the selection of one or more experiences",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExperienceSelect,
}

var experienceElaborateCmd = &cobra.Command{
	Use:   "elaborate ITEM-ID TEXT...",
	Short: "Add detail to a selected experience",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runExperienceElaborate,
}

func init() {
	experienceCmd.AddCommand(experienceListCmd, experienceSelectCmd, experienceElaborateCmd)
	rootCmd.AddCommand(experienceCmd)
}

// experienceSession is the selection over the latest analysis plus the stage
// state it is saved in.
type experienceSession struct {
	job   *types.AnalysisJob
	items []experience.Item
	sel   *experience.Selection
	state *workflow.StageState
}

func loadExperience(ctx context.Context, a *app.Context) (*experienceSession, error) {
	client, err := a.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	job, err := client.LatestStatus(ctx)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, err
	}

	items, err := experience.Candidates(job)
	if err != nil {
		return nil, err
	}
	state, err := workflow.LoadStageState(ctx, a.Store)
	if err != nil {
		return nil, err
	}
	sel := experience.NewSelection(items)
	sel.Restore(state.Selected, state.Elaborations)
	return &experienceSession{job: job, items: items, sel: sel, state: state}, nil
}

func (s *experienceSession) save(ctx context.Context, a *app.Context) error {
	s.state.Selected = s.sel.SelectedIDs()
	s.state.Elaborations = s.sel.Elaborations()
	return workflow.SaveStageState(ctx, a.Store, s.state)
}

func runExperienceList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		s, err := loadExperience(ctx, a)
		if err != nil {
			return err
		}
		if s.job != nil && s.job.Status != types.JobStatusCompleted {
			_, _ = fmt.Fprintf(stdout(cmd), "Analysis #%d is %s; candidates appear once it completes.\n", s.job.ID, s.job.Status)
		}
		printer(cmd).PrintItems(s.items, s.sel)
		return nil
	})
}

func runExperienceSelect(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		s, err := loadExperience(ctx, a)
		if err != nil {
			return err
		}
		for _, id := range args {
			on, err := s.sel.Toggle(id)
			if err != nil {
				return err
			}
			state := "deselected"
			if on {
				state = "selected"
			}
			_, _ = fmt.Fprintf(stdout(cmd), "%s %s\n", id, state)
		}
		if err := s.save(ctx, a); err != nil {
			return err
		}
		printer(cmd).PrintItems(s.items, s.sel)
		return nil
	})
}

func runExperienceElaborate(cmd *cobra.Command, args []string) error {
	id, text := args[0], strings.Join(args[1:], " ")
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		s, err := loadExperience(ctx, a)
		if err != nil {
			return err
		}
		if err := s.sel.Elaborate(id, text); err != nil {
			return err
		}
		if err := s.save(ctx, a); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Saved detail for %s.\n", id)
		return nil
	})
}
