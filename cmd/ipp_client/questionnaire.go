package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/drafts"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/workflow"
)

var questionnaireCmd = &cobra.Command{
	Use:   "questionnaire",
	Short: "Fill in and submit the background questionnaire",
	Long:  "Answers are given as question=answer pairs. Repeat a question to give several answers to a multi-select question.",
}

var questionnaireShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the submitted questionnaire",
	Args:  cobra.NoArgs,
	RunE:  runQuestionnaireShow,
}

var questionnaireDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Work on the questionnaire draft",
}

var questionnaireDraftSaveCmd = &cobra.Command{
	Use:   "save QUESTION=ANSWER...",
	Short: "Add answers to the saved draft",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuestionnaireDraftSave,
}

var questionnaireDraftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved draft",
	Args:  cobra.NoArgs,
	RunE:  runQuestionnaireDraftShow,
}

var questionnaireSubmitCmd = &cobra.Command{
	Use:   "submit [QUESTION=ANSWER...]",
	Short: "Submit the draft plus any extra answers and re-analyze your resume",
	RunE:  runQuestionnaireSubmit,
}

func init() {
	questionnaireDraftCmd.AddCommand(questionnaireDraftSaveCmd, questionnaireDraftShowCmd)
	questionnaireCmd.AddCommand(questionnaireShowCmd, questionnaireDraftCmd, questionnaireSubmitCmd)
	rootCmd.AddCommand(questionnaireCmd)
}

// parseAnswers merges question=answer pairs into base. A question given more than
// once becomes a multi-select answer.
func parseAnswers(base types.Responses, pairs []string) (types.Responses, error) {
	out := base.Clone()
	given := map[string][]string{}
	var order []string
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid answer %q (want question=answer)", pair)
		}
		if _, seen := given[key]; !seen {
			order = append(order, key)
		}
		given[key] = append(given[key], strings.TrimSpace(value))
	}
	for _, key := range order {
		if values := given[key]; len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out, nil
}

func loadDraft(ctx context.Context, a *app.Context) (*drafts.Debouncer, types.Responses, error) {
	d, err := a.Drafts(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, err := d.Load(ctx, drafts.QuestionnaireFormID)
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		r = types.Responses{}
	}
	return d, r, nil
}

func runQuestionnaireShow(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		client, err := a.Authenticated(ctx)
		if err != nil {
			return err
		}
		q, err := client.LatestQuestionnaire(ctx)
		if err != nil {
			return err
		}
		if q == nil {
			printer(cmd).PrintResponses("QUESTIONNAIRE", nil)
			return nil
		}
		printer(cmd).PrintResponses("QUESTIONNAIRE", q.Responses)
		return nil
	})
}

func runQuestionnaireDraftSave(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		d, current, err := loadDraft(ctx, a)
		if err != nil {
			return err
		}
		merged, err := parseAnswers(current, args)
		if err != nil {
			return err
		}
		// Written when the app context closes.
		d.Save(drafts.QuestionnaireFormID, merged)
		printer(cmd).PrintResponses("QUESTIONNAIRE DRAFT", merged)
		return nil
	})
}

func runQuestionnaireDraftShow(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		_, current, err := loadDraft(ctx, a)
		if err != nil {
			return err
		}
		printer(cmd).PrintResponses("QUESTIONNAIRE DRAFT", current)
		return nil
	})
}

func runQuestionnaireSubmit(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		_, current, err := loadDraft(ctx, a)
		if err != nil {
			return err
		}
		responses, err := parseAnswers(current, args)
		if err != nil {
			return err
		}
		if len(responses) == 0 {
			return fmt.Errorf("no answers to submit; add some with `questionnaire draft save`")
		}

		ctl, err := a.Controller(ctx)
		if err != nil {
			return err
		}
		defer ctl.Close()

		res, err := ctl.SubmitQuestionnaire(ctx, responses)
		if err != nil {
			return err
		}
		printer(cmd).PrintResponses("QUESTIONNAIRE SUBMITTED", res.Questionnaire.Responses)
		if res.ReanalysisErr != nil {
			_, _ = fmt.Fprintf(stdout(cmd), "Your answers were saved, but the resume re-analysis did not finish: %s\n", workflow.UserMessage(res.ReanalysisErr))
			return nil
		}
		if res.Reanalysis != nil {
			printer(cmd).PrintJob(res.Reanalysis)
		}
		return nil
	})
}
