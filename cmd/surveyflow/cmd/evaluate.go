package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/snapshot"
	"github.com/solatis/surveyflow/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a survey file against an answers file",
	Long: `Evaluate runs the logic engine offline. The survey and answers are YAML
files; the result is printed as JSON. Without --current the next question is
the first visible one.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("survey", "", "survey YAML file (required)")
	evaluateCmd.Flags().String("answers", "", "answers YAML file (question id -> answer)")
	evaluateCmd.Flags().String("current", "", "id of the question just answered")
	evaluateCmd.Flags().Bool("path", false, "include the navigation path")
	_ = evaluateCmd.MarkFlagRequired("survey")
}

type evaluateOutput struct {
	logic.Evaluation
	Path []types.QuestionID `json:"path,omitempty"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	_, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	surveyPath, _ := cmd.Flags().GetString("survey")
	survey, err := snapshot.LoadSurvey(surveyPath)
	if err != nil {
		return err
	}

	answers := types.Answers{}
	if answersPath, _ := cmd.Flags().GetString("answers"); answersPath != "" {
		if answers, err = snapshot.LoadAnswers(answersPath); err != nil {
			return err
		}
	}

	var current *types.QuestionID
	if cmd.Flags().Changed("current") {
		id, _ := cmd.Flags().GetString("current")
		qid := types.QuestionID(id)
		current = &qid
	}

	eval := logic.NewEngine().Evaluate(survey, current, answers)
	if eval.Outcome == logic.OutcomeCycle {
		logger.Warn("navigation cycle detected", "survey_id", survey.ID, "path", eval.Path)
	}

	out := evaluateOutput{Evaluation: eval}
	if withPath, _ := cmd.Flags().GetBool("path"); withPath {
		out.Path = eval.Path
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
