package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/snapshot"
	"github.com/solatis/surveyflow/internal/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the logic map of a survey as DOT or JSON",
	Long: `Graph renders the logic map of a survey file (--survey) or of a stored
survey (--survey-id, read from the configured database).`,
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("survey", "", "survey YAML file")
	graphCmd.Flags().String("survey-id", "", "stored survey id")
	graphCmd.Flags().String("format", "dot", "output format (dot, json)")
	graphCmd.MarkFlagsMutuallyExclusive("survey", "survey-id")
	graphCmd.MarkFlagsOneRequired("survey", "survey-id")
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, _, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	var survey types.Survey
	if path, _ := cmd.Flags().GetString("survey"); path != "" {
		if survey, err = snapshot.LoadSurvey(path); err != nil {
			return err
		}
	} else {
		id, _ := cmd.Flags().GetString("survey-id")
		database, store, err := openStore(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer database.Close()
		if survey, err = store.LoadSurvey(cmd.Context(), types.SurveyID(id)); err != nil {
			return err
		}
	}

	format, _ := cmd.Flags().GetString("format")
	return writeMap(cmd.OutOrStdout(), logic.BuildMap(survey), format)
}

func writeMap(w io.Writer, m logic.Map, format string) error {
	switch format {
	case "dot":
		dot, err := m.DOT()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, dot)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	default:
		return fmt.Errorf("unsupported format %q (expected dot or json)", format)
	}
}
