package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/snapshot"
	"github.com/solatis/surveyflow/internal/types"
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Import, export and list stored surveys",
}

var surveyImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Store a survey YAML file in the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		survey, err := snapshot.LoadSurvey(args[0])
		if err != nil {
			return err
		}

		migrate, _ := cmd.Flags().GetBool("migrate")
		database, store, err := openStore(cmd.Context(), cfg, migrate)
		if err != nil {
			return err
		}
		defer database.Close()

		stored, err := store.CreateSurvey(cmd.Context(), survey)
		if err != nil {
			return err
		}
		logger.Info("survey imported",
			"survey_id", stored.ID,
			"questions", len(stored.Questions),
			"rules", len(stored.Rules),
		)
		fmt.Fprintln(cmd.OutOrStdout(), stored.ID)
		return nil
	},
}

var surveyExportCmd = &cobra.Command{
	Use:   "export SURVEY_ID",
	Short: "Write a stored survey as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, store, err := openStore(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer database.Close()

		survey, err := store.LoadSurvey(cmd.Context(), types.SurveyID(args[0]))
		if err != nil {
			return err
		}
		return snapshot.EncodeSurvey(cmd.OutOrStdout(), survey)
	},
}

var surveyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored surveys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, store, err := openStore(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer database.Close()

		surveys, err := store.ListSurveys(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range surveys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.ID, s.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(surveyCmd)
	surveyCmd.AddCommand(surveyImportCmd, surveyExportCmd, surveyListCmd)
	surveyImportCmd.Flags().Bool("migrate", false, "apply pending migrations first")
}
