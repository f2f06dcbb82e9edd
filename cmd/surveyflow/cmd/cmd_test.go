package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/surveyflow/internal/snapshot"
)

const surveyYAML = `id: s1
title: Onboarding
questions:
  - id: q1
    type: yes_no
    text: Daily user?
  - id: q2
    text: What for?
  - id: q3
    type: nps
    text: Recommend?
rules:
  - id: skip-q2
    question: q1
    source: q1
    operator: equals
    value: "no"
    action: jump_to
    target: q3
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// resetFlags clears values left on the package-level commands by earlier runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	survey := writeFile(t, "survey.yaml", surveyYAML)
	answers := writeFile(t, "answers.yaml", "q1: \"no\"\n")

	out, err := run(t, "evaluate", "--survey", survey, "--answers", answers, "--current", "q1", "--path")
	require.NoError(t, err)

	var got struct {
		NextQuestionID *string  `json:"nextQuestionId"`
		Outcome        string   `json:"outcome"`
		Visible        []string `json:"visibleQuestionIds"`
		Path           []string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.NextQuestionID)
	assert.Equal(t, "q3", *got.NextQuestionID)
	assert.Equal(t, "next", got.Outcome)
	assert.Equal(t, []string{"q1", "q2", "q3"}, got.Visible)
	assert.NotEmpty(t, got.Path)
}

func TestEvaluateCommand_NoCurrent(t *testing.T) {
	survey := writeFile(t, "survey.yaml", surveyYAML)

	out, err := run(t, "evaluate", "--survey", survey)
	require.NoError(t, err)
	assert.Contains(t, out, `"nextQuestionId": "q1"`)
	assert.NotContains(t, out, `"path"`)
}

func TestGraphCommand(t *testing.T) {
	survey := writeFile(t, "survey.yaml", surveyYAML)

	out, err := run(t, "graph", "--survey", survey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph"), "out = %q", out)

	out, err = run(t, "graph", "--survey", survey, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"skip-q2"`)

	_, err = run(t, "graph", "--survey", survey, "--format", "svg")
	assert.Error(t, err)

	_, err = run(t, "graph")
	assert.Error(t, err, "one of --survey or --survey-id is required")
}

func TestSurveyImportExport(t *testing.T) {
	survey := writeFile(t, "survey.yaml", surveyYAML)
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "surveyflow.db")

	_, err := run(t, "survey", "list", "--db-url", dbURL)
	assert.Error(t, err, "unmigrated database is refused")

	out, err := run(t, "survey", "import", survey, "--migrate", "--db-url", dbURL)
	require.NoError(t, err)
	assert.Equal(t, "s1\n", out)

	out, err = run(t, "survey", "list", "--db-url", dbURL)
	require.NoError(t, err)
	assert.Equal(t, "s1\tOnboarding\n", out)

	out, err = run(t, "survey", "export", "s1", "--db-url", dbURL)
	require.NoError(t, err)
	exported, err := snapshot.DecodeSurvey(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, exported.Questions, 3)
	require.Len(t, exported.Rules, 1)
	assert.Equal(t, "q3", string(exported.Rules[0].TargetQuestionID))

	out, err = run(t, "graph", "--survey-id", "s1", "--format", "json", "--db-url", dbURL)
	require.NoError(t, err)
	assert.Contains(t, out, `"skip-q2"`)

	out, err = run(t, "migrate", "status", "--db-url", dbURL)
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
}
