package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/surveyflow/internal/types"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "surveyflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, MigrateUp(context.Background(), db))
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(openTestDB(t))
	require.NoError(t, err)
	return store
}

func seedSurvey(t *testing.T, store *Store) types.Survey {
	t.Helper()
	survey, err := store.CreateSurvey(context.Background(), types.Survey{
		ID:    "s1",
		Title: "Onboarding",
		Questions: []types.Question{
			{ID: "q1", Order: 1, Type: types.QuestionTypeYesNo, Text: "Daily user?"},
			{ID: "q2", Order: 2, Text: "What for?"},
			{ID: "q3", Order: 3, Type: types.QuestionTypeNPS, Required: true, Text: "Recommend?"},
		},
		Rules: []types.LogicRule{
			{ID: "r1", QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorEquals, ConditionValue: "no", Action: types.ActionHide},
		},
	})
	require.NoError(t, err)
	return survey
}

func TestOpen_Schemes(t *testing.T) {
	db, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", db.DriverName())
	require.NoError(t, db.Close())

	_, err = Open("mysql://localhost/x")
	assert.Error(t, err)

	_, err = Open("no-scheme")
	assert.Error(t, err)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, MigrateUp(ctx, db))

	statuses, err := MigrateStatus(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %s applied", s.ID)
		assert.NotNil(t, s.AppliedAt, "migration %s applied_at parsed", s.ID)
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec("UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = MigrateUp(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestSplitStatements_SkipsCommentLines(t *testing.T) {
	stmts := splitStatements("-- header\n-- more\nCREATE TABLE a (x INT);\n\n-- trailing\nCREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, stmts)
}

func TestStore_CreateAndLoadSurvey(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)

	loaded, err := store.LoadSurvey(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "Onboarding", loaded.Title)
	require.Len(t, loaded.Questions, 3)
	assert.Equal(t, types.QuestionID("q1"), loaded.Questions[0].ID)
	assert.Equal(t, types.QuestionTypeText, loaded.Questions[1].Type, "missing type defaults to text")
	assert.True(t, loaded.Questions[2].Required)

	require.Len(t, loaded.Rules, 1)
	assert.Equal(t, types.OperatorEquals, loaded.Rules[0].Operator)
	assert.Equal(t, types.ActionHide, loaded.Rules[0].Action)
	assert.Equal(t, "no", loaded.Rules[0].ConditionValue)
	assert.False(t, loaded.Rules[0].HasTarget())

	summaries, err := store.ListSurveys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SurveySummary{{ID: "s1", Title: "Onboarding"}}, summaries)
}

func TestStore_CreateSurveyRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateSurvey(context.Background(), types.Survey{
		ID:        "bad",
		Questions: []types.Question{{ID: "q1", Order: 1}},
		Rules: []types.LogicRule{
			{ID: "r1", QuestionID: "q1", SourceQuestionID: "q9", Operator: types.OperatorIsAnswered, Action: types.ActionShow},
		},
	})
	assert.True(t, errors.Is(err, types.ErrSourceQuestionNotInSurvey), "err = %v", err)

	_, err = store.LoadSurvey(context.Background(), "bad")
	assert.True(t, errors.Is(err, types.ErrSurveyNotFound), "nothing written on validation failure")
}

func TestStore_LoadSurveyNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadSurvey(context.Background(), "missing")
	assert.True(t, errors.Is(err, types.ErrSurveyNotFound), "err = %v", err)
}

func TestStore_AddQuestion(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	q, err := store.AddQuestion(ctx, "s1", types.Question{Text: "Anything else?"})
	require.NoError(t, err)
	assert.Equal(t, 4, q.Order, "order 0 appends")
	assert.NotEmpty(t, q.ID)

	_, err = store.AddQuestion(ctx, "s1", types.Question{ID: "q9", Order: 2})
	assert.True(t, errors.Is(err, types.ErrDuplicateOrder), "err = %v", err)

	_, err = store.AddQuestion(ctx, "nope", types.Question{ID: "q9"})
	assert.True(t, errors.Is(err, types.ErrSurveyNotFound), "err = %v", err)
}

func TestStore_AddRuleDefaultPriority(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	first, err := store.AddRule(ctx, "s1", types.LogicRule{
		QuestionID: "q3", SourceQuestionID: "q1", Operator: types.OperatorEquals, ConditionValue: " no ", Action: types.ActionHide,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Priority, "first rule on a question gets priority 0")
	assert.Equal(t, "no", first.ConditionValue, "value trimmed")
	assert.NotEmpty(t, first.ID)

	second, err := store.AddRule(ctx, "s1", types.LogicRule{
		QuestionID: "q3", SourceQuestionID: "q2", Operator: types.OperatorIsAnswered, Action: types.ActionShow,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Priority)

	explicit := 7
	third, err := store.AddRule(ctx, "s1", types.LogicRule{
		QuestionID: "q1", SourceQuestionID: "q1", Operator: types.OperatorEquals, ConditionValue: "no",
		Action: types.ActionJumpTo, TargetQuestionID: "q3",
	}, &explicit)
	require.NoError(t, err)
	assert.Equal(t, 7, third.Priority)

	rules, err := store.ListRules(ctx, "s1", "q3")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first.ID, rules[0].ID)
	assert.Equal(t, second.ID, rules[1].ID)

	got, err := store.GetRule(ctx, "s1", third.ID)
	require.NoError(t, err)
	assert.Equal(t, types.QuestionID("q3"), got.TargetQuestionID)
	assert.Equal(t, types.ActionJumpTo, got.Action)
}

func TestStore_AddRuleValidation(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	tests := []struct {
		name string
		rule types.LogicRule
		want error
	}{
		{
			name: "unknown question",
			rule: types.LogicRule{QuestionID: "q9", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow},
			want: types.ErrQuestionNotInSurvey,
		},
		{
			name: "jump without target",
			rule: types.LogicRule{QuestionID: "q1", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionJumpTo},
			want: types.ErrTargetQuestionRequired,
		},
		{
			name: "missing value",
			rule: types.LogicRule{QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorGreaterThan, Action: types.ActionHide},
			want: types.ErrConditionValueRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddRule(ctx, "s1", tt.rule, nil)
			assert.True(t, errors.Is(err, tt.want), "err = %v, want %v", err, tt.want)
		})
	}

	negative := -1
	_, err := store.AddRule(ctx, "s1", types.LogicRule{
		QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow,
	}, &negative)
	assert.True(t, errors.Is(err, types.ErrNegativePriority), "err = %v", err)
}

func TestStore_UpdateRule(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	updated, err := store.UpdateRule(ctx, "s1", types.LogicRule{
		ID: "r1", QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorNotEquals,
		ConditionValue: "yes", Action: types.ActionShow, Priority: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Priority)

	got, err := store.GetRule(ctx, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, types.OperatorNotEquals, got.Operator)
	assert.Equal(t, types.ActionShow, got.Action)
	assert.Equal(t, "yes", got.ConditionValue)

	_, err = store.UpdateRule(ctx, "s1", types.LogicRule{
		ID: "r1", QuestionID: "q3", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow,
	})
	assert.True(t, errors.Is(err, types.ErrRuleNotOnQuestion), "err = %v", err)

	_, err = store.UpdateRule(ctx, "s1", types.LogicRule{
		ID: "r9", QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow,
	})
	assert.True(t, errors.Is(err, types.ErrRuleNotFound), "err = %v", err)
}

func TestStore_DeleteRule(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	err := store.DeleteRule(ctx, "s1", "q3", "r1")
	assert.True(t, errors.Is(err, types.ErrRuleNotOnQuestion), "err = %v", err)

	require.NoError(t, store.DeleteRule(ctx, "s1", "q2", "r1"))

	_, err = store.GetRule(ctx, "s1", "r1")
	assert.True(t, errors.Is(err, types.ErrRuleNotFound), "err = %v", err)
}

func TestStore_ReorderRules(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	r2, err := store.AddRule(ctx, "s1", types.LogicRule{
		QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, store.ReorderRules(ctx, "s1", "q2", []types.RuleID{r2.ID, "r1"}))

	rules, err := store.ListRules(ctx, "s1", "q2")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, r2.ID, rules[0].ID)
	assert.Equal(t, 0, rules[0].Priority)
	assert.Equal(t, types.RuleID("r1"), rules[1].ID)
	assert.Equal(t, 1, rules[1].Priority)

	for _, ids := range [][]types.RuleID{
		{"r1"},
		{"r1", "r1"},
		{"r1", "r9"},
	} {
		err := store.ReorderRules(ctx, "s1", "q2", ids)
		assert.True(t, errors.Is(err, types.ErrReorderMismatch), "ReorderRules(%v) err = %v", ids, err)
	}
}

func TestStore_IDsScopedToSurvey(t *testing.T) {
	store := newTestStore(t)
	seedSurvey(t, store)
	ctx := context.Background()

	_, err := store.CreateSurvey(ctx, types.Survey{
		ID:        "s2",
		Questions: []types.Question{{ID: "q1", Order: 1}, {ID: "q2", Order: 2}},
		Rules: []types.LogicRule{
			{ID: "r1", QuestionID: "q2", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered, Action: types.ActionShow},
		},
	})
	require.NoError(t, err)

	s1, err := store.LoadSurvey(ctx, "s1")
	require.NoError(t, err)
	s2, err := store.LoadSurvey(ctx, "s2")
	require.NoError(t, err)

	assert.Len(t, s1.Questions, 3)
	assert.Len(t, s2.Questions, 2)
	require.Len(t, s2.Rules, 1)
	assert.Equal(t, types.OperatorIsAnswered, s2.Rules[0].Operator)
	assert.Equal(t, types.OperatorEquals, s1.Rules[0].Operator)
}
