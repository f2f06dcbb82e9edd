package logic

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/surveyflow/internal/types"
)

func TestGroupByQuestion_OrdersByPriorityThenID(t *testing.T) {
	rules := []types.LogicRule{
		{ID: "c", QuestionID: "q2", Priority: 1},
		{ID: "b", QuestionID: "q2", Priority: 0},
		{ID: "a", QuestionID: "q2", Priority: 1},
		{ID: "z", QuestionID: "q1", Priority: 5},
	}

	groups := GroupByQuestion(rules)

	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	var got []types.RuleID
	for _, r := range groups["q2"] {
		got = append(got, r.ID)
	}
	want := []types.RuleID{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("q2 order = %v, want %v", got, want)
	}
	if len(groups["q1"]) != 1 || groups["q1"][0].ID != "z" {
		t.Errorf("q1 group = %v, want [z]", groups["q1"])
	}
	// Input untouched.
	if rules[0].ID != "c" {
		t.Errorf("input mutated: rules[0].ID = %v, want c", rules[0].ID)
	}
}

func TestGroupByQuestion_Empty(t *testing.T) {
	groups := GroupByQuestion(nil)
	if len(groups) != 0 {
		t.Errorf("len(groups) = %d, want 0", len(groups))
	}
}

func TestPrune_DropsDanglingReferences(t *testing.T) {
	qs := questions("q1", "q2", "q3")
	rules := []types.LogicRule{
		rule("keep-hide", "q3", "q1", types.OperatorEquals, "no", types.ActionHide),
		rule("bad-affected", "ghost", "q1", types.OperatorEquals, "no", types.ActionHide),
		rule("bad-source", "q2", "ghost", types.OperatorNotEquals, "x", types.ActionHide),
		jump("bad-target", "q1", "q1", types.OperatorIsAnswered, "", "ghost"),
		jump("keep-jump", "q1", "q1", types.OperatorIsAnswered, "", "q3"),
		// Targets on non-jump rules are ignored.
		{ID: "keep-end", QuestionID: "q1", SourceQuestionID: "q1", Operator: types.OperatorIsAnswered,
			Action: types.ActionEndSurvey, TargetQuestionID: "ghost"},
	}

	var got []types.RuleID
	for _, r := range Prune(qs, rules) {
		got = append(got, r.ID)
	}
	want := []types.RuleID{"keep-hide", "keep-jump", "keep-end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prune() = %v, want %v", got, want)
	}
}

func TestGroupByQuestion_OrderIndependenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("grouping ignores input order", prop.ForAll(
		func(seed int64, nRules int) bool {
			rng := rand.New(rand.NewSource(seed))
			survey, _ := randomSurvey(rng, 6, nRules)
			return reflect.DeepEqual(GroupByQuestion(survey.Rules), GroupByQuestion(shuffled(rng, survey.Rules)))
		},
		gen.Int64(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
