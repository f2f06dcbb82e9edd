package logic

import (
	"fmt"
	"math/rand"

	"github.com/solatis/surveyflow/internal/types"
)

// questions builds questions with orders 1..n in argument order.
func questions(ids ...types.QuestionID) []types.Question {
	out := make([]types.Question, len(ids))
	for i, id := range ids {
		out[i] = types.Question{ID: id, Order: i + 1, Type: types.QuestionTypeText, Text: "Question " + string(id)}
	}
	return out
}

func rule(id types.RuleID, question, source types.QuestionID, op types.Operator, value string, action types.Action) types.LogicRule {
	return types.LogicRule{
		ID:               id,
		QuestionID:       question,
		SourceQuestionID: source,
		Operator:         op,
		ConditionValue:   value,
		Action:           action,
	}
}

func jump(id types.RuleID, question, source types.QuestionID, op types.Operator, value string, target types.QuestionID) types.LogicRule {
	r := rule(id, question, source, op, value, types.ActionJumpTo)
	r.TargetQuestionID = target
	return r
}

var (
	answerPool = []string{"yes", "no", "YES", "5", "10", "-3.5", "", "  ", "maybe not", "abc"}
	valuePool  = []string{"yes", "no", "5", "7.5", "not", "", "x"}
)

// randomSurvey builds an arbitrary survey, including dangling references,
// duplicate priorities and loops, for property tests.
func randomSurvey(rng *rand.Rand, nQuestions, nRules int) (types.Survey, types.Answers) {
	qs := make([]types.Question, nQuestions)
	ids := make([]types.QuestionID, nQuestions)
	for i := range qs {
		ids[i] = types.QuestionID(fmt.Sprintf("q%02d", i))
		qs[i] = types.Question{ID: ids[i], Order: (i + 1) * 10}
	}
	// A question id outside the survey, so some rules dangle.
	pick := func() types.QuestionID {
		if rng.Intn(12) == 0 {
			return "ghost"
		}
		return ids[rng.Intn(nQuestions)]
	}

	rules := make([]types.LogicRule, nRules)
	for i := range rules {
		r := types.LogicRule{
			ID:               types.RuleID(fmt.Sprintf("r%03d", i)),
			QuestionID:       pick(),
			SourceQuestionID: pick(),
			Operator:         types.Operator(rng.Intn(13)),
			ConditionValue:   valuePool[rng.Intn(len(valuePool))],
			Action:           types.Action(1 + rng.Intn(5)),
			Priority:         rng.Intn(3),
		}
		if r.Action == types.ActionJumpTo {
			r.TargetQuestionID = pick()
		}
		rules[i] = r
	}

	answers := types.Answers{}
	for _, id := range ids {
		if rng.Intn(3) == 0 {
			continue
		}
		answers[id] = answerPool[rng.Intn(len(answerPool))]
	}
	return types.Survey{ID: "survey", Questions: qs, Rules: rules}, answers
}

func shuffled(rng *rand.Rand, rules []types.LogicRule) []types.LogicRule {
	out := make([]types.LogicRule, len(rules))
	copy(out, rules)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
