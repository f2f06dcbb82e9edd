// internal/logic/engine.go
package logic

import (
	"github.com/solatis/surveyflow/internal/types"
)

// Evaluation is everything the response-collection layer needs after one
// answer snapshot: what to show, whether to stop, and where to go.
type Evaluation struct {
	VisibleQuestionIDs []types.QuestionID `json:"visibleQuestionIds"`
	ShouldEndSurvey    bool               `json:"shouldEndSurvey"`
	NextQuestionID     *types.QuestionID  `json:"nextQuestionId"`
	Completed          bool               `json:"completed"`
	Outcome            Outcome            `json:"outcome"`
	Path               []types.QuestionID `json:"-"`
}

// Engine evaluates survey logic. It holds no state; the zero value is ready
// to use and safe for concurrent use.
type Engine struct{}

// NewEngine returns an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs visibility, termination and navigation over one survey
// snapshot. With current nil the next question is the first visible one,
// which is how a respondent enters the survey.
func (e *Engine) Evaluate(survey types.Survey, current *types.QuestionID, answers types.Answers) Evaluation {
	rules := Prune(survey.Questions, survey.Rules)
	groups := GroupByQuestion(rules)
	visible := computeVisible(survey.Questions, groups, answers)

	eval := Evaluation{
		VisibleQuestionIDs: visible.Ordered(survey.Questions),
		ShouldEndSurvey:    ShouldEnd(rules, answers),
	}
	if eval.ShouldEndSurvey {
		eval.Completed = true
		eval.Outcome = OutcomeEndRule
		return eval
	}

	p := newPlanner(survey.Questions, groups, visible, answers)
	if current == nil {
		first, ok := p.firstVisible()
		if !ok {
			eval.Completed = true
			eval.Outcome = OutcomeEndOfSurvey
			return eval
		}
		eval.NextQuestionID = &first
		eval.Outcome = OutcomeNext
		return eval
	}

	nav := p.navigate(*current)
	eval.Completed = nav.Done
	eval.Outcome = nav.Outcome
	eval.Path = nav.Path
	if !nav.Done {
		next := nav.Next
		eval.NextQuestionID = &next
	}
	return eval
}
