package api

import (
	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

// Request and response messages shared by the gRPC and HTTP transports.
// Field names follow the JSON wire format of both.

// AnswerInput is one answered question. Unanswered questions are omitted.
type AnswerInput struct {
	QuestionID types.QuestionID `json:"questionId"`
	Value      string           `json:"value"`
}

// EvaluateRequest asks for the logic state of a stored survey.
type EvaluateRequest struct {
	SurveyID          types.SurveyID    `json:"surveyId"`
	CurrentQuestionID *types.QuestionID `json:"currentQuestionId,omitempty"`
	Answers           []AnswerInput     `json:"answers"`
}

// EvaluateSurveyRequest carries the survey snapshot inline. Used where no
// store is available (lambda, CLI).
type EvaluateSurveyRequest struct {
	Survey            types.Survey      `json:"survey"`
	CurrentQuestionID *types.QuestionID `json:"currentQuestionId,omitempty"`
	Answers           []AnswerInput     `json:"answers"`
}

// EvaluateResponse is the engine result for one answer snapshot.
type EvaluateResponse = logic.Evaluation

// GetLogicMapRequest asks for the logic map of a stored survey.
type GetLogicMapRequest struct {
	SurveyID types.SurveyID `json:"surveyId"`
}

// GetLogicMapResponse is the logic map of one survey.
type GetLogicMapResponse = logic.Map

// RuleInput is the authoring payload for adding or updating a rule.
// A nil Priority appends on add and keeps the stored priority on update.
type RuleInput struct {
	SourceQuestionID types.QuestionID `json:"sourceQuestionId"`
	Operator         types.Operator   `json:"operator"`
	ConditionValue   string           `json:"conditionValue"`
	Action           types.Action     `json:"action"`
	TargetQuestionID types.QuestionID `json:"targetQuestionId,omitempty"`
	Priority         *int             `json:"priority,omitempty"`
}

// ReorderRequest lists every rule of a question, first = priority 0.
type ReorderRequest struct {
	RuleIDs []types.RuleID `json:"logicIds"`
}

// toAnswers builds the engine snapshot. Later entries for the same question
// replace earlier ones.
func toAnswers(in []AnswerInput) (types.Answers, error) {
	answers := make(types.Answers, len(in))
	for i, a := range in {
		if a.QuestionID == "" {
			return nil, invalidArgumentf("answers[%d]: questionId required", i)
		}
		answers[a.QuestionID] = a.Value
	}
	return answers, nil
}
