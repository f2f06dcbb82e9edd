package types

import "errors"

// Sentinel errors for surveyflow operations.
var (
	// ErrSurveyNotFound indicates no survey exists with the given ID.
	ErrSurveyNotFound = errors.New("survey not found")

	// ErrRuleNotFound indicates no logic rule exists with the given ID.
	ErrRuleNotFound = errors.New("logic rule not found")

	// ErrRuleNotOnQuestion indicates a rule exists but affects another question.
	ErrRuleNotOnQuestion = errors.New("logic rule does not belong to question")

	// ErrQuestionNotInSurvey indicates the affected question is not part of the survey.
	ErrQuestionNotInSurvey = errors.New("question not in survey")

	// ErrSourceQuestionNotInSurvey indicates the tested question is not part of the survey.
	ErrSourceQuestionNotInSurvey = errors.New("source question not in survey")

	// ErrTargetQuestionRequired indicates a JumpTo rule without a target.
	ErrTargetQuestionRequired = errors.New("target question required for jump_to")

	// ErrTargetQuestionNotInSurvey indicates a jump target outside the survey.
	ErrTargetQuestionNotInSurvey = errors.New("target question not in survey")

	// ErrUnexpectedTargetQuestion indicates a target on a non-JumpTo rule.
	ErrUnexpectedTargetQuestion = errors.New("target question only allowed for jump_to")

	// ErrConditionValueRequired indicates a missing operand for a comparison operator.
	ErrConditionValueRequired = errors.New("condition value required for operator")

	// ErrUnexpectedConditionValue indicates an operand on a presence operator.
	ErrUnexpectedConditionValue = errors.New("condition value not allowed for operator")

	// ErrConditionValueTooLong indicates an operand over MaxConditionValueLength.
	ErrConditionValueTooLong = errors.New("condition value too long")

	// ErrNegativePriority indicates a priority below zero.
	ErrNegativePriority = errors.New("priority must be non-negative")

	// ErrInvalidOperator indicates an unknown operator.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidAction indicates an unknown action.
	ErrInvalidAction = errors.New("invalid action")

	// ErrDuplicateQuestion indicates two questions share an ID.
	ErrDuplicateQuestion = errors.New("duplicate question id")

	// ErrDuplicateOrder indicates two questions share an order.
	ErrDuplicateOrder = errors.New("duplicate question order")

	// ErrDuplicateRule indicates two rules share an ID.
	ErrDuplicateRule = errors.New("duplicate rule id")

	// ErrTooManyQuestions indicates a survey over MaxQuestionsPerSurvey.
	ErrTooManyQuestions = errors.New("survey has too many questions")

	// ErrTooManyRules indicates a survey over MaxRulesPerSurvey.
	ErrTooManyRules = errors.New("survey has too many logic rules")

	// ErrReorderMismatch indicates a reorder list that is not a permutation of
	// the question's rules.
	ErrReorderMismatch = errors.New("reorder ids must match the question's rules exactly")
)
