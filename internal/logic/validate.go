// internal/logic/validate.go
package logic

import (
	"fmt"
	"strings"

	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Authoring validation.
 *
 * The engine tolerates any rule set. Validation runs where rules are created
 * or loaded (store, service, fixtures) so that malformed references are
 * rejected with a reason instead of silently never matching.
 */

// NormalizeRule trims the condition value, clears it for operators that take
// no operand, and clears the target for actions other than jump_to.
func NormalizeRule(rule types.LogicRule) types.LogicRule {
	rule.ConditionValue = strings.TrimSpace(rule.ConditionValue)
	if !rule.Operator.RequiresValue() {
		rule.ConditionValue = ""
	}
	if rule.Action != types.ActionJumpTo {
		rule.TargetQuestionID = ""
	}
	return rule
}

// ValidateRule checks a rule against the questions of the survey it will be
// attached to. Errors wrap the sentinels in internal/types.
func ValidateRule(questions []types.Question, rule types.LogicRule) error {
	if !rule.Operator.Valid() {
		return fmt.Errorf("rule %s: %w", rule.ID, types.ErrInvalidOperator)
	}
	if !rule.Action.Valid() {
		return fmt.Errorf("rule %s: %w", rule.ID, types.ErrInvalidAction)
	}

	known := questionSet(questions)
	if _, ok := known[rule.QuestionID]; !ok {
		return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrQuestionNotInSurvey, rule.QuestionID)
	}
	if _, ok := known[rule.SourceQuestionID]; !ok {
		return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrSourceQuestionNotInSurvey, rule.SourceQuestionID)
	}

	if rule.Action == types.ActionJumpTo {
		if !rule.HasTarget() {
			return fmt.Errorf("rule %s: %w", rule.ID, types.ErrTargetQuestionRequired)
		}
		if _, ok := known[rule.TargetQuestionID]; !ok {
			return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrTargetQuestionNotInSurvey, rule.TargetQuestionID)
		}
	} else if rule.HasTarget() {
		return fmt.Errorf("rule %s: %w", rule.ID, types.ErrUnexpectedTargetQuestion)
	}

	value := strings.TrimSpace(rule.ConditionValue)
	if rule.Operator.RequiresValue() && value == "" {
		return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrConditionValueRequired, rule.Operator)
	}
	if !rule.Operator.RequiresValue() && value != "" {
		return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrUnexpectedConditionValue, rule.Operator)
	}
	if len(rule.ConditionValue) > types.MaxConditionValueLength {
		return fmt.Errorf("rule %s: %w (%d > %d)", rule.ID, types.ErrConditionValueTooLong,
			len(rule.ConditionValue), types.MaxConditionValueLength)
	}

	if rule.Priority < 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, types.ErrNegativePriority)
	}
	return nil
}

// ValidateSurvey checks question uniqueness, resource limits and every rule.
func ValidateSurvey(survey types.Survey) error {
	if len(survey.Questions) > types.MaxQuestionsPerSurvey {
		return fmt.Errorf("%w: %d > %d", types.ErrTooManyQuestions, len(survey.Questions), types.MaxQuestionsPerSurvey)
	}
	if len(survey.Rules) > types.MaxRulesPerSurvey {
		return fmt.Errorf("%w: %d > %d", types.ErrTooManyRules, len(survey.Rules), types.MaxRulesPerSurvey)
	}

	ids := make(map[types.QuestionID]struct{}, len(survey.Questions))
	orders := make(map[int]types.QuestionID, len(survey.Questions))
	for _, q := range survey.Questions {
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("%w: %s", types.ErrDuplicateQuestion, q.ID)
		}
		ids[q.ID] = struct{}{}
		if other, dup := orders[q.Order]; dup {
			return fmt.Errorf("%w: %d (%s, %s)", types.ErrDuplicateOrder, q.Order, other, q.ID)
		}
		orders[q.Order] = q.ID
	}

	ruleIDs := make(map[types.RuleID]struct{}, len(survey.Rules))
	for _, r := range survey.Rules {
		if _, dup := ruleIDs[r.ID]; dup {
			return fmt.Errorf("%w: %s", types.ErrDuplicateRule, r.ID)
		}
		ruleIDs[r.ID] = struct{}{}
		if err := ValidateRule(survey.Questions, r); err != nil {
			return err
		}
	}
	return nil
}

func questionSet(questions []types.Question) map[types.QuestionID]struct{} {
	set := make(map[types.QuestionID]struct{}, len(questions))
	for _, q := range questions {
		set[q.ID] = struct{}{}
	}
	return set
}
