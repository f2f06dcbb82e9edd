// internal/logic/operators.go
package logic

import (
	"strings"

	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Condition evaluation.
 *
 * Twelve operators over raw answer text. Every answer and every condition
 * value is a string; numeric operators parse both sides on demand.
 *
 * Presence:
 *   - is_answered / is_not_empty: present and non-blank after trimming
 *   - is_not_answered / is_empty: the negation (absent counts as empty)
 *
 * Text (case-insensitive, raw text, no trimming):
 *   - equals / contains: absent answer never matches
 *   - not_equals / not_contains: absent answer always matches
 *
 * Numeric (both sides trimmed, parsed as finite decimals):
 *   - greater_than / less_than / greater_than_or_equals / less_than_or_equals
 *   - any parse failure, absent answer or non-finite value yields false
 *
 * Unknown operators yield false. Evaluate never panics.
 */

// Evaluate applies op to an answer. present reports whether the source
// question has an entry in the answer snapshot.
func Evaluate(op types.Operator, conditionValue, answer string, present bool) bool {
	switch op {
	case types.OperatorIsAnswered, types.OperatorIsNotEmpty:
		return isFilled(answer, present)
	case types.OperatorIsNotAnswered, types.OperatorIsEmpty:
		return !isFilled(answer, present)
	case types.OperatorEquals:
		return present && strings.EqualFold(answer, conditionValue)
	case types.OperatorNotEquals:
		return !present || !strings.EqualFold(answer, conditionValue)
	case types.OperatorContains:
		return present && containsFold(answer, conditionValue)
	case types.OperatorNotContains:
		return !present || !containsFold(answer, conditionValue)
	case types.OperatorGreaterThan:
		return present && compareNumeric(answer, conditionValue, func(c int) bool { return c > 0 })
	case types.OperatorLessThan:
		return present && compareNumeric(answer, conditionValue, func(c int) bool { return c < 0 })
	case types.OperatorGreaterThanOrEquals:
		return present && compareNumeric(answer, conditionValue, func(c int) bool { return c >= 0 })
	case types.OperatorLessThanOrEquals:
		return present && compareNumeric(answer, conditionValue, func(c int) bool { return c <= 0 })
	default:
		return false
	}
}

// EvaluateRule tests a rule's condition against the answer of its source
// question.
func EvaluateRule(rule types.LogicRule, answers types.Answers) bool {
	answer, present := answers.Lookup(rule.SourceQuestionID)
	return Evaluate(rule.Operator, rule.ConditionValue, answer, present)
}

// isFilled reports whether an answer exists and has non-whitespace content.
func isFilled(answer string, present bool) bool {
	return present && strings.TrimSpace(answer) != ""
}

// containsFold is a case-insensitive substring test.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// compareNumeric parses both sides and applies cmp to their three-way
// comparison. Returns false when either side is not a finite decimal.
func compareNumeric(answer, conditionValue string, cmp func(int) bool) bool {
	a, ok := parseDecimal(answer)
	if !ok {
		return false
	}
	b, ok := parseDecimal(conditionValue)
	if !ok {
		return false
	}
	switch {
	case a < b:
		return cmp(-1)
	case a > b:
		return cmp(1)
	default:
		return cmp(0)
	}
}
