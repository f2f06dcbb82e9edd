// internal/logic/termination.go
package logic

import (
	"github.com/solatis/surveyflow/internal/types"
)

// ShouldEnd reports whether any end_survey rule holds. The question a rule is
// attached to is irrelevant; order is irrelevant because the result is an OR.
func ShouldEnd(rules []types.LogicRule, answers types.Answers) bool {
	_, ok := firstEndRule(rules, answers)
	return ok
}

// firstEndRule returns the first end_survey rule that holds, in input order.
func firstEndRule(rules []types.LogicRule, answers types.Answers) (types.LogicRule, bool) {
	for _, r := range rules {
		if r.Action != types.ActionEndSurvey {
			continue
		}
		if EvaluateRule(r, answers) {
			return r, true
		}
	}
	return types.LogicRule{}, false
}
