// internal/logic/resolve.go
package logic

import (
	"sort"

	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Rule resolution.
 *
 * Groups rules by the question they affect and orders each group by ascending
 * priority, ties broken by ascending rule ID. This is the only place rule
 * order is decided; visibility and navigation consume the groups as-is.
 *
 * The sort key is total over (priority, id), so the result does not depend on
 * the order rules arrive in from storage or the wire.
 */

// GroupByQuestion returns rules keyed by affected question, each slice in
// evaluation order. The input slice is not modified.
func GroupByQuestion(rules []types.LogicRule) map[types.QuestionID][]types.LogicRule {
	groups := make(map[types.QuestionID][]types.LogicRule)
	for _, r := range rules {
		groups[r.QuestionID] = append(groups[r.QuestionID], r)
	}
	for _, group := range groups {
		sortRules(group)
	}
	return groups
}

// Ordered returns a copy of rules sorted by (priority, id).
func Ordered(rules []types.LogicRule) []types.LogicRule {
	out := make([]types.LogicRule, len(rules))
	copy(out, rules)
	sortRules(out)
	return out
}

func sortRules(rules []types.LogicRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// filterActions returns the rules whose action satisfies keep, preserving order.
func filterActions(rules []types.LogicRule, keep func(types.Action) bool) []types.LogicRule {
	var out []types.LogicRule
	for _, r := range rules {
		if keep(r.Action) {
			out = append(out, r)
		}
	}
	return out
}

// Prune drops rules that reference questions outside the given list: the
// affected question, the source question, or a jump target. Such rules can
// never match. Input order is preserved.
func Prune(questions []types.Question, rules []types.LogicRule) []types.LogicRule {
	known := questionSet(questions)
	has := func(id types.QuestionID) bool {
		_, ok := known[id]
		return ok
	}

	out := make([]types.LogicRule, 0, len(rules))
	for _, r := range rules {
		if !has(r.QuestionID) || !has(r.SourceQuestionID) {
			continue
		}
		if r.Action == types.ActionJumpTo && !has(r.TargetQuestionID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
