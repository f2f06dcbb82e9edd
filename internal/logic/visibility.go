// internal/logic/visibility.go
package logic

import (
	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Visibility.
 *
 * Every question starts visible. For each question, its show/hide/skip rules
 * are evaluated in resolver order and the last rule whose condition holds
 * decides: show makes it visible, hide and skip hide it. A question with no
 * true rule stays visible.
 *
 * Single pass over the raw answers. A hidden question's answer still feeds
 * the rules that test it, and hiding is never propagated transitively.
 */

// VisibleSet is the set of questions visible under one answer snapshot.
type VisibleSet map[types.QuestionID]struct{}

// Contains reports whether id is visible.
func (v VisibleSet) Contains(id types.QuestionID) bool {
	_, ok := v[id]
	return ok
}

// Ordered returns the visible question IDs in survey order.
func (v VisibleSet) Ordered(questions []types.Question) []types.QuestionID {
	out := make([]types.QuestionID, 0, len(v))
	for _, q := range sortQuestions(questions) {
		if v.Contains(q.ID) {
			out = append(out, q.ID)
		}
	}
	return out
}

// ComputeVisible evaluates visibility rules for every question. Rules whose
// source question is not in questions never match.
func ComputeVisible(questions []types.Question, rules []types.LogicRule, answers types.Answers) VisibleSet {
	return computeVisible(questions, GroupByQuestion(Prune(questions, rules)), answers)
}

func computeVisible(questions []types.Question, groups map[types.QuestionID][]types.LogicRule, answers types.Answers) VisibleSet {
	visible := make(VisibleSet, len(questions))
	for _, q := range questions {
		if isVisible(groups[q.ID], answers) {
			visible[q.ID] = struct{}{}
		}
	}
	return visible
}

// isVisible applies last-match-wins over one question's ordered rules.
func isVisible(rules []types.LogicRule, answers types.Answers) bool {
	visible := true
	for _, r := range rules {
		if !r.Action.AffectsVisibility() {
			continue
		}
		if !EvaluateRule(r, answers) {
			continue
		}
		visible = r.Action == types.ActionShow
	}
	return visible
}
