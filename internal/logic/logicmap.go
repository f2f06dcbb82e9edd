// internal/logic/logicmap.go
package logic

import (
	"fmt"

	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Logic map.
 *
 * A graph view of a survey for authoring tools. Nodes are questions in
 * order; edges are rules, drawn from the source question to the jump target
 * (jump_to) or to the affected question (everything else).
 *
 * Backward marks jump_to edges whose target does not come after the affected
 * question. Those are the edges that can form the loops navigation guards
 * against, so editors highlight them.
 */

// Node is one question in the logic map.
type Node struct {
	ID            types.QuestionID   `json:"id"`
	Text          string             `json:"text"`
	Order         int                `json:"order"`
	Type          types.QuestionType `json:"type"`
	HasLogic      bool               `json:"hasLogic"`      // affected by at least one rule
	IsConditional bool               `json:"isConditional"` // tested by at least one rule
}

// Edge is one rule in the logic map.
type Edge struct {
	ID             types.RuleID     `json:"id"`
	SourceID       types.QuestionID `json:"sourceId"`
	TargetID       types.QuestionID `json:"targetId"`
	Operator       types.Operator   `json:"operator"`
	ConditionValue string           `json:"conditionValue"`
	Action         types.Action     `json:"action"`
	Label          string           `json:"label"`
	Backward       bool             `json:"backward"`
}

// Map is the logic map of one survey.
type Map struct {
	SurveyID types.SurveyID `json:"surveyId"`
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
}

// BuildMap derives the logic map from a survey snapshot. Edges follow
// resolver order so the output is stable across storage orderings.
func BuildMap(survey types.Survey) Map {
	affected := make(map[types.QuestionID]bool)
	tested := make(map[types.QuestionID]bool)
	for _, r := range survey.Rules {
		affected[r.QuestionID] = true
		tested[r.SourceQuestionID] = true
	}

	orders := make(map[types.QuestionID]int, len(survey.Questions))
	m := Map{
		SurveyID: survey.ID,
		Nodes:    make([]Node, 0, len(survey.Questions)),
		Edges:    make([]Edge, 0, len(survey.Rules)),
	}
	for _, q := range sortQuestions(survey.Questions) {
		orders[q.ID] = q.Order
		m.Nodes = append(m.Nodes, Node{
			ID:            q.ID,
			Text:          q.Text,
			Order:         q.Order,
			Type:          q.Type,
			HasLogic:      affected[q.ID],
			IsConditional: tested[q.ID],
		})
	}

	for _, r := range Ordered(survey.Rules) {
		target := r.QuestionID
		if r.Action == types.ActionJumpTo && r.HasTarget() {
			target = r.TargetQuestionID
		}
		e := Edge{
			ID:             r.ID,
			SourceID:       r.SourceQuestionID,
			TargetID:       target,
			Operator:       r.Operator,
			ConditionValue: r.ConditionValue,
			Action:         r.Action,
			Label:          FormatLabel(r.Operator, r.ConditionValue, r.Action),
		}
		if r.Action == types.ActionJumpTo {
			from, okFrom := orders[r.QuestionID]
			to, okTo := orders[target]
			e.Backward = okFrom && okTo && to <= from
		}
		m.Edges = append(m.Edges, e)
	}
	return m
}

var operatorSymbols = map[types.Operator]string{
	types.OperatorEquals:              "=",
	types.OperatorNotEquals:           "≠",
	types.OperatorContains:            "contains",
	types.OperatorNotContains:         "not contains",
	types.OperatorGreaterThan:         ">",
	types.OperatorLessThan:            "<",
	types.OperatorGreaterThanOrEquals: "≥",
	types.OperatorLessThanOrEquals:    "≤",
	types.OperatorIsEmpty:             "is empty",
	types.OperatorIsNotEmpty:          "is not empty",
	types.OperatorIsAnswered:          "is answered",
	types.OperatorIsNotAnswered:       "is not answered",
}

var actionLabels = map[types.Action]string{
	types.ActionShow:      "→ Show",
	types.ActionHide:      "→ Hide",
	types.ActionSkip:      "→ Skip",
	types.ActionJumpTo:    "→ Jump to",
	types.ActionEndSurvey: "→ End Survey",
}

// FormatLabel renders a rule as a short edge label, e.g. "= 'yes' → Jump to"
// or "is answered → Show".
func FormatLabel(op types.Operator, conditionValue string, action types.Action) string {
	opText, ok := operatorSymbols[op]
	if !ok {
		opText = op.String()
	}
	actionText, ok := actionLabels[action]
	if !ok {
		actionText = action.String()
	}
	if !op.RequiresValue() {
		return fmt.Sprintf("%s %s", opText, actionText)
	}
	return fmt.Sprintf("%s '%s' %s", opText, conditionValue, actionText)
}
