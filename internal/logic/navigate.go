// internal/logic/navigate.go
package logic

import (
	"fmt"
	"sort"

	"github.com/solatis/surveyflow/internal/types"
)

/*
 * Navigation.
 *
 * Decides the question that follows the current one:
 *   1. Any end_survey rule holding ends the survey.
 *   2. The current question's jump_to rules, in resolver order; the first
 *      rule whose condition holds supplies the candidate.
 *   3. Otherwise the candidate is the next question by ascending order.
 *   4. Hidden candidates are skipped forward by order. Running off the end
 *      completes the survey.
 *
 * Cycle guard: the first step keeps a visited set seeded with the current
 * question, so a jump that lands back on it reports completion. The call
 * then walks on from the candidate, at most len(questions) steps, and
 * reports completion when the walk returns to the candidate or the current
 * question: the candidate sits on a loop the answers cannot leave. A loop
 * reached only further down is left for a later call. Steps are pure
 * functions of the position, so following the returned question reaches
 * completion within len(questions) calls.
 *
 * A loop meant to repeat until a later answer changes (Q3 jumps back to Q2
 * while Q3 is not "done") is reported as a cycle while Q3 is unanswered.
 * Stopping only on loops that hold for the answers given so far is what
 * keeps the guarantee above.
 */

// Outcome explains why navigation stopped where it did. It is diagnostic
// only: callers drive flow from Navigation.Next and Navigation.Done.
type Outcome int

const (
	OutcomeNext Outcome = iota
	OutcomeEndRule
	OutcomeEndOfSurvey
	OutcomeCycle
	OutcomeUnknownQuestion
)

var outcomeNames = map[Outcome]string{
	OutcomeNext:            "next",
	OutcomeEndRule:         "end_rule",
	OutcomeEndOfSurvey:     "end_of_survey",
	OutcomeCycle:           "cycle",
	OutcomeUnknownQuestion: "unknown_question",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	for outcome, name := range outcomeNames {
		if name == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown navigation outcome %q", text)
}

// Navigation is the result of one navigation call.
type Navigation struct {
	Next    types.QuestionID   // empty when Done
	Done    bool               // survey complete
	Outcome Outcome            // reason, for logs and diagnostics
	Path    []types.QuestionID // questions walked by the cycle guard, starting at current
}

// NextQuestion returns the question after current. ok is false when the
// survey is complete, for whatever reason.
func NextQuestion(questions []types.Question, rules []types.LogicRule, current types.QuestionID, answers types.Answers) (types.QuestionID, bool) {
	nav := Navigate(questions, rules, current, answers)
	return nav.Next, !nav.Done
}

// Navigate is NextQuestion with the outcome and traversed path attached.
func Navigate(questions []types.Question, rules []types.LogicRule, current types.QuestionID, answers types.Answers) Navigation {
	pruned := Prune(questions, rules)
	if ShouldEnd(pruned, answers) {
		return Navigation{Done: true, Outcome: OutcomeEndRule}
	}
	groups := GroupByQuestion(pruned)
	p := newPlanner(questions, groups, computeVisible(questions, groups, answers), answers)
	return p.navigate(current)
}

// stepStatus is the result of a single navigation step.
type stepStatus int

const (
	stepNext stepStatus = iota
	stepEnd
	stepCycle
)

// planner holds the per-call indexes shared by every step.
type planner struct {
	ordered []types.Question
	index   map[types.QuestionID]int
	groups  map[types.QuestionID][]types.LogicRule
	visible VisibleSet
	answers types.Answers
}

func newPlanner(questions []types.Question, groups map[types.QuestionID][]types.LogicRule, visible VisibleSet, answers types.Answers) *planner {
	ordered := sortQuestions(questions)
	index := make(map[types.QuestionID]int, len(ordered))
	for i, q := range ordered {
		index[q.ID] = i
	}
	return &planner{
		ordered: ordered,
		index:   index,
		groups:  groups,
		visible: visible,
		answers: answers,
	}
}

func (p *planner) navigate(current types.QuestionID) Navigation {
	if _, ok := p.index[current]; !ok {
		return Navigation{Done: true, Outcome: OutcomeUnknownQuestion}
	}

	path := []types.QuestionID{current}
	candidate, status := p.step(current, map[types.QuestionID]struct{}{current: {}}, &path)
	switch status {
	case stepCycle:
		return Navigation{Done: true, Outcome: OutcomeCycle, Path: path}
	case stepEnd:
		return Navigation{Done: true, Outcome: OutcomeEndOfSurvey, Path: path}
	}

	pos := candidate
	for i := 0; i < len(p.ordered); i++ {
		next, status := p.step(pos, map[types.QuestionID]struct{}{pos: {}}, &path)
		switch status {
		case stepEnd:
			return Navigation{Next: candidate, Outcome: OutcomeNext, Path: path}
		case stepCycle:
			// pos jumps back onto itself.
			next = pos
		}
		if next == candidate || next == current {
			return Navigation{Done: true, Outcome: OutcomeCycle, Path: path}
		}
		if status == stepCycle {
			break
		}
		pos = next
	}
	// The walk loops without passing the candidate again.
	return Navigation{Next: candidate, Outcome: OutcomeNext, Path: path}
}

// step resolves the question after from, marking every question it touches
// as visited.
func (p *planner) step(from types.QuestionID, visited map[types.QuestionID]struct{}, path *[]types.QuestionID) (types.QuestionID, stepStatus) {
	var pos int
	if target, ok := p.jumpTarget(from); ok {
		pos = p.index[target]
	} else {
		pos = p.index[from] + 1
	}

	for ; pos < len(p.ordered); pos++ {
		id := p.ordered[pos].ID
		if _, seen := visited[id]; seen {
			return "", stepCycle
		}
		visited[id] = struct{}{}
		*path = append(*path, id)
		if p.visible.Contains(id) {
			return id, stepNext
		}
	}
	return "", stepEnd
}

// jumpTarget returns the target of the first holding jump_to rule attached
// to question id.
func (p *planner) jumpTarget(id types.QuestionID) (types.QuestionID, bool) {
	jumps := filterActions(p.groups[id], func(a types.Action) bool { return a == types.ActionJumpTo })
	for _, r := range jumps {
		if _, known := p.index[r.TargetQuestionID]; !known {
			continue
		}
		if EvaluateRule(r, p.answers) {
			return r.TargetQuestionID, true
		}
	}
	return "", false
}

// firstVisible returns the first visible question by order.
func (p *planner) firstVisible() (types.QuestionID, bool) {
	for _, q := range p.ordered {
		if p.visible.Contains(q.ID) {
			return q.ID, true
		}
	}
	return "", false
}

// sortQuestions returns questions by ascending order, ties by id.
func sortQuestions(questions []types.Question) []types.Question {
	out := make([]types.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
