// Package types provides domain models shared across surveyflow components.
//
// The logic engine in internal/logic only reads these values; ownership of
// questions and rules belongs to the authoring layer (internal/core/db and
// internal/core/api). ID utilities in ids.go import uuid and are isolated
// from the value types.
package types

// SurveyID identifies a survey. UUIDv7 when generated by surveyflow.
type SurveyID string

// QuestionID identifies a question within a survey.
type QuestionID string

// RuleID identifies a logic rule.
type RuleID string

// QuestionType mirrors the authoring question types. The engine treats every
// answer as raw text; the type is carried for the logic map and the clients.
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeLongText       QuestionType = "long_text"
	QuestionTypeNumber         QuestionType = "number"
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeNPS            QuestionType = "nps"
	QuestionTypeScale          QuestionType = "scale"
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeEmail          QuestionType = "email"
)

// Question is one survey question as seen by the logic engine.
type Question struct {
	ID       QuestionID   `json:"id" yaml:"id"`
	Order    int          `json:"order" yaml:"order"` // unique within a survey, defines default flow
	Type     QuestionType `json:"type" yaml:"type"`
	Required bool         `json:"required" yaml:"required"`
	Text     string       `json:"text,omitempty" yaml:"text,omitempty"`
}

// LogicRule ties the answer of SourceQuestionID to an effect on QuestionID.
type LogicRule struct {
	ID               RuleID     `json:"id" yaml:"id"`
	QuestionID       QuestionID `json:"questionId" yaml:"question"`
	SourceQuestionID QuestionID `json:"sourceQuestionId" yaml:"source"`
	Operator         Operator   `json:"operator" yaml:"operator"`
	ConditionValue   string     `json:"conditionValue,omitempty" yaml:"value,omitempty"`
	Action           Action     `json:"action" yaml:"action"`
	TargetQuestionID QuestionID `json:"targetQuestionId,omitempty" yaml:"target,omitempty"` // JumpTo only
	Priority         int        `json:"priority" yaml:"priority"`                            // lower evaluates first
}

// HasTarget reports whether the rule carries a jump target.
func (r LogicRule) HasTarget() bool {
	return r.TargetQuestionID != ""
}

// Answers maps a question to its raw answer text. A missing key means the
// question is unanswered; an empty string means answered with nothing.
type Answers map[QuestionID]string

// Lookup returns the raw answer for id and whether one is present.
// Safe on a nil map.
func (a Answers) Lookup(id QuestionID) (string, bool) {
	v, ok := a[id]
	return v, ok
}
