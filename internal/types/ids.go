package types

import (
	"github.com/google/uuid"
)

// NewSurveyID generates a UUIDv7 survey identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSurveyID() SurveyID {
	return SurveyID(uuid.Must(uuid.NewV7()).String())
}

// NewQuestionID generates a UUIDv7 question identifier.
func NewQuestionID() QuestionID {
	return QuestionID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
// Time-ordered IDs keep the resolver's id tie-break aligned with creation order.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}
