package types

import "fmt"

/*
 * Closed enums for logic rules.
 *
 * Operator and Action are the only two dispatch points of the logic engine.
 * Both have a zero "unspecified" value that never matches and never acts, so
 * a rule decoded from an unknown name is inert rather than misinterpreted.
 *
 * Text form (snake_case) is the single representation used by YAML fixtures,
 * JSON DTOs and database columns.
 */

// Operator is the comparison applied between a source answer and a rule's
// condition value.
type Operator int

const (
	OperatorUnspecified Operator = iota
	OperatorEquals
	OperatorNotEquals
	OperatorContains
	OperatorNotContains
	OperatorGreaterThan
	OperatorLessThan
	OperatorGreaterThanOrEquals
	OperatorLessThanOrEquals
	OperatorIsEmpty
	OperatorIsNotEmpty
	OperatorIsAnswered
	OperatorIsNotAnswered
)

var operatorNames = map[Operator]string{
	OperatorUnspecified:         "unspecified",
	OperatorEquals:              "equals",
	OperatorNotEquals:           "not_equals",
	OperatorContains:            "contains",
	OperatorNotContains:         "not_contains",
	OperatorGreaterThan:         "greater_than",
	OperatorLessThan:            "less_than",
	OperatorGreaterThanOrEquals: "greater_than_or_equals",
	OperatorLessThanOrEquals:    "less_than_or_equals",
	OperatorIsEmpty:             "is_empty",
	OperatorIsNotEmpty:          "is_not_empty",
	OperatorIsAnswered:          "is_answered",
	OperatorIsNotAnswered:       "is_not_answered",
}

// Valid reports whether op is one of the twelve defined operators.
func (op Operator) Valid() bool {
	return op > OperatorUnspecified && op <= OperatorIsNotAnswered
}

// RequiresValue reports whether op compares against a condition value.
// The four presence operators take no operand.
func (op Operator) RequiresValue() bool {
	switch op {
	case OperatorIsEmpty, OperatorIsNotEmpty, OperatorIsAnswered, OperatorIsNotAnswered:
		return false
	default:
		return op.Valid()
	}
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// ParseOperator converts a snake_case name to an Operator.
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s && op != OperatorUnspecified {
			return op, nil
		}
	}
	return OperatorUnspecified, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// MarshalText implements encoding.TextMarshaler.
func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Operator) UnmarshalText(text []byte) error {
	parsed, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Action is the effect of a rule whose condition holds.
type Action int

const (
	ActionUnspecified Action = iota
	ActionShow
	ActionHide
	ActionSkip
	ActionJumpTo
	ActionEndSurvey
)

var actionNames = map[Action]string{
	ActionUnspecified: "unspecified",
	ActionShow:        "show",
	ActionHide:        "hide",
	ActionSkip:        "skip",
	ActionJumpTo:      "jump_to",
	ActionEndSurvey:   "end_survey",
}

// Valid reports whether a is one of the five defined actions.
func (a Action) Valid() bool {
	return a > ActionUnspecified && a <= ActionEndSurvey
}

// AffectsVisibility reports whether a participates in the visibility pass.
func (a Action) AffectsVisibility() bool {
	return a == ActionShow || a == ActionHide || a == ActionSkip
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction converts a snake_case name to an Action.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s && a != ActionUnspecified {
			return a, nil
		}
	}
	return ActionUnspecified, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
