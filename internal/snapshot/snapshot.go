// Package snapshot reads survey and answer fixtures from YAML.
//
// A survey file lists questions and rules:
//
//	id: onboarding
//	questions:
//	  - id: q1
//	    order: 1
//	    type: yes_no
//	    text: Do you use the product daily?
//	rules:
//	  - question: q3
//	    source: q1
//	    operator: equals
//	    value: "no"
//	    action: hide
//
// An answer file is a flat map from question id to raw answer text.
// Rules without an id get a positional one so resolver ties stay stable
// in file order; questions without an order are numbered by position.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

// LoadSurvey reads and validates a survey file.
func LoadSurvey(path string) (types.Survey, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Survey{}, fmt.Errorf("open survey file: %w", err)
	}
	defer f.Close()

	survey, err := DecodeSurvey(f)
	if err != nil {
		return types.Survey{}, fmt.Errorf("%s: %w", path, err)
	}
	return survey, nil
}

// DecodeSurvey decodes, normalizes and validates one survey document.
// Unknown keys are rejected.
func DecodeSurvey(r io.Reader) (types.Survey, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var survey types.Survey
	if err := dec.Decode(&survey); err != nil {
		if errors.Is(err, io.EOF) {
			return types.Survey{}, fmt.Errorf("decode survey: empty document")
		}
		return types.Survey{}, fmt.Errorf("decode survey: %w", err)
	}

	fillDefaults(&survey)
	if err := logic.ValidateSurvey(survey); err != nil {
		return types.Survey{}, fmt.Errorf("validate survey: %w", err)
	}
	return survey, nil
}

func fillDefaults(survey *types.Survey) {
	for i := range survey.Questions {
		if survey.Questions[i].Order == 0 {
			survey.Questions[i].Order = i + 1
		}
		if survey.Questions[i].Type == "" {
			survey.Questions[i].Type = types.QuestionTypeText
		}
	}
	for i := range survey.Rules {
		r := logic.NormalizeRule(survey.Rules[i])
		if r.ID == "" {
			r.ID = types.RuleID(fmt.Sprintf("rule-%04d", i+1))
		}
		survey.Rules[i] = r
	}
}

// LoadAnswers reads an answer file.
func LoadAnswers(path string) (types.Answers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open answers file: %w", err)
	}
	defer f.Close()

	answers, err := DecodeAnswers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return answers, nil
}

// DecodeAnswers decodes a question-to-answer map. An empty document is an
// empty snapshot. Explicit nulls mark a question as unanswered.
func DecodeAnswers(r io.Reader) (types.Answers, error) {
	var raw map[types.QuestionID]*string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode answers: %w", err)
	}

	answers := make(types.Answers, len(raw))
	for id, v := range raw {
		if v == nil {
			continue
		}
		answers[id] = *v
	}
	return answers, nil
}

// EncodeSurvey writes a survey in the fixture layout.
func EncodeSurvey(w io.Writer, survey types.Survey) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(survey); err != nil {
		return fmt.Errorf("encode survey: %w", err)
	}
	return enc.Close()
}
