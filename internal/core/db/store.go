package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

// Store persists surveys, questions and logic rules. Reads return fresh
// snapshots; the engine never sees rows that are being modified.
type Store struct {
	db      *sqlx.DB
	queries *Queries
	now     func() time.Time
}

// SurveySummary is one row of ListSurveys.
type SurveySummary struct {
	ID    types.SurveyID `json:"id"`
	Title string         `json:"title"`
}

// NewStore loads the named queries and returns a store over db.
// Migrations must already be applied (see MigrateUp).
func NewStore(db *sqlx.DB) (*Store, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, queries: queries, now: time.Now}, nil
}

type surveyRow struct {
	ID    string `db:"survey_id"`
	Title string `db:"title"`
}

type questionRow struct {
	ID       string `db:"question_id"`
	Position int    `db:"position"`
	Type     string `db:"question_type"`
	Required bool   `db:"required"`
	Text     string `db:"text"`
}

func (r questionRow) toQuestion() types.Question {
	return types.Question{
		ID:       types.QuestionID(r.ID),
		Order:    r.Position,
		Type:     types.QuestionType(r.Type),
		Required: r.Required,
		Text:     r.Text,
	}
}

type ruleRow struct {
	ID             string         `db:"rule_id"`
	QuestionID     string         `db:"question_id"`
	SourceID       string         `db:"source_question_id"`
	Operator       string         `db:"operator"`
	ConditionValue string         `db:"condition_value"`
	Action         string         `db:"action"`
	TargetID       sql.NullString `db:"target_question_id"`
	Priority       int            `db:"priority"`
}

func (r ruleRow) toRule() (types.LogicRule, error) {
	op, err := types.ParseOperator(r.Operator)
	if err != nil {
		return types.LogicRule{}, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	action, err := types.ParseAction(r.Action)
	if err != nil {
		return types.LogicRule{}, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return types.LogicRule{
		ID:               types.RuleID(r.ID),
		QuestionID:       types.QuestionID(r.QuestionID),
		SourceQuestionID: types.QuestionID(r.SourceID),
		Operator:         op,
		ConditionValue:   r.ConditionValue,
		Action:           action,
		TargetQuestionID: types.QuestionID(r.TargetID.String),
		Priority:         r.Priority,
	}, nil
}

func toRules(rows []ruleRow) ([]types.LogicRule, error) {
	rules := make([]types.LogicRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func nullTarget(id types.QuestionID) sql.NullString {
	return sql.NullString{String: string(id), Valid: id != ""}
}

func (s *Store) timestamp() any {
	return timestamp(s.db.DriverName(), s.now())
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(s.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateSurvey stores a complete survey. Missing survey, question and rule
// IDs are generated; rules are normalized and the whole survey validated
// before anything is written. Returns the stored snapshot.
func (s *Store) CreateSurvey(ctx context.Context, survey types.Survey) (types.Survey, error) {
	if survey.ID == "" {
		survey.ID = types.NewSurveyID()
	}
	questions := make([]types.Question, len(survey.Questions))
	for i, q := range survey.Questions {
		if q.ID == "" {
			q.ID = types.NewQuestionID()
		}
		if q.Type == "" {
			q.Type = types.QuestionTypeText
		}
		questions[i] = q
	}
	rules := make([]types.LogicRule, len(survey.Rules))
	for i, r := range survey.Rules {
		if r.ID == "" {
			r.ID = types.NewRuleID()
		}
		rules[i] = logic.NormalizeRule(r)
	}
	survey.Questions, survey.Rules = questions, rules

	if err := logic.ValidateSurvey(survey); err != nil {
		return types.Survey{}, err
	}

	err := s.withTx(ctx, func(q *Queries) error {
		now := s.timestamp()
		if _, err := q.Exec(ctx, "create-survey", string(survey.ID), survey.Title, now); err != nil {
			return fmt.Errorf("failed to insert survey: %w", err)
		}
		for _, question := range survey.Questions {
			if err := insertQuestion(ctx, q, survey.ID, question, now); err != nil {
				return err
			}
		}
		for _, rule := range survey.Rules {
			if err := insertRule(ctx, q, survey.ID, rule, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.Survey{}, err
	}
	return survey, nil
}

func insertQuestion(ctx context.Context, q *Queries, surveyID types.SurveyID, question types.Question, now any) error {
	_, err := q.Exec(ctx, "insert-question",
		string(question.ID), string(surveyID), question.Order, string(question.Type),
		question.Required, question.Text, now)
	if err != nil {
		return fmt.Errorf("failed to insert question %s: %w", question.ID, err)
	}
	return nil
}

func insertRule(ctx context.Context, q *Queries, surveyID types.SurveyID, rule types.LogicRule, now any) error {
	_, err := q.Exec(ctx, "insert-rule",
		string(rule.ID), string(surveyID), string(rule.QuestionID), string(rule.SourceQuestionID),
		rule.Operator.String(), rule.ConditionValue, rule.Action.String(),
		nullTarget(rule.TargetQuestionID), rule.Priority, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert rule %s: %w", rule.ID, err)
	}
	return nil
}

// AddQuestion appends a question to an existing survey. Order 0 places the
// question after the current last one.
func (s *Store) AddQuestion(ctx context.Context, surveyID types.SurveyID, question types.Question) (types.Question, error) {
	if question.ID == "" {
		question.ID = types.NewQuestionID()
	}
	if question.Type == "" {
		question.Type = types.QuestionTypeText
	}

	err := s.withTx(ctx, func(q *Queries) error {
		if _, err := getSurvey(ctx, q, surveyID); err != nil {
			return err
		}
		existing, err := listQuestions(ctx, q, surveyID)
		if err != nil {
			return err
		}
		if len(existing) >= types.MaxQuestionsPerSurvey {
			return fmt.Errorf("survey %s: %w", surveyID, types.ErrTooManyQuestions)
		}

		maxOrder := 0
		for _, e := range existing {
			if e.ID == question.ID {
				return fmt.Errorf("question %s: %w", question.ID, types.ErrDuplicateQuestion)
			}
			if question.Order != 0 && e.Order == question.Order {
				return fmt.Errorf("question %s order %d: %w", question.ID, question.Order, types.ErrDuplicateOrder)
			}
			maxOrder = max(maxOrder, e.Order)
		}
		if question.Order == 0 {
			question.Order = maxOrder + 1
		}

		return insertQuestion(ctx, q, surveyID, question, s.timestamp())
	})
	if err != nil {
		return types.Question{}, err
	}
	return question, nil
}

func getSurvey(ctx context.Context, q *Queries, surveyID types.SurveyID) (surveyRow, error) {
	var row surveyRow
	if err := q.Get(ctx, "get-survey", &row, string(surveyID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return surveyRow{}, fmt.Errorf("survey %s: %w", surveyID, types.ErrSurveyNotFound)
		}
		return surveyRow{}, fmt.Errorf("failed to load survey %s: %w", surveyID, err)
	}
	return row, nil
}

func listQuestions(ctx context.Context, q *Queries, surveyID types.SurveyID) ([]types.Question, error) {
	var rows []questionRow
	if err := q.Select(ctx, "list-questions", &rows, string(surveyID)); err != nil {
		return nil, fmt.Errorf("failed to load questions of survey %s: %w", surveyID, err)
	}
	questions := make([]types.Question, len(rows))
	for i, row := range rows {
		questions[i] = row.toQuestion()
	}
	return questions, nil
}

func listSurveyRules(ctx context.Context, q *Queries, surveyID types.SurveyID) ([]types.LogicRule, error) {
	var rows []ruleRow
	if err := q.Select(ctx, "list-survey-rules", &rows, string(surveyID)); err != nil {
		return nil, fmt.Errorf("failed to load rules of survey %s: %w", surveyID, err)
	}
	return toRules(rows)
}

// loadSurvey reads a consistent snapshot through q.
func loadSurvey(ctx context.Context, q *Queries, surveyID types.SurveyID) (types.Survey, error) {
	row, err := getSurvey(ctx, q, surveyID)
	if err != nil {
		return types.Survey{}, err
	}
	questions, err := listQuestions(ctx, q, surveyID)
	if err != nil {
		return types.Survey{}, err
	}
	rules, err := listSurveyRules(ctx, q, surveyID)
	if err != nil {
		return types.Survey{}, err
	}
	return types.Survey{
		ID:        types.SurveyID(row.ID),
		Title:     row.Title,
		Questions: questions,
		Rules:     rules,
	}, nil
}

// LoadSurvey returns the survey snapshot the engine evaluates against.
func (s *Store) LoadSurvey(ctx context.Context, surveyID types.SurveyID) (types.Survey, error) {
	var survey types.Survey
	err := s.withTx(ctx, func(q *Queries) error {
		var err error
		survey, err = loadSurvey(ctx, q, surveyID)
		return err
	})
	return survey, err
}

// ListSurveys returns all surveys ordered by ID.
func (s *Store) ListSurveys(ctx context.Context) ([]SurveySummary, error) {
	var rows []surveyRow
	if err := s.queries.Select(ctx, "list-surveys", &rows); err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	out := make([]SurveySummary, len(rows))
	for i, row := range rows {
		out[i] = SurveySummary{ID: types.SurveyID(row.ID), Title: row.Title}
	}
	return out, nil
}

// requireQuestion checks that questionID belongs to the survey.
func requireQuestion(survey types.Survey, questionID types.QuestionID) error {
	if _, ok := survey.Question(questionID); !ok {
		return fmt.Errorf("question %s: %w", questionID, types.ErrQuestionNotInSurvey)
	}
	return nil
}

// ListRules returns the rules attached to one question in evaluation order.
func (s *Store) ListRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID) ([]types.LogicRule, error) {
	var rules []types.LogicRule
	err := s.withTx(ctx, func(q *Queries) error {
		if _, err := getSurvey(ctx, q, surveyID); err != nil {
			return err
		}
		questions, err := listQuestions(ctx, q, surveyID)
		if err != nil {
			return err
		}
		if err := requireQuestion(types.Survey{Questions: questions}, questionID); err != nil {
			return err
		}

		var rows []ruleRow
		if err := q.Select(ctx, "list-question-rules", &rows, string(surveyID), string(questionID)); err != nil {
			return fmt.Errorf("failed to load rules of question %s: %w", questionID, err)
		}
		rules, err = toRules(rows)
		return err
	})
	return rules, err
}

func getRule(ctx context.Context, q *Queries, surveyID types.SurveyID, ruleID types.RuleID) (types.LogicRule, error) {
	var row ruleRow
	if err := q.Get(ctx, "get-rule", &row, string(surveyID), string(ruleID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.LogicRule{}, fmt.Errorf("rule %s: %w", ruleID, types.ErrRuleNotFound)
		}
		return types.LogicRule{}, fmt.Errorf("failed to load rule %s: %w", ruleID, err)
	}
	return row.toRule()
}

// GetRule returns a single rule of the survey.
func (s *Store) GetRule(ctx context.Context, surveyID types.SurveyID, ruleID types.RuleID) (types.LogicRule, error) {
	return getRule(ctx, s.queries, surveyID, ruleID)
}

// AddRule attaches a new rule to rule.QuestionID. A nil priority appends the
// rule after the question's existing rules (max priority + 1, 0 for the
// first rule).
func (s *Store) AddRule(ctx context.Context, surveyID types.SurveyID, rule types.LogicRule, priority *int) (types.LogicRule, error) {
	rule = logic.NormalizeRule(rule)
	if rule.ID == "" {
		rule.ID = types.NewRuleID()
	}

	err := s.withTx(ctx, func(q *Queries) error {
		survey, err := loadSurvey(ctx, q, surveyID)
		if err != nil {
			return err
		}
		if err := requireQuestion(survey, rule.QuestionID); err != nil {
			return err
		}
		if len(survey.Rules) >= types.MaxRulesPerSurvey {
			return fmt.Errorf("survey %s: %w", surveyID, types.ErrTooManyRules)
		}
		for _, existing := range survey.Rules {
			if existing.ID == rule.ID {
				return fmt.Errorf("rule %s: %w", rule.ID, types.ErrDuplicateRule)
			}
		}

		if priority != nil {
			rule.Priority = *priority
		} else {
			var maxPriority int
			if err := q.Get(ctx, "max-rule-priority", &maxPriority, string(surveyID), string(rule.QuestionID)); err != nil {
				return fmt.Errorf("failed to read rule priorities: %w", err)
			}
			rule.Priority = maxPriority + 1
		}

		if err := logic.ValidateRule(survey.Questions, rule); err != nil {
			return err
		}
		return insertRule(ctx, q, surveyID, rule, s.timestamp())
	})
	if err != nil {
		return types.LogicRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the condition, effect and priority of an existing rule.
// The rule stays attached to its question; a rule.QuestionID naming another
// question fails with ErrRuleNotOnQuestion.
func (s *Store) UpdateRule(ctx context.Context, surveyID types.SurveyID, rule types.LogicRule) (types.LogicRule, error) {
	rule = logic.NormalizeRule(rule)

	err := s.withTx(ctx, func(q *Queries) error {
		survey, err := loadSurvey(ctx, q, surveyID)
		if err != nil {
			return err
		}
		existing, err := getRule(ctx, q, surveyID, rule.ID)
		if err != nil {
			return err
		}
		if existing.QuestionID != rule.QuestionID {
			return fmt.Errorf("rule %s: %w: %s", rule.ID, types.ErrRuleNotOnQuestion, rule.QuestionID)
		}
		if err := logic.ValidateRule(survey.Questions, rule); err != nil {
			return err
		}

		_, err = q.Exec(ctx, "update-rule",
			string(rule.SourceQuestionID), rule.Operator.String(), rule.ConditionValue,
			rule.Action.String(), nullTarget(rule.TargetQuestionID), rule.Priority,
			s.timestamp(), string(surveyID), string(rule.ID))
		if err != nil {
			return fmt.Errorf("failed to update rule %s: %w", rule.ID, err)
		}
		return nil
	})
	if err != nil {
		return types.LogicRule{}, err
	}
	return rule, nil
}

// DeleteRule removes a rule from a question.
func (s *Store) DeleteRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID) error {
	return s.withTx(ctx, func(q *Queries) error {
		if _, err := getSurvey(ctx, q, surveyID); err != nil {
			return err
		}
		existing, err := getRule(ctx, q, surveyID, ruleID)
		if err != nil {
			return err
		}
		if existing.QuestionID != questionID {
			return fmt.Errorf("rule %s: %w: %s", ruleID, types.ErrRuleNotOnQuestion, questionID)
		}
		if _, err := q.Exec(ctx, "delete-rule", string(surveyID), string(questionID), string(ruleID)); err != nil {
			return fmt.Errorf("failed to delete rule %s: %w", ruleID, err)
		}
		return nil
	})
}

// ReorderRules rewrites the priorities of a question's rules so that ids[i]
// gets priority i. ids must name every rule of the question exactly once.
func (s *Store) ReorderRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ids []types.RuleID) error {
	return s.withTx(ctx, func(q *Queries) error {
		survey, err := loadSurvey(ctx, q, surveyID)
		if err != nil {
			return err
		}
		if err := requireQuestion(survey, questionID); err != nil {
			return err
		}

		current := make(map[types.RuleID]struct{})
		for _, rule := range survey.Rules {
			if rule.QuestionID == questionID {
				current[rule.ID] = struct{}{}
			}
		}
		if len(ids) != len(current) {
			return fmt.Errorf("question %s: %w: got %d ids, have %d rules",
				questionID, types.ErrReorderMismatch, len(ids), len(current))
		}
		seen := make(map[types.RuleID]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := current[id]; !ok {
				return fmt.Errorf("question %s: %w: unknown rule %s", questionID, types.ErrReorderMismatch, id)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("question %s: %w: rule %s listed twice", questionID, types.ErrReorderMismatch, id)
			}
			seen[id] = struct{}{}
		}

		now := s.timestamp()
		for i, id := range ids {
			if _, err := q.Exec(ctx, "set-rule-priority", i, now, string(surveyID), string(questionID), string(id)); err != nil {
				return fmt.Errorf("failed to set priority of rule %s: %w", id, err)
			}
		}
		return nil
	})
}
