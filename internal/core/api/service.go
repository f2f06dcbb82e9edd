// Package api provides the survey logic service behind the gRPC and HTTP
// transports.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatis/surveyflow/internal/core/config"
	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

// Store is the persistence used by LogicService. *db.Store implements it.
type Store interface {
	LoadSurvey(ctx context.Context, surveyID types.SurveyID) (types.Survey, error)
	ListRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID) ([]types.LogicRule, error)
	GetRule(ctx context.Context, surveyID types.SurveyID, ruleID types.RuleID) (types.LogicRule, error)
	AddRule(ctx context.Context, surveyID types.SurveyID, rule types.LogicRule, priority *int) (types.LogicRule, error)
	UpdateRule(ctx context.Context, surveyID types.SurveyID, rule types.LogicRule) (types.LogicRule, error)
	DeleteRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID) error
	ReorderRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ids []types.RuleID) error
}

// Evaluator runs the engine over inline survey snapshots. It needs no store.
type Evaluator struct {
	engine *logic.Engine
	limits config.EngineConfig
	logger *slog.Logger
}

// NewEvaluator creates an evaluator enforcing limits on inline surveys.
func NewEvaluator(engine *logic.Engine, limits config.EngineConfig, logger *slog.Logger) (*Evaluator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{engine: engine, limits: limits, logger: logger}, nil
}

// EvaluateSurvey evaluates a caller-supplied survey snapshot.
func (e *Evaluator) EvaluateSurvey(ctx context.Context, req *EvaluateSurveyRequest) (*EvaluateResponse, error) {
	if req == nil {
		return nil, invalidArgumentf("request required")
	}
	if err := e.checkLimits(req.Survey); err != nil {
		return nil, err
	}
	answers, err := toAnswers(req.Answers)
	if err != nil {
		return nil, err
	}
	return e.evaluate(ctx, req.Survey, req.CurrentQuestionID, answers), nil
}

// MapSurvey builds the logic map of a caller-supplied survey snapshot.
func (e *Evaluator) MapSurvey(ctx context.Context, survey types.Survey) (*GetLogicMapResponse, error) {
	if err := e.checkLimits(survey); err != nil {
		return nil, err
	}
	m := logic.BuildMap(survey)
	return &m, nil
}

func (e *Evaluator) checkLimits(survey types.Survey) error {
	if n := len(survey.Questions); n > e.limits.MaxQuestions {
		return invalidArgumentf("%v: %d > %d", types.ErrTooManyQuestions, n, e.limits.MaxQuestions)
	}
	if n := len(survey.Rules); n > e.limits.MaxRules {
		return invalidArgumentf("%v: %d > %d", types.ErrTooManyRules, n, e.limits.MaxRules)
	}
	return nil
}

func (e *Evaluator) evaluate(ctx context.Context, survey types.Survey, current *types.QuestionID, answers types.Answers) *EvaluateResponse {
	eval := e.engine.Evaluate(survey, current, answers)

	switch eval.Outcome {
	case logic.OutcomeCycle:
		e.logger.WarnContext(ctx, "navigation cycle detected",
			"survey_id", survey.ID,
			"question_id", derefQuestion(current),
			"outcome", eval.Outcome.String(),
			"path", eval.Path,
		)
	case logic.OutcomeUnknownQuestion:
		e.logger.InfoContext(ctx, "current question not in survey",
			"survey_id", survey.ID,
			"question_id", derefQuestion(current),
		)
	default:
		e.logger.DebugContext(ctx, "evaluated survey logic",
			"survey_id", survey.ID,
			"question_id", derefQuestion(current),
			"outcome", eval.Outcome.String(),
			"visible", len(eval.VisibleQuestionIDs),
		)
	}
	return &eval
}

func derefQuestion(id *types.QuestionID) types.QuestionID {
	if id == nil {
		return ""
	}
	return *id
}

// LogicService orchestrates the store and the engine. Thin layer: the
// engine decides, the store persists, this maps errors to status codes.
type LogicService struct {
	*Evaluator
	store Store
}

// NewLogicService creates service instance with dependencies.
func NewLogicService(store Store, engine *logic.Engine, cfg *config.EngineConfig, logger *slog.Logger) (*LogicService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	evaluator, err := NewEvaluator(engine, *cfg, logger)
	if err != nil {
		return nil, err
	}
	return &LogicService{Evaluator: evaluator, store: store}, nil
}

func requireSurveyID(id types.SurveyID) error {
	if id == "" {
		return invalidArgumentf("surveyId required")
	}
	return nil
}

// Evaluate loads the survey and evaluates the answer snapshot against it.
func (s *LogicService) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	if req == nil {
		return nil, invalidArgumentf("request required")
	}
	if err := requireSurveyID(req.SurveyID); err != nil {
		return nil, err
	}
	answers, err := toAnswers(req.Answers)
	if err != nil {
		return nil, err
	}

	survey, err := s.store.LoadSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, statusError(err)
	}
	return s.evaluate(ctx, survey, req.CurrentQuestionID, answers), nil
}

// GetLogicMap returns the graph view of a stored survey.
func (s *LogicService) GetLogicMap(ctx context.Context, req *GetLogicMapRequest) (*GetLogicMapResponse, error) {
	if req == nil {
		return nil, invalidArgumentf("request required")
	}
	if err := requireSurveyID(req.SurveyID); err != nil {
		return nil, err
	}
	survey, err := s.store.LoadSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, statusError(err)
	}
	m := logic.BuildMap(survey)
	return &m, nil
}

// ListRules returns the rules of one question in evaluation order.
func (s *LogicService) ListRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID) ([]types.LogicRule, error) {
	rules, err := s.store.ListRules(ctx, surveyID, questionID)
	if err != nil {
		return nil, statusError(err)
	}
	return rules, nil
}

// AddRule attaches a new rule to questionID.
func (s *LogicService) AddRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, in RuleInput) (types.LogicRule, error) {
	rule := types.LogicRule{
		QuestionID:       questionID,
		SourceQuestionID: in.SourceQuestionID,
		Operator:         in.Operator,
		ConditionValue:   in.ConditionValue,
		Action:           in.Action,
		TargetQuestionID: in.TargetQuestionID,
	}
	created, err := s.store.AddRule(ctx, surveyID, rule, in.Priority)
	if err != nil {
		return types.LogicRule{}, statusError(err)
	}
	s.logger.InfoContext(ctx, "logic rule added",
		"survey_id", surveyID,
		"question_id", questionID,
		"rule_id", created.ID,
		"priority", created.Priority,
	)
	return created, nil
}

// UpdateRule replaces an existing rule of questionID.
func (s *LogicService) UpdateRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID, in RuleInput) (types.LogicRule, error) {
	rule := types.LogicRule{
		ID:               ruleID,
		QuestionID:       questionID,
		SourceQuestionID: in.SourceQuestionID,
		Operator:         in.Operator,
		ConditionValue:   in.ConditionValue,
		Action:           in.Action,
		TargetQuestionID: in.TargetQuestionID,
	}
	if in.Priority != nil {
		rule.Priority = *in.Priority
	} else {
		existing, err := s.store.GetRule(ctx, surveyID, ruleID)
		if err != nil {
			return types.LogicRule{}, statusError(err)
		}
		rule.Priority = existing.Priority
	}

	updated, err := s.store.UpdateRule(ctx, surveyID, rule)
	if err != nil {
		return types.LogicRule{}, statusError(err)
	}
	s.logger.InfoContext(ctx, "logic rule updated", "survey_id", surveyID, "rule_id", ruleID)
	return updated, nil
}

// DeleteRule removes a rule from questionID.
func (s *LogicService) DeleteRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID) error {
	if err := s.store.DeleteRule(ctx, surveyID, questionID, ruleID); err != nil {
		return statusError(err)
	}
	s.logger.InfoContext(ctx, "logic rule deleted", "survey_id", surveyID, "rule_id", ruleID)
	return nil
}

// ReorderRules sets rule priorities of questionID to the order of req.RuleIDs.
func (s *LogicService) ReorderRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, req *ReorderRequest) error {
	if req == nil {
		return invalidArgumentf("request required")
	}
	if err := s.store.ReorderRules(ctx, surveyID, questionID, req.RuleIDs); err != nil {
		return statusError(err)
	}
	return nil
}
