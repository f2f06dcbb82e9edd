// Package httpapi exposes the logic service over HTTP/JSON with a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/surveyflow/internal/core/api"
	"github.com/solatis/surveyflow/internal/core/config"
	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

const maxBodyBytes = 1 << 20

// Service is the subset of *api.LogicService served over HTTP.
type Service interface {
	Evaluate(ctx context.Context, req *api.EvaluateRequest) (*api.EvaluateResponse, error)
	GetLogicMap(ctx context.Context, req *api.GetLogicMapRequest) (*api.GetLogicMapResponse, error)
	ListRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID) ([]types.LogicRule, error)
	AddRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, in api.RuleInput) (types.LogicRule, error)
	UpdateRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID, in api.RuleInput) (types.LogicRule, error)
	DeleteRule(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, ruleID types.RuleID) error
	ReorderRules(ctx context.Context, surveyID types.SurveyID, questionID types.QuestionID, req *api.ReorderRequest) error
}

// Server routes HTTP requests to the logic service.
type Server struct {
	router  chi.Router
	service Service
	logger  *slog.Logger
	config  *config.ServerConfig
	http    *http.Server
}

// NewServer builds the router. cfg supplies the listen address and timeouts.
func NewServer(cfg *config.ServerConfig, service Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
		config:  cfg,
	}
	s.routes()
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			s.logger.Debug("request",
				"component", "http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"dur", time.Since(start),
			)
		})
	})
	if s.config.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/v1/surveys/{surveyID}", func(r chi.Router) {
		r.Post("/evaluate-logic", s.handleEvaluate)
		r.Get("/logic-map", s.handleLogicMap)
		r.Get("/questions/{questionID}/logic", s.handleListRules)
		r.Post("/questions/{questionID}/logic", s.handleAddRule)
		r.Put("/questions/{questionID}/logic/reorder", s.handleReorder)
		r.Put("/questions/{questionID}/logic/{logicID}", s.handleUpdateRule)
		r.Delete("/questions/{questionID}/logic/{logicID}", s.handleDeleteRule)
	})
}

func surveyParam(r *http.Request) types.SurveyID {
	return types.SurveyID(chi.URLParam(r, "surveyID"))
}

func questionParam(r *http.Request) types.QuestionID {
	return types.QuestionID(chi.URLParam(r, "questionID"))
}

// evaluateBody is the evaluate-logic payload; the survey comes from the path.
type evaluateBody struct {
	CurrentQuestionID *types.QuestionID `json:"currentQuestionId,omitempty"`
	Answers           []api.AnswerInput `json:"answers"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if !s.decode(w, r, &body) {
		return
	}
	resp, err := s.service.Evaluate(r.Context(), &api.EvaluateRequest{
		SurveyID:          surveyParam(r),
		CurrentQuestionID: body.CurrentQuestionID,
		Answers:           body.Answers,
	})
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogicMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.GetLogicMap(r.Context(), &api.GetLogicMapRequest{SurveyID: surveyParam(r)})
	if err != nil {
		s.writeStatusError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, m)
	case "dot":
		s.writeDOT(w, *m)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q (expected json or dot)", format))
	}
}

func (s *Server) writeDOT(w http.ResponseWriter, m logic.Map) {
	dot, err := m.DOT()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, dot)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.ListRules(r.Context(), surveyParam(r), questionParam(r))
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var in api.RuleInput
	if !s.decode(w, r, &in) {
		return
	}
	rule, err := s.service.AddRule(r.Context(), surveyParam(r), questionParam(r), in)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+string(rule.ID))
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var in api.RuleInput
	if !s.decode(w, r, &in) {
		return
	}
	ruleID := types.RuleID(chi.URLParam(r, "logicID"))
	rule, err := s.service.UpdateRule(r.Context(), surveyParam(r), questionParam(r), ruleID, in)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := types.RuleID(chi.URLParam(r, "logicID"))
	if err := s.service.DeleteRule(r.Context(), surveyParam(r), questionParam(r), ruleID); err != nil {
		s.writeStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req api.ReorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.service.ReorderRules(r.Context(), surveyParam(r), questionParam(r), &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst. On failure it writes 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// httpStatus maps gRPC codes returned by the service to HTTP statuses.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeStatusError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	s.writeError(w, httpStatus(st.Code()), errors.New(st.Message()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "component", "http", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "component", "http", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Start listens on the configured HTTP port and serves until Shutdown.
// Returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.HTTPPort))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.logger.Info("http server listening", "component", "http", "addr", listener.Addr().String())
	if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
