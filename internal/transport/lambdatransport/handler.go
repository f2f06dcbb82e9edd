// Package lambdatransport serves stateless survey evaluation behind API
// Gateway (HTTP API, payload v2). Requests carry the survey snapshot inline.
package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"google.golang.org/grpc/status"

	"github.com/solatis/surveyflow/internal/core/api"
	"github.com/solatis/surveyflow/internal/types"
)

// Evaluator is implemented by *api.Evaluator.
type Evaluator interface {
	EvaluateSurvey(ctx context.Context, req *api.EvaluateSurveyRequest) (*api.EvaluateResponse, error)
	MapSurvey(ctx context.Context, survey types.Survey) (*api.GetLogicMapResponse, error)
}

type Handler struct {
	svc Evaluator
}

func NewHandler(svc Evaluator) *Handler {
	return &Handler{svc: svc}
}

// EvaluateRequest is the evaluate payload. Debug adds the navigation path.
type EvaluateRequest struct {
	api.EvaluateSurveyRequest
	Debug bool `json:"debug"`
}

// EvaluateResponse wraps the evaluation with the optional path.
type EvaluateResponse struct {
	*api.EvaluateResponse
	Path []types.QuestionID `json:"path,omitempty"`
}

// MapRequest is the logic-map payload.
type MapRequest struct {
	Survey types.Survey `json:"survey"`
}

// Handle routes on the request path: paths ending in /logic-map build the
// logic map, everything else evaluates.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := req.RawPath
	if path == "" {
		path = req.RequestContext.HTTP.Path
	}
	if strings.HasSuffix(strings.TrimSuffix(path, "/"), "/logic-map") {
		return h.LogicMap(ctx, req)
	}
	return h.Evaluate(ctx, req)
}

// Evaluate runs the engine over the inline survey.
func (h *Handler) Evaluate(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in EvaluateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}

	eval, err := h.svc.EvaluateSurvey(ctx, &in.EvaluateSurveyRequest)
	if err != nil {
		st, _ := status.FromError(err)
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "evaluate failed", "details": st.Message()}), nil
	}

	out := EvaluateResponse{EvaluateResponse: eval}
	if in.Debug {
		out.Path = eval.Path
	}
	return jsonResp(http.StatusOK, out), nil
}

// LogicMap returns the logic map of the inline survey, as DOT when the
// query string has format=dot.
func (h *Handler) LogicMap(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in MapRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}

	m, err := h.svc.MapSurvey(ctx, in.Survey)
	if err != nil {
		st, _ := status.FromError(err)
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "logic map failed", "details": st.Message()}), nil
	}
	if req.QueryStringParameters["format"] != "dot" {
		return jsonResp(http.StatusOK, m), nil
	}

	dot, err := m.DOT()
	if err != nil {
		return jsonResp(http.StatusInternalServerError, map[string]any{"error": "render failed", "details": err.Error()}), nil
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "text/vnd.graphviz"},
		Body:       dot,
	}, nil
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
