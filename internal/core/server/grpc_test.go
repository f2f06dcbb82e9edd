package server

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solatis/surveyflow/internal/core/api"
	"github.com/solatis/surveyflow/internal/core/config"
	"github.com/solatis/surveyflow/internal/logic"
	"github.com/solatis/surveyflow/internal/types"
)

type fakeLogic struct {
	block bool
}

func (f *fakeLogic) Evaluate(ctx context.Context, req *api.EvaluateRequest) (*api.EvaluateResponse, error) {
	if f.block {
		<-ctx.Done()
		return nil, status.FromContextError(ctx.Err()).Err()
	}
	if req.SurveyID != "s1" {
		return nil, status.Error(codes.NotFound, "survey not found")
	}
	next := types.QuestionID("q2")
	return &api.EvaluateResponse{
		VisibleQuestionIDs: []types.QuestionID{"q1", "q2"},
		NextQuestionID:     &next,
		Outcome:            logic.OutcomeNext,
	}, nil
}

func (f *fakeLogic) GetLogicMap(ctx context.Context, req *api.GetLogicMapRequest) (*api.GetLogicMapResponse, error) {
	return &api.GetLogicMapResponse{
		SurveyID: req.SurveyID,
		Nodes:    []logic.Node{{ID: "q1", Order: 1}},
		Edges: []logic.Edge{{
			ID: "r1", SourceID: "q1", TargetID: "q1",
			Operator: types.OperatorIsAnswered, Action: types.ActionShow,
		}},
	}, nil
}

func startBufServer(t *testing.T, svc LogicServer, timeout time.Duration) (*grpc.ClientConn, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.DefaultConfig().Server
	cfg.RequestTimeout = timeout
	cfg.ShutdownTimeout = time.Second

	srv, err := NewGRPCServer(&cfg, svc, logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, &logs
}

func TestNewGRPCServer_RequiresDependencies(t *testing.T) {
	cfg := config.DefaultConfig().Server
	_, err := NewGRPCServer(nil, &fakeLogic{}, nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(&cfg, nil, nil)
	assert.Error(t, err)
}

func TestLogicService_EvaluateOverJSONCodec(t *testing.T) {
	conn, logs := startBufServer(t, &fakeLogic{}, time.Second)
	client := NewLogicClient(conn)

	resp, err := client.Evaluate(context.Background(), &api.EvaluateRequest{SurveyID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, []types.QuestionID{"q1", "q2"}, resp.VisibleQuestionIDs)
	require.NotNil(t, resp.NextQuestionID)
	assert.Equal(t, types.QuestionID("q2"), *resp.NextQuestionID)
	assert.Equal(t, logic.OutcomeNext, resp.Outcome)

	assert.Contains(t, logs.String(), evaluateMethod)
}

func TestLogicService_StatusPropagates(t *testing.T) {
	conn, _ := startBufServer(t, &fakeLogic{}, time.Second)

	_, err := NewLogicClient(conn).Evaluate(context.Background(), &api.EvaluateRequest{SurveyID: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestLogicService_GetLogicMap(t *testing.T) {
	conn, _ := startBufServer(t, &fakeLogic{}, time.Second)

	m, err := NewLogicClient(conn).GetLogicMap(context.Background(), &api.GetLogicMapRequest{SurveyID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, types.SurveyID("s1"), m.SurveyID)
	require.Len(t, m.Edges, 1)
	assert.Equal(t, types.OperatorIsAnswered, m.Edges[0].Operator)
	assert.Equal(t, types.ActionShow, m.Edges[0].Action)
}

func TestTimeoutInterceptor(t *testing.T) {
	conn, _ := startBufServer(t, &fakeLogic{block: true}, 50*time.Millisecond)

	_, err := NewLogicClient(conn).Evaluate(context.Background(), &api.EvaluateRequest{SurveyID: "s1"})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestHealthService(t *testing.T) {
	conn, _ := startBufServer(t, &fakeLogic{}, time.Second)
	health := grpc_health_v1.NewHealthClient(conn)

	for _, service := range []string{"", LogicServiceName} {
		resp, err := health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status, "service %q", service)
	}
}

func TestJSONCodec(t *testing.T) {
	var c jsonCodec
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
	require.NoError(t, err)
	assert.Contains(t, string(data), "SERVING")

	var decoded grpc_health_v1.HealthCheckResponse
	require.NoError(t, c.Unmarshal(data, &decoded))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, decoded.Status)

	data, err = c.Marshal(&api.GetLogicMapRequest{SurveyID: "s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"surveyId":"s1"}`, string(data))
}
