package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/solatis/surveyflow/internal/core/api"
)

// LogicServiceName is the fully-qualified gRPC service name.
const LogicServiceName = "surveyflow.logic.v1.LogicService"

const (
	evaluateMethod    = "/" + LogicServiceName + "/Evaluate"
	getLogicMapMethod = "/" + LogicServiceName + "/GetLogicMap"
)

// LogicServer is the server API for the logic service. *api.LogicService
// implements it.
type LogicServer interface {
	Evaluate(context.Context, *api.EvaluateRequest) (*api.EvaluateResponse, error)
	GetLogicMap(context.Context, *api.GetLogicMapRequest) (*api.GetLogicMapResponse, error)
}

// RegisterLogicServer registers srv on s.
func RegisterLogicServer(s grpc.ServiceRegistrar, srv LogicServer) {
	s.RegisterService(&logicServiceDesc, srv)
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(api.EvaluateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogicServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LogicServer).Evaluate(ctx, req.(*api.EvaluateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getLogicMapHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(api.GetLogicMapRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogicServer).GetLogicMap(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getLogicMapMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LogicServer).GetLogicMap(ctx, req.(*api.GetLogicMapRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var logicServiceDesc = grpc.ServiceDesc{
	ServiceName: LogicServiceName,
	HandlerType: (*LogicServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "GetLogicMap", Handler: getLogicMapHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surveyflow/logic/v1/logic.json",
}

// LogicClient calls the logic service over the JSON codec.
type LogicClient struct {
	cc grpc.ClientConnInterface
}

// NewLogicClient wraps an established connection.
func NewLogicClient(cc grpc.ClientConnInterface) *LogicClient {
	return &LogicClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

// Evaluate calls LogicService.Evaluate.
func (c *LogicClient) Evaluate(ctx context.Context, in *api.EvaluateRequest, opts ...grpc.CallOption) (*api.EvaluateResponse, error) {
	out := new(api.EvaluateResponse)
	if err := c.cc.Invoke(ctx, evaluateMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLogicMap calls LogicService.GetLogicMap.
func (c *LogicClient) GetLogicMap(ctx context.Context, in *api.GetLogicMapRequest, opts ...grpc.CallOption) (*api.GetLogicMapResponse, error) {
	out := new(api.GetLogicMapResponse)
	if err := c.cc.Invoke(ctx, getLogicMapMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
