package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// timeoutInterceptor bounds every unary call by d. A shorter client
// deadline wins.
func timeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}

// loggingInterceptor logs one line per call. Server-side failures
// (Internal, Unavailable, Unknown) are logged at error level.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{
			"component", "grpc",
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch code {
		case codes.OK:
			logger.DebugContext(ctx, "rpc completed", attrs...)
		case codes.Internal, codes.Unavailable, codes.Unknown:
			logger.ErrorContext(ctx, "rpc failed", append(attrs, "error", err)...)
		default:
			logger.InfoContext(ctx, "rpc rejected", append(attrs, "error", err)...)
		}
		return resp, err
	}
}
