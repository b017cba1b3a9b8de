package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Observer receives the outcome of every unary call.
type Observer interface {
	Observe(method, code string, d time.Duration)
}

// LoggingInterceptor creates a gRPC unary interceptor for request/response logging.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		clientAddr := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			clientAddr = p.Addr.String()
		}

		resp, err := handler(ctx, req)
		duration := time.Since(start)
		st := status.Convert(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("client_addr", clientAddr),
			zap.Duration("duration", duration),
			zap.String("status_code", st.Code().String()),
		}
		if err != nil {
			logger.Warn("gRPC request failed", append(fields, zap.String("status_message", st.Message()))...)
		} else {
			logger.Info("gRPC request completed", fields...)
		}

		return resp, err
	}
}

// MetricsInterceptor reports each call's status code and duration to obs.
func MetricsInterceptor(obs Observer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		obs.Observe(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}
