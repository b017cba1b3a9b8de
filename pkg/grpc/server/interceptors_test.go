package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) Observe(method, code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+" "+code)
}

func (r *recordingObserver) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestLoggingInterceptor(t *testing.T) {
	interceptor := LoggingInterceptor(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/TestMethod"}

	t.Run("successful request", func(t *testing.T) {
		resp, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
			return "success", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	})

	t.Run("error request keeps the status", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
			return nil, status.Error(codes.InvalidArgument, "test error")
		})

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestMetricsInterceptor(t *testing.T) {
	obs := &recordingObserver{}
	interceptor := MetricsInterceptor(obs)
	info := &grpc.UnaryServerInfo{FullMethod: "/wellbeing.v1.Wellbeing/LogMood"}

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) { return "ok", nil })
	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Aborted, "could not save entry, please retry")
	})

	assert.Equal(t, []string{
		"/wellbeing.v1.Wellbeing/LogMood OK",
		"/wellbeing.v1.Wellbeing/LogMood Aborted",
	}, obs.snapshot())
}

func TestNew_InvalidPort(t *testing.T) {
	_, err := New(WithPort(70000))
	assert.Error(t, err)

	_, err = New(WithPort(-1))
	assert.Error(t, err)
}

func TestServerBuilder_HealthAndShutdown(t *testing.T) {
	obs := &recordingObserver{}
	server, err := New(
		WithPort(0),
		WithLogger(zaptest.NewLogger(t)),
		WithLogging(true),
		WithMetrics(obs),
	)
	require.NoError(t, err)
	require.NotNil(t, server.healthServer)

	server.RegisterServiceWithHealth("wellbeing.v1.Wellbeing", func(*grpc.Server) {})
	server.Start()

	conn, err := grpc.NewClient(server.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	healthClient := healthpb.NewHealthClient(conn)

	resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "wellbeing.v1.Wellbeing"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	assert.Contains(t, obs.snapshot(), "/grpc.health.v1.Health/Check OK")

	server.SetServiceHealth("wellbeing.v1.Wellbeing", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "wellbeing.v1.Wellbeing"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelShutdown()
	assert.NoError(t, server.Shutdown(shutdownCtx))
}
