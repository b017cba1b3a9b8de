package v1

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoServer struct {
	UnimplementedWellbeingServer
	seen []string
}

func (e *echoServer) LogMood(_ context.Context, req *LogMoodRequest) (*WriteResponse, error) {
	e.seen = append(e.seen, req.Mood)
	return &WriteResponse{
		ObservationIDs: []string{"id-1"},
		Attempts:       1,
		Rollup:         &Rollup{User: req.User, Feature: "mood", HasData: true, Count: 1, DominantLabel: "Happy"},
	}, nil
}

func dialBuf(t *testing.T, srv WellbeingServer, interceptors ...grpc.UnaryServerInterceptor) WellbeingClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterWellbeingServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewWellbeingClient(conn)
}

func TestWellbeingService_RoundTrip(t *testing.T) {
	srv := &echoServer{}
	var methods []string
	record := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}
	client := dialBuf(t, srv, record)
	stress := 40.0

	resp, err := client.LogMood(context.Background(), &LogMoodRequest{User: "alice", Mood: "happy", Stress: &stress})

	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, resp.ObservationIDs)
	require.NotNil(t, resp.Rollup)
	assert.Equal(t, "alice", resp.Rollup.User)
	assert.Equal(t, "Happy", resp.Rollup.DominantLabel)
	assert.Equal(t, []string{"happy"}, srv.seen)
	assert.Equal(t, []string{Wellbeing_LogMood_FullMethodName}, methods)
}

func TestWellbeingService_Unimplemented(t *testing.T) {
	client := dialBuf(t, &echoServer{})

	_, err := client.GetTrend(context.Background(), &TrendRequest{User: "alice", Feature: "mood"})

	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestCodec(t *testing.T) {
	var c Codec
	assert.Equal(t, "json", c.Name())

	t.Run("plain struct", func(t *testing.T) {
		b, err := c.Marshal(&RollupRequest{User: "bob", Feature: "journal"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"user":"bob","feature":"journal"}`, string(b))

		var out RollupRequest
		require.NoError(t, c.Unmarshal(b, &out))
		assert.Equal(t, RollupRequest{User: "bob", Feature: "journal"}, out)
	})

	t.Run("protobuf message", func(t *testing.T) {
		b, err := c.Marshal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})
		require.NoError(t, err)

		var out healthpb.HealthCheckResponse
		require.NoError(t, c.Unmarshal(b, &out))
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, out.Status)
	})

	t.Run("bad payload", func(t *testing.T) {
		var out RollupRequest
		assert.Error(t, c.Unmarshal([]byte("{"), &out))
	})
}
