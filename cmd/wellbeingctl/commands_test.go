package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/godilite/wellbeing-server/api/v1"
)

type fakeServer struct {
	pb.UnimplementedWellbeingServer
	mood   *pb.LogMoodRequest
	series *pb.SeriesRequest
	assess *pb.SubmitAssessmentRequest
}

func (f *fakeServer) LogMood(_ context.Context, req *pb.LogMoodRequest) (*pb.WriteResponse, error) {
	f.mood = req
	return &pb.WriteResponse{
		ObservationIDs: []string{"obs-1"},
		Attempts:       1,
		Rollup:         &pb.Rollup{User: req.User, Feature: "mood", HasData: true, Count: 1, DominantLabel: "Happy"},
	}, nil
}

func (f *fakeServer) SubmitAssessment(_ context.Context, req *pb.SubmitAssessmentRequest) (*pb.WriteResponse, error) {
	f.assess = req
	return &pb.WriteResponse{Attempts: 1, Rollup: &pb.Rollup{User: req.User, Count: int64(len(req.Answers))}}, nil
}

func (f *fakeServer) GetSeries(_ context.Context, req *pb.SeriesRequest) (*pb.SeriesResponse, error) {
	f.series = req
	return &pb.SeriesResponse{User: req.User, Feature: req.Feature, End: req.End}, nil
}

func bufDialer(t *testing.T, srv pb.WellbeingServer) dialFunc {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	pb.RegisterWellbeingServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return func(string) (pb.WellbeingClient, io.Closer, error) {
		conn, err := grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, nil, err
		}
		return pb.NewWellbeingClient(conn), conn, nil
	}
}

func execute(t *testing.T, dial dialFunc, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WELLBEING_USER", "")
	var out bytes.Buffer
	root := newRootCmd(dial)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMoodCommand(t *testing.T) {
	srv := &fakeServer{}

	out, err := execute(t, bufDialer(t, srv), "mood", "happy", "--user", "alice", "--stress", "40")

	require.NoError(t, err)
	require.NotNil(t, srv.mood)
	assert.Equal(t, "alice", srv.mood.User)
	assert.Equal(t, "happy", srv.mood.Mood)
	require.NotNil(t, srv.mood.Stress)
	assert.InDelta(t, 40.0, *srv.mood.Stress, 1e-9)

	var resp pb.WriteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Happy", resp.Rollup.DominantLabel)
}

func TestMoodCommand_StressOmitted(t *testing.T) {
	srv := &fakeServer{}

	_, err := execute(t, bufDialer(t, srv), "mood", "2", "-u", "alice")

	require.NoError(t, err)
	assert.Nil(t, srv.mood.Stress)
}

func TestAssessCommand(t *testing.T) {
	srv := &fakeServer{}

	_, err := execute(t, bufDialer(t, srv), "assess", "4", "3", "neutral", "-u", "bob", "--at", "2025-01-03T09:00:00Z")

	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "neutral"}, srv.assess.Answers)
	assert.Equal(t, "2025-01-03T09:00:00Z", srv.assess.Timestamp)
}

func TestSeriesCommand_Flags(t *testing.T) {
	srv := &fakeServer{}

	_, err := execute(t, bufDialer(t, srv), "series", "-u", "carol", "-f", "journal", "--end", "2025-01-31", "--days", "14")

	require.NoError(t, err)
	assert.Equal(t, &pb.SeriesRequest{User: "carol", Feature: "journal", End: "2025-01-31", Days: 14}, srv.series)
}

func TestCommand_RequiresUser(t *testing.T) {
	dialed := false
	dial := func(string) (pb.WellbeingClient, io.Closer, error) {
		dialed = true
		return nil, nil, nil
	}

	_, err := execute(t, dial, "today")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
	assert.False(t, dialed)
}

func TestCommand_ServerError(t *testing.T) {
	_, err := execute(t, bufDialer(t, &fakeServer{}), "trend", "-u", "dave")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unimplemented")
}
