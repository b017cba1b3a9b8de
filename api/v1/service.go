package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "wellbeing.v1.Wellbeing"

const (
	Wellbeing_SubmitJournal_FullMethodName    = "/wellbeing.v1.Wellbeing/SubmitJournal"
	Wellbeing_LogMood_FullMethodName          = "/wellbeing.v1.Wellbeing/LogMood"
	Wellbeing_SubmitAssessment_FullMethodName = "/wellbeing.v1.Wellbeing/SubmitAssessment"
	Wellbeing_GetToday_FullMethodName         = "/wellbeing.v1.Wellbeing/GetToday"
	Wellbeing_GetHistory_FullMethodName       = "/wellbeing.v1.Wellbeing/GetHistory"
	Wellbeing_GetWeekly_FullMethodName        = "/wellbeing.v1.Wellbeing/GetWeekly"
	Wellbeing_GetSeries_FullMethodName        = "/wellbeing.v1.Wellbeing/GetSeries"
	Wellbeing_GetTrend_FullMethodName         = "/wellbeing.v1.Wellbeing/GetTrend"
	Wellbeing_GetPending_FullMethodName       = "/wellbeing.v1.Wellbeing/GetPending"
)

// WellbeingServer is the server API for the wellbeing.v1.Wellbeing service.
// Implementations must embed UnimplementedWellbeingServer.
type WellbeingServer interface {
	SubmitJournal(context.Context, *SubmitJournalRequest) (*WriteResponse, error)
	LogMood(context.Context, *LogMoodRequest) (*WriteResponse, error)
	SubmitAssessment(context.Context, *SubmitAssessmentRequest) (*WriteResponse, error)
	GetToday(context.Context, *RollupRequest) (*RollupResponse, error)
	GetHistory(context.Context, *RollupRequest) (*HistoryResponse, error)
	GetWeekly(context.Context, *SeriesRequest) (*SeriesResponse, error)
	GetSeries(context.Context, *SeriesRequest) (*SeriesResponse, error)
	GetTrend(context.Context, *TrendRequest) (*TrendResponse, error)
	GetPending(context.Context, *PendingRequest) (*PendingResponse, error)
	mustEmbedUnimplementedWellbeingServer()
}

type UnimplementedWellbeingServer struct{}

func (UnimplementedWellbeingServer) SubmitJournal(context.Context, *SubmitJournalRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitJournal not implemented")
}
func (UnimplementedWellbeingServer) LogMood(context.Context, *LogMoodRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LogMood not implemented")
}
func (UnimplementedWellbeingServer) SubmitAssessment(context.Context, *SubmitAssessmentRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitAssessment not implemented")
}
func (UnimplementedWellbeingServer) GetToday(context.Context, *RollupRequest) (*RollupResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetToday not implemented")
}
func (UnimplementedWellbeingServer) GetHistory(context.Context, *RollupRequest) (*HistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHistory not implemented")
}
func (UnimplementedWellbeingServer) GetWeekly(context.Context, *SeriesRequest) (*SeriesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetWeekly not implemented")
}
func (UnimplementedWellbeingServer) GetSeries(context.Context, *SeriesRequest) (*SeriesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSeries not implemented")
}
func (UnimplementedWellbeingServer) GetTrend(context.Context, *TrendRequest) (*TrendResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTrend not implemented")
}
func (UnimplementedWellbeingServer) GetPending(context.Context, *PendingRequest) (*PendingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPending not implemented")
}
func (UnimplementedWellbeingServer) mustEmbedUnimplementedWellbeingServer() {}

func RegisterWellbeingServer(s grpc.ServiceRegistrar, srv WellbeingServer) {
	s.RegisterService(&Wellbeing_ServiceDesc, srv)
}

// unary builds a grpc.MethodHandler that decodes Req and dispatches to call
// through the server's interceptor chain.
func unary[Req any, Resp any](fullMethod string, call func(WellbeingServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WellbeingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WellbeingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var Wellbeing_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WellbeingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitJournal", Handler: unary(Wellbeing_SubmitJournal_FullMethodName, WellbeingServer.SubmitJournal)},
		{MethodName: "LogMood", Handler: unary(Wellbeing_LogMood_FullMethodName, WellbeingServer.LogMood)},
		{MethodName: "SubmitAssessment", Handler: unary(Wellbeing_SubmitAssessment_FullMethodName, WellbeingServer.SubmitAssessment)},
		{MethodName: "GetToday", Handler: unary(Wellbeing_GetToday_FullMethodName, WellbeingServer.GetToday)},
		{MethodName: "GetHistory", Handler: unary(Wellbeing_GetHistory_FullMethodName, WellbeingServer.GetHistory)},
		{MethodName: "GetWeekly", Handler: unary(Wellbeing_GetWeekly_FullMethodName, WellbeingServer.GetWeekly)},
		{MethodName: "GetSeries", Handler: unary(Wellbeing_GetSeries_FullMethodName, WellbeingServer.GetSeries)},
		{MethodName: "GetTrend", Handler: unary(Wellbeing_GetTrend_FullMethodName, WellbeingServer.GetTrend)},
		{MethodName: "GetPending", Handler: unary(Wellbeing_GetPending_FullMethodName, WellbeingServer.GetPending)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wellbeing/v1/wellbeing",
}

// WellbeingClient is the client API for the wellbeing.v1.Wellbeing service.
type WellbeingClient interface {
	SubmitJournal(ctx context.Context, in *SubmitJournalRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	LogMood(ctx context.Context, in *LogMoodRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	SubmitAssessment(ctx context.Context, in *SubmitAssessmentRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	GetToday(ctx context.Context, in *RollupRequest, opts ...grpc.CallOption) (*RollupResponse, error)
	GetHistory(ctx context.Context, in *RollupRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	GetWeekly(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (*SeriesResponse, error)
	GetSeries(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (*SeriesResponse, error)
	GetTrend(ctx context.Context, in *TrendRequest, opts ...grpc.CallOption) (*TrendResponse, error)
	GetPending(ctx context.Context, in *PendingRequest, opts ...grpc.CallOption) (*PendingResponse, error)
}

type wellbeingClient struct {
	cc grpc.ClientConnInterface
}

// NewWellbeingClient returns a client that sends every call with the JSON codec.
func NewWellbeingClient(cc grpc.ClientConnInterface) WellbeingClient {
	return &wellbeingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *wellbeingClient) SubmitJournal(ctx context.Context, in *SubmitJournalRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, Wellbeing_SubmitJournal_FullMethodName, in, opts)
}

func (c *wellbeingClient) LogMood(ctx context.Context, in *LogMoodRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, Wellbeing_LogMood_FullMethodName, in, opts)
}

func (c *wellbeingClient) SubmitAssessment(ctx context.Context, in *SubmitAssessmentRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, Wellbeing_SubmitAssessment_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetToday(ctx context.Context, in *RollupRequest, opts ...grpc.CallOption) (*RollupResponse, error) {
	return invoke[RollupResponse](ctx, c.cc, Wellbeing_GetToday_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetHistory(ctx context.Context, in *RollupRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, Wellbeing_GetHistory_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetWeekly(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (*SeriesResponse, error) {
	return invoke[SeriesResponse](ctx, c.cc, Wellbeing_GetWeekly_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetSeries(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (*SeriesResponse, error) {
	return invoke[SeriesResponse](ctx, c.cc, Wellbeing_GetSeries_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetTrend(ctx context.Context, in *TrendRequest, opts ...grpc.CallOption) (*TrendResponse, error) {
	return invoke[TrendResponse](ctx, c.cc, Wellbeing_GetTrend_FullMethodName, in, opts)
}

func (c *wellbeingClient) GetPending(ctx context.Context, in *PendingRequest, opts ...grpc.CallOption) (*PendingResponse, error) {
	return invoke[PendingResponse](ctx, c.cc, Wellbeing_GetPending_FullMethodName, in, opts)
}
