package proto

import (
	"ZoneCountServer/counter"
	"ZoneCountServer/logger"
	"ZoneCountServer/monitor"
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	counter *counter.Counter
	metrics *monitor.Metrics
}

// NewServer answers queries from c. metrics may be nil.
func NewServer(c *counter.Counter, metrics *monitor.Metrics) *Server {
	return &Server{counter: c, metrics: metrics}
}

func (s *Server) observe() {
	if s.metrics != nil {
		s.metrics.GRPCTotal.Inc()
	}
}

func (s *Server) Counts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.observe()
	snap := s.counter.Snapshot()
	counts := make([]any, len(snap.Counts))
	for i, n := range snap.Counts {
		counts[i] = n
	}
	out, err := structpb.NewStruct(map[string]any{
		"frames": snap.Frames,
		"counts": counts,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode counts: %v", err)
	}
	return out, nil
}

func (s *Server) Zones(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	s.observe()
	zones := s.counter.Zones()
	polys := make([]any, len(zones))
	for i, z := range zones {
		pts := z.Points()
		pairs := make([]any, len(pts))
		for j, p := range pts {
			pairs[j] = []any{p.X, p.Y}
		}
		polys[i] = pairs
	}
	out, err := structpb.NewList(polys)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode zones: %v", err)
	}
	return out, nil
}

func (s *Server) CountFor(ctx context.Context, req *wrapperspb.Int32Value) (*wrapperspb.Int64Value, error) {
	s.observe()
	n, err := s.counter.CountFor(int(req.GetValue()))
	if errors.Is(err, counter.ErrIndexOutOfRange) {
		return nil, status.Error(codes.OutOfRange, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Int64(int64(n)), nil
}

// StartGRPCServer listens on port and serves srv in the background. Stop the
// returned server with GracefulStop.
func StartGRPCServer(port int, srv ZoneCountServiceServer) (*grpc.Server, error) {
	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s := grpc.NewServer()
	RegisterZoneCountServiceServer(s, srv)
	go func() {
		logger.Log().Info("gRPC server listening", zap.String("addr", addr))
		if err := s.Serve(lis); err != nil {
			logger.Log().Error("gRPC server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

// Dial connects a plaintext client to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, ZoneCountServiceClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, NewZoneCountServiceClient(conn), nil
}

// FetchSnapshot calls Counts and decodes the reply.
func FetchSnapshot(ctx context.Context, client ZoneCountServiceClient) (counter.Snapshot, error) {
	reply, err := client.Counts(ctx, &emptypb.Empty{})
	if err != nil {
		return counter.Snapshot{}, err
	}
	fields := reply.GetFields()
	snap := counter.Snapshot{
		Frames: uint64(fields["frames"].GetNumberValue()),
		Counts: []int{},
	}
	for _, v := range fields["counts"].GetListValue().GetValues() {
		snap.Counts = append(snap.Counts, int(v.GetNumberValue()))
	}
	return snap, nil
}
