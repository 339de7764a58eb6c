// Package testservice is a minimal echo service for exercising interceptors:
// one method per call shape, inputs mapped to outputs through registrable
// special cases so tests can trigger transformations and failures at exact
// points.
package testservice

import (
	"context"
	"io"
	"strings"

	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
)

const (
	ServiceName = "grpcmw.test.EchoService"

	ExecuteMethod                   = "/" + ServiceName + "/Execute"
	ExecuteClientStreamMethod       = "/" + ServiceName + "/ExecuteClientStream"
	ExecuteServerStreamMethod       = "/" + ServiceName + "/ExecuteServerStream"
	ExecuteClientServerStreamMethod = "/" + ServiceName + "/ExecuteClientServerStream"
)

type EchoRequest struct {
	Input string `json:"input"`
}

type EchoResponse struct {
	Output string `json:"output"`
}

// SpecialCase rewrites (or fails) the output for a given input.
type SpecialCase func(input string) (string, error)

// StreamCase produces the server-streaming responses for a given input,
// emitting zero or more messages before optionally failing. Lets tests
// place a failure between two successfully delivered items.
type StreamCase func(input string, send func(output string) error) error

// EchoServer is the service contract the handcrafted ServiceDesc dispatches
// to. Streaming methods work on the raw grpc.ServerStream.
type EchoServer interface {
	Execute(ctx context.Context, req *EchoRequest) (*EchoResponse, error)
	ExecuteClientStream(stream grpc.ServerStream) error
	ExecuteServerStream(req *EchoRequest, stream grpc.ServerStream) error
	ExecuteClientServerStream(stream grpc.ServerStream) error
}

// EchoService echoes inputs back. Execute returns the input unchanged,
// ExecuteClientStream concatenates all inputs, ExecuteServerStream streams
// the input one rune per message, ExecuteClientServerStream echoes each
// input as it arrives.
type EchoService struct {
	specialCases map[string]SpecialCase
	streamCases  map[string]StreamCase
}

var _ EchoServer = (*EchoService)(nil)

type EchoOption func(*EchoService)

func WithSpecialCase(input string, fn SpecialCase) EchoOption {
	return func(s *EchoService) {
		s.specialCases[input] = fn
	}
}

func WithStreamCase(input string, fn StreamCase) EchoOption {
	return func(s *EchoService) {
		s.streamCases[input] = fn
	}
}

func NewEchoService(opts ...EchoOption) *EchoService {
	s := &EchoService{
		specialCases: map[string]SpecialCase{},
		streamCases:  map[string]StreamCase{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EchoService) output(input string) (string, error) {
	if fn, ok := s.specialCases[input]; ok {
		return fn(input)
	}
	return input, nil
}

func (s *EchoService) Execute(ctx context.Context, req *EchoRequest) (*EchoResponse, error) {
	output, err := s.output(req.Input)
	if err != nil {
		return nil, err
	}
	return &EchoResponse{Output: output}, nil
}

func (s *EchoService) ExecuteClientStream(stream grpc.ServerStream) error {
	var outputs strings.Builder
	for {
		req := new(EchoRequest)
		if err := stream.RecvMsg(req); err != nil {
			if xerrors.Is(err, io.EOF) {
				break
			}
			return err
		}
		output, err := s.output(req.Input)
		if err != nil {
			return err
		}
		outputs.WriteString(output)
	}
	return stream.SendMsg(&EchoResponse{Output: outputs.String()})
}

func (s *EchoService) ExecuteServerStream(req *EchoRequest, stream grpc.ServerStream) error {
	send := func(output string) error {
		return stream.SendMsg(&EchoResponse{Output: output})
	}
	if fn, ok := s.streamCases[req.Input]; ok {
		return fn(req.Input, send)
	}
	output, err := s.output(req.Input)
	if err != nil {
		return err
	}
	for _, r := range output {
		if err := send(string(r)); err != nil {
			return err
		}
	}
	return nil
}

func (s *EchoService) ExecuteClientServerStream(stream grpc.ServerStream) error {
	for {
		req := new(EchoRequest)
		if err := stream.RecvMsg(req); err != nil {
			if xerrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		output, err := s.output(req.Input)
		if err != nil {
			return err
		}
		if err := stream.SendMsg(&EchoResponse{Output: output}); err != nil {
			return err
		}
	}
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EchoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EchoServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EchoServer).Execute(ctx, req.(*EchoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func executeClientStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(EchoServer).ExecuteClientStream(stream)
}

func executeServerStreamHandler(srv any, stream grpc.ServerStream) error {
	in := new(EchoRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(EchoServer).ExecuteServerStream(in, stream)
}

func executeClientServerStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(EchoServer).ExecuteClientServerStream(stream)
}

// ServiceDesc registers the echo service the same way generated code would.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EchoServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ExecuteClientStream", Handler: executeClientStreamHandler, ClientStreams: true},
		{StreamName: "ExecuteServerStream", Handler: executeServerStreamHandler, ServerStreams: true},
		{StreamName: "ExecuteClientServerStream", Handler: executeClientServerStreamHandler, ClientStreams: true, ServerStreams: true},
	},
	Metadata: "testservice/service.go",
}
