// Package server adapts a single Intercept callback to the server-side entry
// points the grpc runtime dispatches through. One implementation of
// Interceptor covers all four call shapes; registration, chaining and
// unimplemented-method handling stay with the runtime.
package server

import (
	"context"
	"io"

	"github.com/transferia/grpcmw/pkg/grpcutil"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
)

// Call describes the RPC being dispatched. It is built once per call, before
// any interceptor or handler code runs.
type Call struct {
	FullMethod string
	// Name is the parsed FullMethod. grpc guarantees the
	// "/package.Service/Method" form, so NameErr is non-nil (and Name zero)
	// only for handcrafted service descs with malformed method paths.
	Name    grpcutil.MethodName
	NameErr error
	// RequestStreaming and ResponseStreaming identify the call shape.
	RequestStreaming  bool
	ResponseStreaming bool
}

func newCall(fullMethod string, requestStreaming, responseStreaming bool) *Call {
	name, err := grpcutil.ParseMethodName(fullMethod)
	return &Call{
		FullMethod:        fullMethod,
		Name:              name,
		NameErr:           err,
		RequestStreaming:  requestStreaming,
		ResponseStreaming: responseStreaming,
	}
}

// Handler continues the call: either the next interceptor in the chain or
// the service method itself.
type Handler func(ctx context.Context, req Request) (Response, error)

// Interceptor is the single extension point. Implementations inspect or
// rewrite the request, delegate to next (or not), and inspect or rewrite the
// result. Errors from next must be returned as-is unless the interceptor
// deliberately translates them; the adapters never swallow anything.
//
// One instance is shared by every concurrent call reaching the server it is
// registered on, so any mutable state it keeps must be concurrency safe.
type Interceptor interface {
	Intercept(ctx context.Context, call *Call, req Request, next Handler) (Response, error)
}

// InterceptorFunc adapts a closure to an Interceptor.
type InterceptorFunc func(ctx context.Context, call *Call, req Request, next Handler) (Response, error)

func (f InterceptorFunc) Intercept(ctx context.Context, call *Call, req Request, next Handler) (Response, error) {
	return f(ctx, call, req, next)
}

// UnaryInterceptor adapts an Interceptor to the runtime shape for
// unary-unary calls. The request is presented as a single message.
func UnaryInterceptor(ic Interceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		call := newCall(info.FullMethod, false, false)
		next := func(ctx context.Context, r Request) (Response, error) {
			resp, err := handler(ctx, r.Message())
			if err != nil {
				return Response{}, err
			}
			return SingleResponse(resp), nil
		}
		resp, err := ic.Intercept(ctx, call, SingleRequest(req), next)
		if err != nil {
			return nil, err
		}
		return resp.Message(), nil
	}
}

// StreamInterceptor adapts an Interceptor to the runtime shape for the three
// streaming call shapes. The request is always presented as a RecvStream,
// even for server-streaming calls whose logical request is a single message:
// grpc deserializes stream messages only when the handler pulls them, so the
// message is not available before the chain runs. Call.RequestStreaming
// reports the logical arity.
//
// For server-streaming calls the handler runs as a producer goroutine
// feeding a bounded pipe, and next returns a lazy Response stream
// immediately; an error raised after the Nth message surfaces after exactly
// N messages were delivered. For unary-response shapes the handler runs
// synchronously and its single response message is captured.
func StreamInterceptor(ic Interceptor) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		call := newCall(info.FullMethod, info.IsClientStream, info.IsServerStream)
		ctx := ss.Context()
		next := func(ctx context.Context, req Request) (Response, error) {
			recv := requestRecv(ss, req)
			if !info.IsServerStream {
				capture := &captureStream{
					WrappedServerStream: wrapStream(ss, ctx),
					recv:                recv,
				}
				if err := handler(srv, capture); err != nil {
					return Response{}, err
				}
				return SingleResponse(capture.response), nil
			}
			pipe := newResponsePipe(ctx)
			go func() {
				pipe.finish(handler(srv, &pipeStream{
					WrappedServerStream: wrapStream(ss, ctx),
					recv:                recv,
					pipe:                pipe,
				}))
			}()
			return StreamResponse(pipe), nil
		}

		resp, err := ic.Intercept(ctx, call, StreamRequest(ss), next)
		if err != nil {
			return err
		}
		if resp.Streaming() {
			return drainResponses(ss, resp.Stream())
		}
		if msg := resp.Message(); msg != nil {
			return ss.SendMsg(msg)
		}
		return nil
	}
}

func requestRecv(ss grpc.ServerStream, req Request) RecvStream {
	if req.Streaming() {
		return req.Stream()
	}
	return ss
}

func drainResponses(ss grpc.ServerStream, stream Stream) error {
	for {
		msg, err := stream.Next()
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := ss.SendMsg(msg); err != nil {
			return err
		}
	}
}

// ServerOptions registers interceptors on a grpc server via the runtime's
// own chaining, which preserves nested-middleware ordering: pre-processing
// in registration order, post-processing in reverse.
func ServerOptions(interceptors ...Interceptor) []grpc.ServerOption {
	unary := make([]grpc.UnaryServerInterceptor, 0, len(interceptors))
	stream := make([]grpc.StreamServerInterceptor, 0, len(interceptors))
	for _, ic := range interceptors {
		unary = append(unary, UnaryInterceptor(ic))
		stream = append(stream, StreamInterceptor(ic))
	}
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	}
}
