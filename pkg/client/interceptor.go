// Package client adapts a single Intercept callback to the client-side entry
// points the grpc runtime invokes around an outbound call. The callback
// receives the continuation and invokes it itself, so chaining is each
// adapter wrapping the next continuation before delegating.
package client

import (
	"context"

	"github.com/transferia/grpcmw/pkg/grpcutil"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
)

// Call describes the outbound RPC as seen when the interceptor runs:
// the initial details plus the call shape. NameErr is non-nil (and Name
// zero) when the method path is not of the "/package.Service/Method" form.
type Call struct {
	Details           CallDetails
	Name              grpcutil.MethodName
	NameErr           error
	RequestStreaming  bool
	ResponseStreaming bool
}

func newCall(ctx context.Context, method string, requestStreaming, responseStreaming bool) *Call {
	name, err := grpcutil.ParseMethodName(method)
	return &Call{
		Details:           newCallDetails(ctx, method),
		Name:              name,
		NameErr:           err,
		RequestStreaming:  requestStreaming,
		ResponseStreaming: responseStreaming,
	}
}

// Continuation proceeds with the invocation: the next interceptor in the
// chain, or the transport itself. Interceptors may pass modified details and
// a modified request, and may invoke it more than once (retries) or not at
// all (caches, short circuits).
type Continuation func(ctx context.Context, details CallDetails, req Request) (Response, error)

// Interceptor is the single client-side extension point.
//
// One instance is shared by every concurrent call on the channel it is
// registered on, so any mutable state it keeps must be concurrency safe.
type Interceptor interface {
	Intercept(ctx context.Context, call *Call, req Request, next Continuation) (Response, error)
}

// InterceptorFunc adapts a closure to an Interceptor.
type InterceptorFunc func(ctx context.Context, call *Call, req Request, next Continuation) (Response, error)

func (f InterceptorFunc) Intercept(ctx context.Context, call *Call, req Request, next Continuation) (Response, error) {
	return f(ctx, call, req, next)
}

// UnaryInterceptor adapts an Interceptor to the runtime shape for unary
// calls. If the interceptor returns a response message other than the one
// the continuation produced (a cache hit, say), it is copied into the
// caller's reply.
func UnaryInterceptor(ic Interceptor) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		call := newCall(ctx, method, false, false)
		next := func(ctx context.Context, details CallDetails, r Request) (Response, error) {
			ctx, callOpts, cancel := details.apply(ctx, opts)
			if cancel != nil {
				defer cancel()
			}
			if err := invoker(ctx, details.Method, r.Message(), reply, cc, callOpts...); err != nil {
				return Response{}, err
			}
			return SingleResponse(reply), nil
		}
		resp, err := ic.Intercept(ctx, call, SingleRequest(req), next)
		if err != nil {
			return err
		}
		if msg := resp.Message(); msg != nil && msg != reply {
			return copyMessage(reply, msg)
		}
		return nil
	}
}

// StreamInterceptor adapts an Interceptor to the runtime shape for the three
// streaming call shapes. The continuation's Response wraps the
// grpc.ClientStream; interceptors observe or rewrite individual messages by
// returning a wrapped stream.
func StreamInterceptor(ic Interceptor) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		call := newCall(ctx, method, desc.ClientStreams, desc.ServerStreams)
		next := func(ctx context.Context, details CallDetails, _ Request) (Response, error) {
			ctx, callOpts, cancel := details.apply(ctx, opts)
			cs, err := streamer(ctx, desc, cc, details.Method, callOpts...)
			if err != nil {
				if cancel != nil {
					cancel()
				}
				return Response{}, err
			}
			if cancel != nil {
				cs = &cancelOnFinishStream{ClientStream: cs, cancel: cancel}
			}
			return StreamResponse(cs), nil
		}
		resp, err := ic.Intercept(ctx, call, StreamRequest(), next)
		if err != nil {
			return nil, err
		}
		if !resp.Streaming() {
			return nil, xerrors.Errorf("interceptor returned a non-stream response for streaming call %s", method)
		}
		return resp.Stream(), nil
	}
}

// cancelOnFinishStream releases a per-call timeout once the stream is done.
type cancelOnFinishStream struct {
	grpc.ClientStream
	cancel context.CancelFunc
}

func (s *cancelOnFinishStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if err != nil {
		s.cancel()
	}
	return err
}

// DialOptions registers interceptors on a client connection via the
// runtime's own chaining; ordering follows registration order outward.
func DialOptions(interceptors ...Interceptor) []grpc.DialOption {
	unary := make([]grpc.UnaryClientInterceptor, 0, len(interceptors))
	stream := make([]grpc.StreamClientInterceptor, 0, len(interceptors))
	for _, ic := range interceptors {
		unary = append(unary, UnaryInterceptor(ic))
		stream = append(stream, StreamInterceptor(ic))
	}
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(unary...),
		grpc.WithChainStreamInterceptor(stream...),
	}
}
