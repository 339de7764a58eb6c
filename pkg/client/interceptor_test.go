package client_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/transferia/grpcmw/pkg/client"
	"github.com/transferia/grpcmw/pkg/grpcutil"
	"github.com/transferia/grpcmw/pkg/server"
	"github.com/transferia/grpcmw/pkg/testservice"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func passthrough() client.Interceptor {
	return client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		return next(ctx, call.Details, req)
	})
}

func newHarness(t *testing.T, serverICs []server.Interceptor, clientICs ...client.Interceptor) *testservice.Harness {
	h, err := testservice.NewHarness(testservice.NewEchoService(), serverICs, clientICs)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestClientPassthroughAllShapes(t *testing.T) {
	h := newHarness(t, nil, passthrough())
	ctx := context.Background()

	out, err := h.Execute(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, "test", out)

	concatenated, err := h.ExecuteClientStream(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "ab", concatenated)

	streamed, err := h.ExecuteServerStream(ctx, "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"h", "i"}, streamed)

	echoed, err := h.ExecuteClientServerStream(ctx, []string{"x", "y"})
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, echoed)
}

func TestClientChainOrder(t *testing.T) {
	var markers []string
	var mutex sync.Mutex
	marker := func(name string) client.Interceptor {
		return client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
			mutex.Lock()
			markers = append(markers, name+":pre")
			mutex.Unlock()
			resp, err := next(ctx, call.Details, req)
			mutex.Lock()
			markers = append(markers, name+":post")
			mutex.Unlock()
			return resp, err
		})
	}
	h := newHarness(t, nil, marker("A"), marker("B"))

	_, err := h.Execute(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"A:pre", "B:pre", "B:post", "A:post"}, markers)
}

func TestClientShortCircuitWithoutContinuation(t *testing.T) {
	shortCircuit := client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		return client.SingleResponse(&testservice.EchoResponse{Output: "from the interceptor"}), nil
	})
	h := newHarness(t, nil, shortCircuit)

	out, err := h.Execute(context.Background(), "ignored")
	require.NoError(t, err)
	require.Equal(t, "from the interceptor", out)
}

func TestClientMetadataRewriteObservedByServer(t *testing.T) {
	var observed []string
	var mutex sync.Mutex
	recorder := server.InterceptorFunc(func(ctx context.Context, call *server.Call, req server.Request, next server.Handler) (server.Response, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			mutex.Lock()
			observed = append(observed, md.Get("x-request-source")...)
			mutex.Unlock()
		}
		return next(ctx, req)
	})
	tagger := client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		return next(ctx, call.Details.WithAppendedMetadata("x-request-source", "grpcmw-test"), req)
	})
	h := newHarness(t, []server.Interceptor{recorder}, tagger)

	_, err := h.Execute(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []string{"grpcmw-test"}, observed)
}

func TestClientRequestRewrite(t *testing.T) {
	rewriter := client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		return next(ctx, call.Details, req.WithMessage(&testservice.EchoRequest{Input: "rewritten"}))
	})
	h := newHarness(t, nil, rewriter)

	out, err := h.Execute(context.Background(), "original")
	require.NoError(t, err)
	require.Equal(t, "rewritten", out)
}

func TestClientStreamWrapping(t *testing.T) {
	var recvCount int
	var mutex sync.Mutex
	observer := client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		resp, err := next(ctx, call.Details, req)
		if err != nil {
			return client.Response{}, err
		}
		return client.StreamResponse(&countingStream{ClientStream: resp.Stream(), count: &recvCount, mutex: &mutex}), nil
	})
	h := newHarness(t, nil, observer)

	outputs, err := h.ExecuteServerStream(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, outputs)
	mutex.Lock()
	defer mutex.Unlock()
	require.Equal(t, 3, recvCount)
}

type countingStream struct {
	grpc.ClientStream
	count *int
	mutex *sync.Mutex
}

func (s *countingStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if err == nil {
		s.mutex.Lock()
		*s.count++
		s.mutex.Unlock()
	}
	return err
}

func TestClientMalformedMethodPathIsReported(t *testing.T) {
	var observed *client.Call
	ic := client.InterceptorFunc(func(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
		observed = call
		return next(ctx, call.Details, req)
	})
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return nil
	}

	reply := new(testservice.EchoResponse)
	err := client.UnaryInterceptor(ic)(context.Background(), "no-leading-slash",
		&testservice.EchoRequest{Input: "x"}, reply, nil, invoker)
	require.NoError(t, err)
	require.Error(t, observed.NameErr)
	require.Equal(t, grpcutil.MethodName{}, observed.Name)

	err = client.UnaryInterceptor(ic)(context.Background(), testservice.ExecuteMethod,
		&testservice.EchoRequest{Input: "x"}, reply, nil, invoker)
	require.NoError(t, err)
	require.NoError(t, observed.NameErr)
	require.Equal(t, testservice.ServiceName, observed.Name.FullyQualifiedService())
}
