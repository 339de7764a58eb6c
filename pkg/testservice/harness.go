package testservice

import (
	"context"
	"io"
	"net"

	"github.com/transferia/grpcmw/pkg/client"
	"github.com/transferia/grpcmw/pkg/server"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// Harness runs an echo service over an in-memory connection with the given
// server and client interceptors installed, and exposes one typed client
// method per call shape.
type Harness struct {
	server   *grpc.Server
	listener *bufconn.Listener
	conn     *grpc.ClientConn
}

func NewHarness(service EchoServer, serverInterceptors []server.Interceptor, clientInterceptors []client.Interceptor) (*Harness, error) {
	listener := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer(server.ServerOptions(serverInterceptors...)...)
	grpcServer.RegisterService(&ServiceDesc, service)
	go func() {
		_ = grpcServer.Serve(listener)
	}()

	dialOpts := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	dialOpts = append(dialOpts, client.DialOptions(clientInterceptors...)...)
	conn, err := grpc.NewClient("passthrough:///bufnet", dialOpts...)
	if err != nil {
		grpcServer.Stop()
		return nil, xerrors.Errorf("unable to dial harness server: %w", err)
	}
	return &Harness{server: grpcServer, listener: listener, conn: conn}, nil
}

func (h *Harness) Close() {
	_ = h.conn.Close()
	h.server.Stop()
	_ = h.listener.Close()
}

// Conn exposes the raw connection for calls outside the typed helpers,
// e.g. dialing an unregistered method.
func (h *Harness) Conn() *grpc.ClientConn {
	return h.conn
}

func (h *Harness) Execute(ctx context.Context, input string) (string, error) {
	resp := new(EchoResponse)
	if err := h.conn.Invoke(ctx, ExecuteMethod, &EchoRequest{Input: input}, resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (h *Harness) ExecuteClientStream(ctx context.Context, inputs []string) (string, error) {
	desc := &grpc.StreamDesc{StreamName: "ExecuteClientStream", ClientStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, ExecuteClientStreamMethod)
	if err != nil {
		return "", err
	}
	for _, input := range inputs {
		if err := stream.SendMsg(&EchoRequest{Input: input}); err != nil {
			return "", err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return "", err
	}
	resp := new(EchoResponse)
	if err := stream.RecvMsg(resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

// ExecuteServerStream collects the response stream for one input. On a
// mid-stream failure the outputs delivered before the failure are returned
// alongside the error.
func (h *Harness) ExecuteServerStream(ctx context.Context, input string) ([]string, error) {
	desc := &grpc.StreamDesc{StreamName: "ExecuteServerStream", ServerStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, ExecuteServerStreamMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&EchoRequest{Input: input}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return collectResponses(stream)
}

func (h *Harness) ExecuteClientServerStream(ctx context.Context, inputs []string) ([]string, error) {
	desc := &grpc.StreamDesc{StreamName: "ExecuteClientServerStream", ClientStreams: true, ServerStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, ExecuteClientServerStreamMethod)
	if err != nil {
		return nil, err
	}
	for _, input := range inputs {
		if err := stream.SendMsg(&EchoRequest{Input: input}); err != nil {
			return nil, err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return collectResponses(stream)
}

func collectResponses(stream grpc.ClientStream) ([]string, error) {
	var outputs []string
	for {
		resp := new(EchoResponse)
		if err := stream.RecvMsg(resp); err != nil {
			if xerrors.Is(err, io.EOF) {
				return outputs, nil
			}
			return outputs, err
		}
		outputs = append(outputs, resp.Output)
	}
}
