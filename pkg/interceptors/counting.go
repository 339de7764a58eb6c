package interceptors

import (
	"context"

	"github.com/transferia/grpcmw/pkg/client"
	"github.com/transferia/grpcmw/pkg/server"
	"go.uber.org/atomic"
)

// ServerCallCounter counts how many calls reached this point of the server
// chain. Used to verify chain wiring: an unimplemented method, or a call
// short-circuited further out, leaves the counter untouched.
type ServerCallCounter struct {
	calls atomic.Int64
}

var _ server.Interceptor = (*ServerCallCounter)(nil)

func NewServerCallCounter() *ServerCallCounter {
	return new(ServerCallCounter)
}

func (c *ServerCallCounter) Calls() int64 {
	return c.calls.Load()
}

func (c *ServerCallCounter) Intercept(ctx context.Context, call *server.Call, req server.Request, next server.Handler) (server.Response, error) {
	c.calls.Inc()
	return next(ctx, req)
}

// ClientCallCounter is the client-side twin: it counts continuation
// invocations that passed through it, e.g. to verify that a caching
// interceptor further out collapsed duplicate calls.
type ClientCallCounter struct {
	calls atomic.Int64
}

var _ client.Interceptor = (*ClientCallCounter)(nil)

func NewClientCallCounter() *ClientCallCounter {
	return new(ClientCallCounter)
}

func (c *ClientCallCounter) Calls() int64 {
	return c.calls.Load()
}

func (c *ClientCallCounter) Intercept(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
	c.calls.Inc()
	return next(ctx, call.Details, req)
}
