package server

import (
	"context"
	"io"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
)

func wrapStream(ss grpc.ServerStream, ctx context.Context) *grpc_middleware.WrappedServerStream {
	return &grpc_middleware.WrappedServerStream{ServerStream: ss, WrappedContext: ctx}
}

// captureStream is the handler's view of a call whose response is a single
// message: requests are pulled through the (possibly interceptor-wrapped)
// RecvStream, the one response message is captured instead of hitting the
// wire.
type captureStream struct {
	*grpc_middleware.WrappedServerStream
	recv     RecvStream
	response any
}

func (s *captureStream) RecvMsg(m any) error {
	return s.recv.RecvMsg(m)
}

func (s *captureStream) SendMsg(m any) error {
	s.response = m
	return nil
}

// pipeStream is the handler's view of a server-streaming call: sends go into
// the response pipe that the consumer side of the chain drains.
type pipeStream struct {
	*grpc_middleware.WrappedServerStream
	recv RecvStream
	pipe *responsePipe
}

func (s *pipeStream) RecvMsg(m any) error {
	return s.recv.RecvMsg(m)
}

func (s *pipeStream) SendMsg(m any) error {
	return s.pipe.push(m)
}

// responsePipe carries response messages from the producer goroutine running
// the handler to whoever drains the Response stream. The buffer is one
// message deep so the producer stays at most one item ahead of the consumer;
// cancelling the call context unblocks both sides.
type responsePipe struct {
	ctx context.Context
	ch  chan any
	err error
}

func newResponsePipe(ctx context.Context) *responsePipe {
	return &responsePipe{
		ctx: ctx,
		ch:  make(chan any, 1),
	}
}

func (p *responsePipe) push(m any) error {
	select {
	case p.ch <- m:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// finish records the handler outcome and closes the pipe. Must be called
// exactly once, after the handler returns; the error write happens before
// the close, so Next observes it once the channel drains.
func (p *responsePipe) finish(err error) {
	p.err = err
	close(p.ch)
}

func (p *responsePipe) Next() (any, error) {
	select {
	case m, ok := <-p.ch:
		if ok {
			return m, nil
		}
		if p.err != nil {
			return nil, p.err
		}
		return nil, io.EOF
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}
}
