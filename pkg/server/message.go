package server

// RecvStream pulls inbound messages the way grpc.ServerStream.RecvMsg does:
// the caller supplies the destination message. grpc.ServerStream itself
// satisfies this interface, and interceptors layer transformations by
// wrapping the stream they are given.
type RecvStream interface {
	RecvMsg(m any) error
}

// Stream is a lazily produced sequence of response messages, terminated by
// io.EOF. An error from Next surfaces at exactly the position where the
// producer failed.
type Stream interface {
	Next() (any, error)
}

// StreamFunc adapts a closure to a Stream.
type StreamFunc func() (any, error)

func (f StreamFunc) Next() (any, error) {
	return f()
}

// Request is either a single message (unary-request shapes dispatched
// through the unary adapter) or a RecvStream (everything dispatched through
// the stream adapter). Exactly one arm is set.
type Request struct {
	msg    any
	stream RecvStream
}

func SingleRequest(msg any) Request {
	return Request{msg: msg}
}

func StreamRequest(stream RecvStream) Request {
	return Request{stream: stream}
}

func (r Request) Streaming() bool {
	return r.stream != nil
}

// Message returns the request message; nil for the streaming arm.
func (r Request) Message() any {
	return r.msg
}

// Stream returns the request stream; nil for the single arm.
func (r Request) Stream() RecvStream {
	return r.stream
}

// Response is either a single message or a lazily produced Stream. Exactly
// one arm is set.
type Response struct {
	msg    any
	stream Stream
}

func SingleResponse(msg any) Response {
	return Response{msg: msg}
}

func StreamResponse(stream Stream) Response {
	return Response{stream: stream}
}

func (r Response) Streaming() bool {
	return r.stream != nil
}

func (r Response) Message() any {
	return r.msg
}

func (r Response) Stream() Stream {
	return r.stream
}
