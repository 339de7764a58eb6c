package client

import (
	"reflect"

	"github.com/goccy/go-json"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Request is the outbound payload. Unary-request shapes carry the single
// message; stream-request shapes carry no up-front messages (grpc's client
// API is push-based), so message access for those is via wrapping the stream
// the continuation returns.
type Request struct {
	msg       any
	streaming bool
}

func SingleRequest(msg any) Request {
	return Request{msg: msg}
}

func StreamRequest() Request {
	return Request{streaming: true}
}

func (r Request) Streaming() bool {
	return r.streaming
}

func (r Request) Message() any {
	return r.msg
}

// WithMessage returns a copy carrying a substitute message. Only meaningful
// for the single arm.
func (r Request) WithMessage(msg any) Request {
	r.msg = msg
	return r
}

// Response is what the continuation yields: the resolved reply message for
// unary-response shapes, or the in-flight grpc.ClientStream otherwise.
type Response struct {
	msg    any
	stream grpc.ClientStream
}

func SingleResponse(msg any) Response {
	return Response{msg: msg}
}

func StreamResponse(stream grpc.ClientStream) Response {
	return Response{stream: stream}
}

func (r Response) Streaming() bool {
	return r.stream != nil
}

func (r Response) Message() any {
	return r.msg
}

func (r Response) Stream() grpc.ClientStream {
	return r.stream
}

// copyMessage copies a substituted response into the reply message the
// caller handed to the runtime. Proto messages merge through the proto
// runtime; other codecs (plain structs under a custom codec) copy by value.
func copyMessage(dst, src any) error {
	if dstMsg, ok := dst.(proto.Message); ok {
		if srcMsg, ok := src.(proto.Message); ok {
			proto.Reset(dstMsg)
			proto.Merge(dstMsg, srcMsg)
			return nil
		}
	}
	dstVal := reflect.ValueOf(dst)
	srcVal := reflect.ValueOf(src)
	if dstVal.Kind() != reflect.Pointer || dstVal.IsNil() {
		return xerrors.Errorf("cannot copy response into non-pointer %T", dst)
	}
	if srcVal.Type() != dstVal.Type() {
		return xerrors.Errorf("cannot copy response of type %T into %T", src, dst)
	}
	dstVal.Elem().Set(srcVal.Elem())
	return nil
}

// CloneMessage makes an owned deep copy of a message, for interceptors that
// keep responses beyond the call (caches). Proto messages clone through the
// proto runtime; other messages round-trip through their canonical JSON
// encoding, so reference-typed fields never alias the original. Messages
// must survive that round trip to be cloneable.
func CloneMessage(msg any) (any, error) {
	if protoMsg, ok := msg.(proto.Message); ok {
		return proto.Clone(protoMsg), nil
	}
	val := reflect.ValueOf(msg)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return nil, xerrors.Errorf("cannot clone non-pointer message %T", msg)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, xerrors.Errorf("unable to marshal message %T: %w", msg, err)
	}
	clone := reflect.New(val.Type().Elem()).Interface()
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, xerrors.Errorf("unable to unmarshal message %T: %w", msg, err)
	}
	return clone, nil
}
