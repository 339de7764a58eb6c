package interceptors

import (
	"context"
	"fmt"
	"io"

	"github.com/transferia/grpcmw/pkg/grpcerr"
	"github.com/transferia/grpcmw/pkg/grpcutil"
	"github.com/transferia/grpcmw/pkg/server"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorHandler is the extension point for translating error types this
// package does not know about. Returning a non-nil error makes it the final
// annotated failure; returning nil falls through to the default
// classification. Handlers must not swallow failures: whatever they return
// still propagates to the runtime.
type ErrorHandler func(ctx context.Context, call *server.Call, err error) error

// ErrToStatus is a server interceptor that annotates failures with a gRPC
// status and keeps them propagating. grpcerr errors map to their own
// code/details; context cancellation and deadline expiry map to CANCELLED
// and DEADLINE_EXCEEDED; errors that already carry a status pass through
// untouched; anything else gets the configured unknown-error status, or, if
// none is configured, propagates for the runtime's UNKNOWN default.
//
// The annotation wraps the original error, so outer interceptors still
// observe the failure: a call never looks successful to one observer and
// failed to another.
type ErrToStatus struct {
	unknownStatus    codes.Code
	unknownStatusSet bool
	handler          ErrorHandler
}

var _ server.Interceptor = (*ErrToStatus)(nil)

type ErrToStatusOption func(*ErrToStatus)

// WithUnknownStatus sets the status code applied to errors that are neither
// grpcerr errors nor status carriers. Must not be OK.
func WithUnknownStatus(code codes.Code) ErrToStatusOption {
	return func(e *ErrToStatus) {
		e.unknownStatus = code
		e.unknownStatusSet = true
	}
}

// WithErrorHandler installs the custom classification hook, consulted before
// the default behavior.
func WithErrorHandler(handler ErrorHandler) ErrToStatusOption {
	return func(e *ErrToStatus) {
		e.handler = handler
	}
}

func NewErrToStatus(opts ...ErrToStatusOption) (*ErrToStatus, error) {
	e := new(ErrToStatus)
	for _, opt := range opts {
		opt(e)
	}
	if e.unknownStatusSet && e.unknownStatus == codes.OK {
		return nil, xerrors.New("the status code for unknown errors cannot be OK")
	}
	return e, nil
}

func (e *ErrToStatus) Intercept(ctx context.Context, call *server.Call, req server.Request, next server.Handler) (server.Response, error) {
	resp, err := next(ctx, req)
	if err != nil {
		return server.Response{}, e.translate(ctx, call, err)
	}
	if !resp.Streaming() {
		return resp, nil
	}
	// lazily produced responses can fail mid-stream; translate there too
	stream := resp.Stream()
	return server.StreamResponse(server.StreamFunc(func() (any, error) {
		msg, err := stream.Next()
		if err != nil && !xerrors.Is(err, io.EOF) {
			return nil, e.translate(ctx, call, err)
		}
		return msg, err
	})), nil
}

func (e *ErrToStatus) translate(ctx context.Context, call *server.Call, err error) error {
	if e.handler != nil {
		if translated := e.handler(ctx, call, err); translated != nil {
			return translated
		}
	}
	// cancellation is a first-class outcome, not an unknown exception
	if xerrors.Is(err, context.Canceled) {
		return Annotate(err, status.New(codes.Canceled, grpcerr.Cancelled().Details()))
	}
	if xerrors.Is(err, context.DeadlineExceeded) {
		return Annotate(err, status.New(codes.DeadlineExceeded, grpcerr.DeadlineExceeded().Details()))
	}
	var grpcErr *grpcerr.Error
	if xerrors.As(err, &grpcErr) {
		return Annotate(err, grpcErr.GRPCStatus())
	}
	if ok, _ := grpcutil.UnwrapStatusError(err); ok {
		// an inner hop already set the status; do not override it
		return err
	}
	if e.unknownStatusSet {
		return Annotate(err, status.New(e.unknownStatus, renderError(err)))
	}
	return err
}

func renderError(err error) string {
	return fmt.Sprintf("%T(%v)", err, err)
}

// Annotate attaches a gRPC status to an error without breaking the original
// chain: the runtime reports the status, xerrors.Is/As still reach the
// cause.
func Annotate(err error, st *status.Status) error {
	return &statusError{err: err, st: st}
}

type statusError struct {
	err error
	st  *status.Status
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) GRPCStatus() *status.Status {
	return e.st
}
