// Package grpcerr is a catalogue of the standard gRPC failure categories as
// returnable errors. Business logic returns these from anywhere beneath the
// interceptors.ErrToStatus interceptor, which turns them into the call status.
//
// See https://grpc.github.io/grpc/core/md_doc_statuscodes.html for the source
// of truth on status code meanings.
package grpcerr

import (
	"fmt"

	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is a protocol failure: a non-OK status code plus human-readable
// details. It implements GRPCStatus so the grpc runtime and the status
// package resolve it to the right wire status without translation.
type Error struct {
	kind    Kind
	details string
}

var _ error = (*Error)(nil)

// New constructs a failure with an explicit status code. The only use case
// over the per-kind constructors is a status code this package has no kind
// for. The code must not be OK: gRPC does not deliver an error to the client
// for an OK status.
func New(code codes.Code, details string) (*Error, error) {
	if code == codes.OK {
		return nil, xerrors.New("the status code for an error cannot be OK")
	}
	kind, ok := KindOf(code)
	if !ok {
		kind = Kind{Name: "Error", Code: code, DefaultDetails: ""}
	}
	if details == "" {
		details = kind.DefaultDetails
	}
	return &Error{kind: kind, details: details}, nil
}

func newKind(kind Kind, detailsOverride []string) *Error {
	details := kind.DefaultDetails
	if len(detailsOverride) > 0 {
		details = detailsOverride[0]
	}
	return &Error{kind: kind, details: details}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind.Name, e.details)
}

// String is the stable machine-readable rendering, for logs and debug
// equality checks.
func (e *Error) String() string {
	return fmt.Sprintf("%s(code=%s, details=%q)", e.kind.Name, e.kind.Code, e.details)
}

func (e *Error) Code() codes.Code {
	return e.kind.Code
}

func (e *Error) Details() string {
	return e.details
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.kind.Code, e.details)
}

// Is makes xerrors.Is match any two errors of the same status code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !xerrors.As(target, &other) {
		return false
	}
	return e.kind.Code == other.kind.Code
}

var (
	abortedKind            = register("Aborted", codes.Aborted, "The operation was aborted")
	alreadyExistsKind      = register("AlreadyExists", codes.AlreadyExists, "The entity attempted to be created already exists")
	cancelledKind          = register("Cancelled", codes.Canceled, "The operation was cancelled")
	dataLossKind           = register("DataLoss", codes.DataLoss, "There was unrecoverable data loss or corruption")
	deadlineExceededKind   = register("DeadlineExceeded", codes.DeadlineExceeded, "Deadline expired before operation could complete")
	failedPreconditionKind = register("FailedPrecondition", codes.FailedPrecondition, "The operation was rejected because the system is not in a state required for execution")
	internalKind           = register("Internal", codes.Internal, "Internal error")
	invalidArgumentKind    = register("InvalidArgument", codes.InvalidArgument, "The client specified an invalid argument")
	notFoundKind           = register("NotFound", codes.NotFound, "The requested entity was not found")
	outOfRangeKind         = register("OutOfRange", codes.OutOfRange, "The operation was attempted past the valid range")
	permissionDeniedKind   = register("PermissionDenied", codes.PermissionDenied, "The caller does not have permission to execute the specified operation")
	resourceExhaustedKind  = register("ResourceExhausted", codes.ResourceExhausted, "A resource has been exhausted")
	unauthenticatedKind    = register("Unauthenticated", codes.Unauthenticated, "The request does not have valid authentication credentials for the operation")
	unavailableKind        = register("Unavailable", codes.Unavailable, "The service is currently unavailable")
	unimplementedKind      = register("Unimplemented", codes.Unimplemented, "The operation is not implemented or not supported/enabled in this service")
	unknownKind            = register("Unknown", codes.Unknown, "Unknown exception occurred")
)

// The operation was aborted, typically due to a concurrency issue such as a
// sequencer check failure or transaction abort.
func Aborted(details ...string) *Error { return newKind(abortedKind, details) }

// The entity that a client attempted to create already exists.
func AlreadyExists(details ...string) *Error { return newKind(alreadyExistsKind, details) }

// The operation was cancelled, typically by the caller.
func Cancelled(details ...string) *Error { return newKind(cancelledKind, details) }

// Unrecoverable data loss or corruption.
func DataLoss(details ...string) *Error { return newKind(dataLossKind, details) }

// The deadline expired before the operation could complete.
func DeadlineExceeded(details ...string) *Error { return newKind(deadlineExceededKind, details) }

// The operation failed because the system is in an invalid state for
// execution, e.g. an rmdir applied to a non-empty directory. Prefer
// Unavailable if the client can retry just the failing call and Aborted if
// the client should retry at a higher level.
func FailedPrecondition(details ...string) *Error { return newKind(failedPreconditionKind, details) }

// Internal errors: some invariant expected by the underlying system has been
// broken. Reserved for serious errors.
func Internal(details ...string) *Error { return newKind(internalKind, details) }

// The client specified an invalid argument, regardless of the state of the
// system (unlike FailedPrecondition).
func InvalidArgument(details ...string) *Error { return newKind(invalidArgumentKind, details) }

// Some requested entity was not found.
func NotFound(details ...string) *Error { return newKind(notFoundKind, details) }

// The operation was attempted past the valid range, e.g. reading past
// end-of-file. Unlike InvalidArgument, may be fixed if the system state
// changes.
func OutOfRange(details ...string) *Error { return newKind(outOfRangeKind, details) }

// The caller does not have permission to execute the specified operation.
// Not for resource exhaustion (ResourceExhausted) or missing identity
// (Unauthenticated).
func PermissionDenied(details ...string) *Error { return newKind(permissionDeniedKind, details) }

// Some resource has been exhausted, e.g. a per-user quota.
func ResourceExhausted(details ...string) *Error { return newKind(resourceExhaustedKind, details) }

// The request does not have valid authentication credentials.
func Unauthenticated(details ...string) *Error { return newKind(unauthenticatedKind, details) }

// The service is currently unavailable. Most likely transient; retrying with
// backoff may help, though not every operation is safe to retry.
func Unavailable(details ...string) *Error { return newKind(unavailableKind, details) }

// The operation is not implemented or not supported/enabled in this service.
func Unimplemented(details ...string) *Error { return newKind(unimplementedKind, details) }

// Unknown error, e.g. a status from an error space this process does not
// understand.
func Unknown(details ...string) *Error { return newKind(unknownKind, details) }
