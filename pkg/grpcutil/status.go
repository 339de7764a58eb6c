package grpcutil

import (
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc/status"
)

type GRPCStatusError interface {
	error
	GRPCStatus() *status.Status
}

// UnwrapStatusError digs through an error chain for a gRPC status carrier.
func UnwrapStatusError(err error) (bool, GRPCStatusError) {
	var statusErr GRPCStatusError
	if xerrors.As(err, &statusErr) {
		return true, statusErr
	}
	return false, nil
}
