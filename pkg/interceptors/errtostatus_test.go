package interceptors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/transferia/grpcmw/pkg/grpcerr"
	"github.com/transferia/grpcmw/pkg/interceptors"
	"github.com/transferia/grpcmw/pkg/server"
	"github.com/transferia/grpcmw/pkg/testservice"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTranslatorHarness(t *testing.T, service testservice.EchoServer, opts ...interceptors.ErrToStatusOption) *testservice.Harness {
	translator, err := interceptors.NewErrToStatus(opts...)
	require.NoError(t, err)
	h, err := testservice.NewHarness(service, []server.Interceptor{translator}, nil)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestUnknownStatusCannotBeOK(t *testing.T) {
	_, err := interceptors.NewErrToStatus(interceptors.WithUnknownStatus(codes.OK))
	require.Error(t, err)
}

func TestGrpcErrBecomesStatus(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("missing", func(input string) (string, error) {
		return "", grpcerr.NotFound("no such entity")
	}))
	h := newTranslatorHarness(t, service)

	_, err := h.Execute(context.Background(), "missing")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.NotFound, st.Code())
	require.Equal(t, "no such entity", st.Message())
}

func TestWrappedGrpcErrBecomesStatus(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("wrapped", func(input string) (string, error) {
		return "", xerrors.Errorf("lookup failed: %w", grpcerr.PermissionDenied())
	}))
	h := newTranslatorHarness(t, service)

	_, err := h.Execute(context.Background(), "wrapped")
	require.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestUnknownErrorDefaultsToUnknown(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("oops", func(input string) (string, error) {
		return "", xerrors.New("some application bug")
	}))
	h := newTranslatorHarness(t, service)

	_, err := h.Execute(context.Background(), "oops")
	require.Equal(t, codes.Unknown, status.Code(err))
}

func TestUnknownErrorWithConfiguredStatus(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("oops", func(input string) (string, error) {
		return "", xerrors.New("some application bug")
	}))
	h := newTranslatorHarness(t, service, interceptors.WithUnknownStatus(codes.Internal))

	_, err := h.Execute(context.Background(), "oops")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Internal, st.Code())
	require.Contains(t, st.Message(), "some application bug")
}

func TestCancellationBeatsTheUnknownFallback(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("stopped", func(input string) (string, error) {
		return "", xerrors.Errorf("handler stopped: %w", context.Canceled)
	}))
	h := newTranslatorHarness(t, service, interceptors.WithUnknownStatus(codes.Internal))

	_, err := h.Execute(context.Background(), "stopped")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Canceled, st.Code())
	require.Equal(t, grpcerr.Cancelled().Details(), st.Message())
}

func TestDeadlineExpiryBeatsTheUnknownFallback(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("late", func(input string) (string, error) {
		return "", xerrors.Errorf("handler gave up: %w", context.DeadlineExceeded)
	}))
	h := newTranslatorHarness(t, service, interceptors.WithUnknownStatus(codes.Internal))

	_, err := h.Execute(context.Background(), "late")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.DeadlineExceeded, st.Code())
	require.Equal(t, grpcerr.DeadlineExceeded().Details(), st.Message())
}

func TestExistingStatusIsNotOverridden(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("taken", func(input string) (string, error) {
		return "", status.Error(codes.AlreadyExists, "set by the handler")
	}))
	h := newTranslatorHarness(t, service, interceptors.WithUnknownStatus(codes.Internal))

	_, err := h.Execute(context.Background(), "taken")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.AlreadyExists, st.Code())
	require.Equal(t, "set by the handler", st.Message())
}

func TestMidStreamFailureIsTranslated(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithStreamCase("partial", func(input string, send func(string) error) error {
		if err := send("p"); err != nil {
			return err
		}
		return grpcerr.OutOfRange("stream ran out")
	}))
	h := newTranslatorHarness(t, service)

	outputs, err := h.ExecuteServerStream(context.Background(), "partial")
	require.Equal(t, []string{"p"}, outputs)
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.OutOfRange, st.Code())
	require.Equal(t, "stream ran out", st.Message())
}

var errThirdParty = xerrors.New("quota backend rejected the request")

func TestCustomErrorHandler(t *testing.T) {
	service := testservice.NewEchoService(testservice.WithSpecialCase("quota", func(input string) (string, error) {
		return "", errThirdParty
	}))
	handler := func(ctx context.Context, call *server.Call, err error) error {
		if xerrors.Is(err, errThirdParty) {
			return interceptors.Annotate(err, status.New(codes.ResourceExhausted, "quota exceeded"))
		}
		return nil
	}
	h := newTranslatorHarness(t, service, interceptors.WithErrorHandler(handler))

	_, err := h.Execute(context.Background(), "quota")
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.ResourceExhausted, st.Code())
	require.Equal(t, "quota exceeded", st.Message())
}

func TestAnnotateKeepsTheCause(t *testing.T) {
	cause := xerrors.New("root cause")
	annotated := interceptors.Annotate(cause, status.New(codes.DataLoss, "annotated"))
	require.True(t, xerrors.Is(annotated, cause))

	st, ok := status.FromError(annotated)
	require.True(t, ok)
	require.Equal(t, codes.DataLoss, st.Code())
}
