package interceptors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/transferia/grpcmw/pkg/grpcerr"
	"github.com/transferia/grpcmw/pkg/interceptors"
	"github.com/transferia/grpcmw/pkg/server"
	"github.com/transferia/grpcmw/pkg/testservice"
	"github.com/transferia/grpcmw/tests/helpers/testlogger"
)

func TestLoggingRecordsSuccessfulCall(t *testing.T) {
	lgr := testlogger.New()
	h, err := testservice.NewHarness(testservice.NewEchoService(), []server.Interceptor{interceptors.NewLogging(lgr)}, nil)
	require.NoError(t, err)
	defer h.Close()

	output, err := h.Execute(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", output)

	require.Equal(t, []string{"call started"}, lgr.Messages("DEBUG"))
	require.Equal(t, []string{"call finished"}, lgr.Messages("INFO"))
	require.Empty(t, lgr.Messages("WARN"))
}

func TestLoggingRecordsFailedCall(t *testing.T) {
	lgr := testlogger.New()
	service := testservice.NewEchoService(testservice.WithSpecialCase("boom", func(input string) (string, error) {
		return "", grpcerr.Internal()
	}))
	h, err := testservice.NewHarness(service, []server.Interceptor{interceptors.NewLogging(lgr)}, nil)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Execute(context.Background(), "boom")
	require.Error(t, err)

	require.Equal(t, []string{"call started"}, lgr.Messages("DEBUG"))
	require.Equal(t, []string{"call failed"}, lgr.Messages("WARN"))
	require.Empty(t, lgr.Messages("INFO"))
}

func TestLoggingCoversStreamingShapes(t *testing.T) {
	lgr := testlogger.New()
	h, err := testservice.NewHarness(testservice.NewEchoService(), []server.Interceptor{interceptors.NewLogging(lgr)}, nil)
	require.NoError(t, err)
	defer h.Close()

	outputs, err := h.ExecuteServerStream(context.Background(), "ab")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, outputs)

	output, err := h.ExecuteClientStream(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "ab", output)

	require.Len(t, lgr.Messages("DEBUG"), 2)
	require.Len(t, lgr.Messages("INFO"), 2)
}
