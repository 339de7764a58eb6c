package call

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/transferia/grpcmw/internal/logger"
	"github.com/transferia/grpcmw/pkg/client"
	"github.com/transferia/grpcmw/pkg/interceptors"
	"github.com/transferia/grpcmw/pkg/testservice"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
)

func CallCommand() *cobra.Command {
	addr := "localhost:50051"
	timeout := 5 * time.Second
	retries := 2
	callCommand := &cobra.Command{
		Use:   "call [inputs]",
		Short: "Send inputs to a running echo service through the client chain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, timeout, retries, args)
		},
	}
	callCommand.Flags().StringVar(&addr, "addr", addr, "Echo service address")
	callCommand.Flags().DurationVar(&timeout, "timeout", timeout, "Per-call timeout")
	callCommand.Flags().IntVar(&retries, "retries", retries, "Retries on UNAVAILABLE")
	return callCommand
}

func run(addr string, timeout time.Duration, retries int, inputs []string) error {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(testservice.CodecName)),
	}
	dialOpts = append(dialOpts, client.DialOptions(
		interceptors.NewRetry(retries, interceptors.WithRetryableCodes(codes.Unavailable)),
		interceptors.NewCaching(logger.Log),
	)...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return xerrors.Errorf("unable to dial %s: %w", addr, err)
	}
	defer conn.Close()

	for _, input := range inputs {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		resp := new(testservice.EchoResponse)
		err := conn.Invoke(ctx, testservice.ExecuteMethod, &testservice.EchoRequest{Input: input}, resp)
		cancel()
		if err != nil {
			return xerrors.Errorf("call with input %q failed: %w", input, err)
		}
		fmt.Println(resp.Output)
	}
	return nil
}
