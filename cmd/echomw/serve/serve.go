package serve

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/transferia/grpcmw/internal/logger"
	"github.com/transferia/grpcmw/pkg/interceptors"
	"github.com/transferia/grpcmw/pkg/server"
	"github.com/transferia/grpcmw/pkg/serverutil"
	"github.com/transferia/grpcmw/pkg/testservice"
	"go.ytsaurus.tech/library/go/core/log"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

func ServeCommand() *cobra.Command {
	listenAddr := ":50051"
	debugAddr := ":9091"
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Run the echo service with logging, metrics and error translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(listenAddr, debugAddr)
		},
	}
	serveCommand.Flags().StringVar(&listenAddr, "listen", listenAddr, "Address the gRPC server listens on")
	serveCommand.Flags().StringVar(&debugAddr, "debug-listen", debugAddr, "Address for pprof and the metrics scrape endpoint")
	return serveCommand
}

func run(listenAddr, debugAddr string) error {
	registry := prometheus.NewRegistry()
	metrics, err := interceptors.NewMetrics(registry)
	if err != nil {
		return xerrors.Errorf("unable to build metrics interceptor: %w", err)
	}
	errToStatus, err := interceptors.NewErrToStatus(interceptors.WithUnknownStatus(codes.Internal))
	if err != nil {
		return xerrors.Errorf("unable to build error translator: %w", err)
	}

	debugServer, err := serverutil.NewDebugServer("tcp", debugAddr, registry, logger.Log)
	if err != nil {
		return xerrors.Errorf("unable to start debug server: %w", err)
	}
	defer debugServer.Close()
	go func() {
		if err := debugServer.Serve(); err != nil {
			logger.Log.Warn("debug server stopped", log.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return xerrors.Errorf("unable to listen on %s: %w", listenAddr, err)
	}
	grpcServer := grpc.NewServer(server.ServerOptions(
		interceptors.NewLogging(logger.Log),
		metrics,
		errToStatus,
	)...)
	grpcServer.RegisterService(&testservice.ServiceDesc, testservice.NewEchoService())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Log.Info("shutting down")
		grpcServer.GracefulStop()
	}()

	logger.Log.Info("echo service is up", log.String("addr", listener.Addr().String()))
	return grpcServer.Serve(listener)
}
