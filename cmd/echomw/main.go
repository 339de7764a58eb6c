package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/transferia/grpcmw/cmd/echomw/call"
	"github.com/transferia/grpcmw/cmd/echomw/serve"
	"github.com/transferia/grpcmw/internal/logger"
	"go.uber.org/zap/zapcore"
	"go.ytsaurus.tech/library/go/core/log/zap"
	"go.ytsaurus.tech/library/go/core/xerrors"
)

var defaultLogLevel = "info"

func main() {
	logLevel := defaultLogLevel

	rootCommand := &cobra.Command{
		Use:          "echomw",
		Short:        "Echo service demo wired through the interceptor chain",
		Example:      "./echomw serve",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			logger.Log = zap.Must(logger.DefaultLoggerConfig(level))
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Logging level (\"error\", \"warning\", \"info\", \"debug\")")

	rootCommand.AddCommand(serve.ServeCommand())
	rootCommand.AddCommand(call.CallCommand())

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseLogLevel(logLevel string) (zapcore.Level, error) {
	switch strings.ToLower(logLevel) {
	case "error":
		return zapcore.ErrorLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	default:
		return zapcore.InfoLevel, xerrors.Errorf("unsupported value %q for --log-level", logLevel)
	}
}
