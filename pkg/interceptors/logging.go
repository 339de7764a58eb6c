package interceptors

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/transferia/grpcmw/pkg/server"
	"go.ytsaurus.tech/library/go/core/log"
	"google.golang.org/grpc/status"
)

// Logging is a server interceptor that logs one line per call through an
// injected logger: method identity, call shape, duration and the resulting
// status code. For streaming responses the line covers the handler
// invocation, not the drain of the stream.
type Logging struct {
	logger log.Logger
}

var _ server.Interceptor = (*Logging)(nil)

func NewLogging(logger log.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Intercept(ctx context.Context, call *server.Call, req server.Request, next server.Handler) (server.Response, error) {
	callID := uuid.Must(uuid.NewV4()).String()
	fields := []log.Field{
		log.String("call_id", callID),
		log.String("method", call.FullMethod),
		log.String("service", call.Name.FullyQualifiedService()),
		log.Bool("request_streaming", call.RequestStreaming),
		log.Bool("response_streaming", call.ResponseStreaming),
	}
	l.logger.Debug("call started", fields...)

	startedAt := time.Now()
	resp, err := next(ctx, req)
	elapsed := time.Since(startedAt)

	fields = append(fields, log.Duration("elapsed", elapsed), log.String("code", status.Code(err).String()))
	if err != nil {
		l.logger.Warn("call failed", append(fields, log.Error(err))...)
		return server.Response{}, err
	}
	l.logger.Info("call finished", fields...)
	return resp, nil
}
