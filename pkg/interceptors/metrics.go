package interceptors

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/transferia/grpcmw/pkg/server"
	"go.ytsaurus.tech/library/go/core/xerrors"
	"google.golang.org/grpc/status"
)

// Metrics is a server interceptor that counts calls and observes their
// duration per method and status code. The code is taken when the handler
// invocation returns; lazily drained streams that fail later are counted by
// the code of the invocation itself.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ server.Interceptor = (*Metrics)(nil)

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grpcmw_server_calls_total",
		Help: "Calls dispatched through the interceptor chain",
	}, []string{"method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grpcmw_server_call_duration_seconds",
		Help:    "Handler invocation duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	for _, collector := range []prometheus.Collector{calls, duration} {
		if err := registerer.Register(collector); err != nil {
			return nil, xerrors.Errorf("unable to register collector: %w", err)
		}
	}
	return &Metrics{calls: calls, duration: duration}, nil
}

func (m *Metrics) Intercept(ctx context.Context, call *server.Call, req server.Request, next server.Handler) (server.Response, error) {
	startedAt := time.Now()
	resp, err := next(ctx, req)
	m.calls.WithLabelValues(call.FullMethod, status.Code(err).String()).Inc()
	m.duration.WithLabelValues(call.FullMethod).Observe(time.Since(startedAt).Seconds())
	return resp, err
}
