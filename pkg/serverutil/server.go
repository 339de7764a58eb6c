// Package serverutil runs the sidecar HTTP endpoints a long-lived gRPC
// process wants next to its main port: pprof profiles and the Prometheus
// scrape handler.
package serverutil

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.ytsaurus.tech/library/go/core/log"
	"go.ytsaurus.tech/library/go/core/xerrors"
)

type DebugServer struct {
	listener net.Listener
	gatherer prometheus.Gatherer
	logger   log.Logger
}

func NewDebugServer(network, address string, gatherer prometheus.Gatherer, logger log.Logger) (*DebugServer, error) {
	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, xerrors.Errorf("unable to listen on %s %s: %w", network, address, err)
	}
	return &DebugServer{
		listener: listener,
		gatherer: gatherer,
		logger:   logger,
	}, nil
}

func (s *DebugServer) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.logger.Info("debug server is up", log.String("addr", s.listener.Addr().String()))
	return http.Serve(s.listener, mux)
}

func (s *DebugServer) Close() error {
	return s.listener.Close()
}

func (s *DebugServer) Addr() net.Addr {
	return s.listener.Addr()
}
