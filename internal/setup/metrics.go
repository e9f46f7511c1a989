package setup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// metricsServer serves the Prometheus registry over HTTP.
type metricsServer struct {
	srv      *http.Server
	listener net.Listener
}

// startMetricsServer starts serving /metrics on the given port.
func startMetricsServer(ctx context.Context, port int, logger *zap.Logger) (*metricsServer, error) {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on metrics port: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("Metrics server started", zap.String("addr", listener.Addr().String()))

	return &metricsServer{srv: srv, listener: listener}, nil
}

// Shutdown stops the server and releases its listener.
func (m *metricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
