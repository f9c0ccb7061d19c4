package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
)

// Server serves the registry over HTTP
type Server struct {
	addr    string
	path    string
	metrics *Metrics
	logger  *mdwlog.Logger
}

// NewServer creates a metrics server on addr; path defaults to /metrics
func NewServer(addr, path string, m *Metrics, logger *mdwlog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &Server{
		addr:    addr,
		path:    path,
		metrics: m,
		logger:  logger.WithField("component", "metrics"),
	}
}

// Handler returns the mux serving the metrics path and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server listening", mdwlog.Fields{"address": s.addr, "path": s.path})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		s.logger.Info("metrics server stopped")
		return nil
	}
}
