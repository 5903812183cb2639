package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _logger = logger_i.NewLogger("metrics_server")

// NewRouter exposes /metrics and /healthz.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(countRequests)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	})
}

// Serve runs the metrics endpoint until ctx is cancelled, then shuts down
// within config.ShutdownContextTimeout.
func Serve(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      NewRouter(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		_logger.Info("Metrics server is listening", "address", listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_logger.Error("Could not shutdown gracefully", "error", err)
		return err
	}
	_logger.Info("Metrics server stopped")
	return nil
}
