package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" default:"10s"`
	// ShutdownTimeout bounds the wait for in-flight requests on shutdown
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPTransport is a group of routes served by one service.
type HTTPTransport interface {
	Routes(r chi.Router)
}

// Middleware adapts the package's middleware constructors to chi's Use.
func Middleware(log logging.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		TracingMiddleware,
		func(next http.Handler) http.Handler { return LoggingMiddleware(next, log) },
		func(next http.Handler) http.Handler { return RescueingMiddleware(next, log) },
	}
}

// ListenAndServe serves handler until ctx is cancelled, then drains
// in-flight requests for at most cfg.ShutdownTimeout.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) (err error) {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.Serve(sock)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
