package webui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"busmonitor.dev/internal/logging"
)

// Handler returns the preview routes wrapped in request logging and
// security headers.
func (p *Preview) Handler() http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodGet, "/", compressed(p.indexHandler))
	router.HandlerFunc(http.MethodGet, "/frame.png", p.frameHandler)
	router.Handler(http.MethodGet, "/status", compressed(p.statusHandler))
	router.Handler(http.MethodGet, "/debug/", compressed(p.debugIndexHandler))
	router.HandlerFunc(http.MethodGet, "/ws", p.websocketHandler)

	return NewRequestLoggingMiddleware(p.logger)(securityHeaders(requireAPIKey(p.apiKeys, router)))
}

// Serve runs the preview server on addr until ctx is done.
func (p *Preview) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      p.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(p.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogOperation(p.logger, "preview_server_starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
