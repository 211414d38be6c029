package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	bootstrap "github.com/phillip/chama-tracker-go/bootstrap"
	config "github.com/phillip/chama-tracker-go/config"
	routes "github.com/phillip/chama-tracker-go/routes"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	app, err := bootstrap.Run(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	r := routes.NewRouter(cfg, app.Ledger, app.Log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app.Log.Info("server running", "port", cfg.Port, "backend", app.Store.Name())
	serveErr := serve(srv, sigChan, app.Log)

	if err := app.Close(context.Background()); err != nil {
		app.Log.Error("cleanup failed", "error", err)
	}
	if serveErr != nil {
		app.Log.Error("server error", "error", serveErr)
		os.Exit(1)
	}
	app.Log.Info("server stopped")
}

// serve runs srv until a signal arrives and returns only after in-flight
// requests have drained or the shutdown timeout has passed.
func serve(srv *http.Server, sigChan <-chan os.Signal, log *slog.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig, ok := <-sigChan
		if !ok {
			return
		}
		log.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
