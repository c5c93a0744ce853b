package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/di"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/env"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envService := env.NewEnvService()
	cfg := di.LoadConfig(envService)
	addr := envService.GetWithDefault("HTTP_ADDR", ":8080")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer container.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		container.Logger.Info("Server listening", "addr", addr, "chainId", cfg.Chain.ChainID, "model", cfg.OpenAIModel)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			container.Logger.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		container.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Error("Graceful shutdown failed", "error", err)
		}
	}
}
