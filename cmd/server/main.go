package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fewknow/internal/logger"
	"fewknow/internal/market"
	"fewknow/internal/server"
	"fewknow/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}

	pipeline := buildPipeline(ctx, cfg)
	srv := server.New(cfg, pipeline, market.NewYahooClient())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	logger.Info(ctx, "fewknow started", "addr", cfg.Server.Addr, "llm_provider", cfg.LLM.Provider)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case err := <-errc:
		logger.ErrorWithErr(ctx, "Server failed", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Shutdown error", "error", err.Error())
	}
	_ = trace.Shutdown(shutdownCtx)
}
