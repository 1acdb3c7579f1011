package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"survai/internal/app"
	"survai/internal/config"
	"survai/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer a.Close(context.Background())

	log.Info("endpoints",
		"auth", "POST /v1/auth/login",
		"analytics", "/v1/surveys/{id}/metrics|review|insights|questions/{qid}/summary",
		"jobs", "POST /v1/surveys/{id}/data-generation|sentiment-analysis",
		"ws", "GET /v1/ws/surveys/{id}/{operation}",
	)

	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		return
	}
	log.Info("server exited")
}
