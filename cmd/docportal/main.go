package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docportal/internal/app"
	"docportal/internal/cli"
	"docportal/internal/config"
	"docportal/internal/domain"
	"docportal/internal/logging"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.AbsDirs(); err != nil {
		log.Fatalf("failed to resolve data directories: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}
	cli.SetService(a)

	if err := cli.Execute(ctx); err != nil {
		code := 1
		if errors.Is(err, domain.ErrValidation) {
			code = 2
		}
		stop()
		os.Exit(code)
	}
}
