package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/container"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/transport"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	logger.Configure(cfg.LogLevel)

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}

	if err := transport.Serve(context.Background(), cfg, c.Handler()); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
}
