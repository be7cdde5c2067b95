package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/factory"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/observer"
	"github.com/anime-shed/image-quality-go/internal/repository"
	"github.com/anime-shed/image-quality-go/internal/service"
	"github.com/anime-shed/image-quality-go/internal/storage"
	"github.com/anime-shed/image-quality-go/internal/transport"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config               *config.Config
	events               *observer.EventPublisher
	registry             *prometheus.Registry
	imageAnalyzer        *analyzer.Engine
	imageRepository      repository.ImageRepository
	imageAnalysisService service.ImageAnalysisService
	handler              http.Handler
}

// NewContainer wires the serving stack from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	var registry *prometheus.Registry
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observer.NewMetricsObserver(observer.WithRegistry(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		events.Subscribe(metrics)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	imageAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(analyzer.WithTracer(events))
	if err != nil {
		return nil, fmt.Errorf("failed to build analyzer: %w", err)
	}

	httpFetcher, err := components.StorageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	var azureFetcher storage.ImageFetcher
	if cfg.AzureAccount != "" {
		azureFetcher, err = components.StorageFactory.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, err
		}
	}

	validator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts)
	imageRepository := repository.NewRemoteImageRepository(httpFetcher, azureFetcher, validator)
	imageAnalysisService := service.NewImageAnalysisService(imageRepository, imageAnalyzer, service.Options{
		MaxBatchSize:    cfg.MaxBatchSize,
		IncludeFeatures: true,
		Events:          events,
	})
	handler := transport.NewHandler(imageAnalysisService, cfg, metricsHandler)

	return &Container{
		config:               cfg,
		events:               events,
		registry:             registry,
		imageAnalyzer:        imageAnalyzer,
		imageRepository:      imageRepository,
		imageAnalysisService: imageAnalysisService,
		handler:              handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Analyzer returns the engine behind the service
func (c *Container) Analyzer() *analyzer.Engine {
	return c.imageAnalyzer
}
