package factory

import (
	"fmt"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/bitmap"
	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// AnalyzerFactory creates scoring engines
type AnalyzerFactory interface {
	CreateAnalyzer(opts ...analyzer.Option) (*analyzer.Engine, error)
	EngineConfig() (analyzer.Config, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// EngineConfig resolves the engine configuration: the named preset, then
// the rules file, then any non-zero override from cfg.
func (f *analyzerFactory) EngineConfig() (analyzer.Config, error) {
	return EngineConfig(f.cfg)
}

// CreateAnalyzer builds an engine from the resolved configuration. Its
// decoder enforces cfg.MaxImagePixels; opts may replace it.
func (f *analyzerFactory) CreateAnalyzer(opts ...analyzer.Option) (*analyzer.Engine, error) {
	ec, err := f.EngineConfig()
	if err != nil {
		return nil, err
	}
	opts = append([]analyzer.Option{analyzer.WithDecoder(bitmap.Decoder(f.cfg.MaxImagePixels))}, opts...)
	return analyzer.NewEngine(ec, opts...)
}

// EngineConfig is the AnalyzerFactory resolution as a function.
func EngineConfig(cfg *config.Config) (analyzer.Config, error) {
	ec, err := analyzer.Preset(cfg.Preset)
	if err != nil {
		return analyzer.Config{}, err
	}

	if cfg.RulesFile != "" {
		ec, err = analyzer.LoadProfileFile(cfg.RulesFile, ec)
		if err != nil {
			return analyzer.Config{}, err
		}
	}

	if cfg.AnalysisSize != 0 {
		ec = ec.WithAnalysisSize(cfg.AnalysisSize)
	}
	if cfg.LowCut != 0 || cfg.HighCut != 0 {
		low, high := ec.LowCut, ec.HighCut
		if cfg.LowCut != 0 {
			low = cfg.LowCut
		}
		if cfg.HighCut != 0 {
			high = cfg.HighCut
		}
		ec = ec.WithCutoffs(low, high)
	}
	if cfg.EdgeLow != 0 || cfg.EdgeHigh != 0 {
		low, high := ec.EdgeLow, ec.EdgeHigh
		if cfg.EdgeLow != 0 {
			low = cfg.EdgeLow
		}
		if cfg.EdgeHigh != 0 {
			high = cfg.EdgeHigh
		}
		ec = ec.WithEdgeThresholds(low, high)
	}
	ec = ec.WithWorkers(cfg.Workers)

	if err := ec.Validate(); err != nil {
		return analyzer.Config{}, err
	}
	return ec, nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(
			storage.WithTimeout(f.cfg.ImageFetchTimeout),
			storage.WithMaxBytes(f.cfg.MaxRequestBodySize),
		), nil
	case AzureStorage:
		if f.cfg.AzureAccount == "" || f.cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires azure_account and azure_key")
		}
		return storage.NewAzureImageFetcher(f.cfg.AzureAccount, f.cfg.AzureKey)
	case LocalStorage:
		return storage.NewLocalImageFetcher(""), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
