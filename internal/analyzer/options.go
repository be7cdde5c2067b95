package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrDegenerateInput marks a configuration the engine cannot run with.
	// It is returned before any image is processed.
	ErrDegenerateInput = errors.New("degenerate configuration")
	// ErrExtractionFault marks an unexpected numerical failure while
	// computing features. It never escapes Analyze; it is carried in the
	// Err field of an Error result.
	ErrExtractionFault = errors.New("feature extraction fault")
)

// MinAnalysisSize is the smallest side length that leaves interior pixels
// for the 3x3 kernels.
const MinAnalysisSize = 3

// Config controls one engine. The zero value is not usable; start from
// DefaultConfig or a preset and apply With... modifiers.
type Config struct {
	// Name identifies the preset the config was derived from.
	Name string

	AnalysisSize int
	Rules        RuleTable
	LowCut       float64
	HighCut      float64

	// Hysteresis thresholds of the edge detector on the L1 Sobel magnitude.
	EdgeLow  float64
	EdgeHigh float64

	// Workers bounds batch parallelism; 0 or 1 runs batches sequentially.
	Workers int
}

// DefaultConfig returns the canonical configuration.
func DefaultConfig() Config {
	return Config{
		Name:         "optimized",
		AnalysisSize: 300,
		Rules:        DefaultRuleTable(),
		LowCut:       20,
		HighCut:      50,
		EdgeLow:      50,
		EdgeHigh:     150,
	}
}

// SmartConfig analyses at a higher resolution with a finer rule table and
// wider cutoffs.
func SmartConfig() Config {
	cfg := DefaultConfig()
	cfg.Name = "smart"
	cfg.AnalysisSize = 400
	cfg.LowCut = 25
	cfg.HighCut = 60
	cfg.Rules = RuleTable{
		{Sharpness, []Rule{{LessThan(100), 35}, {LessThan(300), 20}, {LessThan(600), 10}}},
		{Noise, []Rule{{GreaterThan(80), 30}, {GreaterThan(50), 15}, {LessThan(20), 8}}},
		{Contrast, []Rule{{LessThan(30), 25}, {LessThan(50), 12}}},
		{Brightness, []Rule{{Outside(30, 225), 20}, {Outside(50, 205), 10}}},
		{EdgeDensity, []Rule{{LessThan(0.005), 20}, {GreaterThan(0.25), 15}}},
		{ColorImbalance, []Rule{{GreaterThan(60), 15}, {GreaterThan(40), 8}}},
		{ColorVariation, []Rule{{LessThan(20), 12}, {LessThan(35), 6}}},
		{TextureUniformity, []Rule{{GreaterThan(0.02), 10}, {LessThan(0.005), 8}}},
	}
	return cfg
}

// FastConfig scores five features only.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.Name = "fast"
	cfg.LowCut = 15
	cfg.HighCut = 35
	cfg.Rules = RuleTable{
		{Sharpness, []Rule{{LessThan(100), 30}, {LessThan(500), 15}}},
		{Noise, []Rule{{GreaterThan(50), 25}, {GreaterThan(30), 10}}},
		{Contrast, []Rule{{LessThan(30), 20}, {LessThan(50), 10}}},
		{Brightness, []Rule{{Outside(30, 225), 15}}},
		{ColorVariation, []Rule{{LessThan(20), 10}}},
	}
	return cfg
}

// UltraFastConfig scores sharpness, contrast and brightness on a 256px plane.
func UltraFastConfig() Config {
	cfg := DefaultConfig()
	cfg.Name = "ultrafast"
	cfg.AnalysisSize = 256
	cfg.LowCut = 10
	cfg.HighCut = 25
	cfg.Rules = RuleTable{
		{Sharpness, []Rule{{LessThan(200), 20}}},
		{Contrast, []Rule{{LessThan(40), 15}}},
		{Brightness, []Rule{{Outside(40, 215), 10}}},
	}
	return cfg
}

var presets = map[string]func() Config{
	"optimized": DefaultConfig,
	"smart":     SmartConfig,
	"fast":      FastConfig,
	"ultrafast": UltraFastConfig,
}

// Preset returns the named preset. An empty name selects the default.
func Preset(name string) (Config, error) {
	if name == "" {
		return DefaultConfig(), nil
	}
	build, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrDegenerateInput, name)
	}
	return build(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithAnalysisSize returns the config with a different side length.
func (c Config) WithAnalysisSize(size int) Config {
	c.AnalysisSize = size
	return c
}

// WithCutoffs returns the config with different category cutoffs.
func (c Config) WithCutoffs(low, high float64) Config {
	c.LowCut = low
	c.HighCut = high
	return c
}

// WithRules returns the config with a different rule table.
func (c Config) WithRules(rules RuleTable) Config {
	c.Rules = rules
	return c
}

// WithEdgeThresholds returns the config with different hysteresis thresholds.
func (c Config) WithEdgeThresholds(low, high float64) Config {
	c.EdgeLow = low
	c.EdgeHigh = high
	return c
}

// WithWorkers returns the config with a different batch parallelism.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// Validate checks the config; every failure wraps ErrDegenerateInput.
func (c Config) Validate() error {
	if c.AnalysisSize < MinAnalysisSize {
		return fmt.Errorf("%w: analysis size %d is below %d", ErrDegenerateInput, c.AnalysisSize, MinAnalysisSize)
	}
	if !finite(c.LowCut) || !finite(c.HighCut) || c.LowCut >= c.HighCut {
		return fmt.Errorf("%w: cutoffs must satisfy low < high, got %v and %v", ErrDegenerateInput, c.LowCut, c.HighCut)
	}
	if !finite(c.EdgeLow) || !finite(c.EdgeHigh) || c.EdgeLow < 0 || c.EdgeLow > c.EdgeHigh {
		return fmt.Errorf("%w: edge thresholds must satisfy 0 <= low <= high, got %v and %v", ErrDegenerateInput, c.EdgeLow, c.EdgeHigh)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrDegenerateInput, c.Workers)
	}
	return c.Rules.Validate()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
