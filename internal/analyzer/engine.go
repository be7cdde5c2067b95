package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

// QualityResult is the outcome of analysing one image. Failed analyses have
// Category Error, Score ErrorScore, a nil Features and a non-nil Err.
type QualityResult struct {
	Score                 float64
	Category              Category
	ProcessingTimeSeconds float64
	Features              *FeatureVector
	Err                   error
}

// Failed reports whether the result is an Error result.
func (r QualityResult) Failed() bool {
	return r.Category == Error
}

// Decoder turns encoded bytes into a bitmap.
type Decoder func([]byte) (*bitmap.Bitmap, error)

// Engine runs the analysis pipeline for one validated Config. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	tracer Tracer
	decode Decoder
}

// Option customises an Engine.
type Option func(*Engine)

// WithTracer attaches a tracer that observes every pipeline step.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithDecoder replaces the default byte decoder, e.g. to change the pixel
// limit of bitmap.Decode.
func WithDecoder(d Decoder) Option {
	return func(e *Engine) {
		if d != nil {
			e.decode = d
		}
	}
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Rules = cfg.Rules.Clone()
	e := &Engine{cfg: cfg, decode: bitmap.Decode}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decode turns encoded bytes into a bitmap with the engine's decoder.
func (e *Engine) Decode(data []byte) (*bitmap.Bitmap, error) {
	return e.decode(data)
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Rules = cfg.Rules.Clone()
	return cfg
}

// Analyze scores one bitmap. Failures never escape: they are returned as an
// Error result.
func (e *Engine) Analyze(bm *bitmap.Bitmap) QualityResult {
	return e.analyze(-1, bm)
}

// AnalyzeBytes decodes data and scores it.
func (e *Engine) AnalyzeBytes(data []byte) QualityResult {
	start := time.Now()
	bm, err := e.decode(data)
	if err != nil {
		res := errorResult(err, time.Since(start))
		e.emit(TraceEvent{Stage: StageResult, Index: -1, Score: res.Score, Category: res.Category, Err: err})
		return res
	}
	return e.analyze(-1, bm)
}

func (e *Engine) analyze(index int, bm *bitmap.Bitmap) (res QualityResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(fmt.Errorf("%w: %v", ErrExtractionFault, r), time.Since(start))
		}
		e.emit(TraceEvent{
			Stage:    StageResult,
			Index:    index,
			Score:    res.Score,
			Category: res.Category,
			Duration: time.Since(start),
			Err:      res.Err,
		})
	}()

	p, err := preprocess(bm, e.cfg.AnalysisSize)
	if err != nil {
		return errorResult(err, time.Since(start))
	}
	fv, err := extractFeatures(p, e.cfg.EdgeLow, e.cfg.EdgeHigh)
	if err != nil {
		return errorResult(err, time.Since(start))
	}
	if e.tracer != nil {
		snapshot := fv
		e.emit(TraceEvent{Stage: StageFeatures, Index: index, Features: &snapshot})
	}

	var score float64
	for _, m := range e.cfg.Rules.Evaluate(fv) {
		score += m.Penalty
		if e.tracer != nil {
			m := m
			e.emit(TraceEvent{Stage: StageRule, Index: index, Match: &m})
		}
	}
	category := Categorize(score, e.cfg.LowCut, e.cfg.HighCut)
	elapsed := time.Since(start)

	return QualityResult{
		Score:                 score,
		Category:              category,
		ProcessingTimeSeconds: elapsed.Seconds(),
		Features:              &fv,
	}
}

func errorResult(err error, elapsed time.Duration) QualityResult {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return QualityResult{
		Score:                 ErrorScore,
		Category:              Error,
		ProcessingTimeSeconds: elapsed.Seconds(),
		Err:                   err,
	}
}

// Analyze validates cfg and scores one bitmap. The error is non-nil only
// for configuration problems.
func Analyze(bm *bitmap.Bitmap, cfg Config) (QualityResult, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return QualityResult{}, err
	}
	return e.Analyze(bm), nil
}

// AnalyzeBatch validates cfg and scores every payload. The error is non-nil
// only for configuration problems.
func AnalyzeBatch(payloads [][]byte, cfg Config) ([]QualityResult, BatchSummary, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, BatchSummary{}, err
	}
	results, summary := e.AnalyzeBatch(payloads)
	return results, summary, nil
}
