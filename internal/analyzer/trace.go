package analyzer

import "time"

// Stage identifies where in the pipeline a TraceEvent was emitted.
type Stage string

const (
	StageFeatures Stage = "features"
	StageRule     Stage = "rule"
	StageResult   Stage = "result"
	StageBatch    Stage = "batch"
)

// TraceEvent carries a snapshot of one pipeline step. Index is the batch
// position, or -1 for single-image calls.
type TraceEvent struct {
	Stage    Stage
	Index    int
	Preset   string
	Features *FeatureVector
	Match    *Match
	Score    float64
	Category Category
	Duration time.Duration
	Err      error
	Summary  *BatchSummary
}

// Tracer receives pipeline events. Batch analyses call Trace from several
// goroutines at once.
type Tracer interface {
	Trace(TraceEvent)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(TraceEvent)

// Trace calls f(ev).
func (f TracerFunc) Trace(ev TraceEvent) {
	f(ev)
}

// emit delivers ev and swallows tracer panics so tracing cannot change a result.
func (e *Engine) emit(ev TraceEvent) {
	if e.tracer == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	ev.Preset = e.cfg.Name
	e.tracer.Trace(ev)
}
