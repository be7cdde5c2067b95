package analyzer

import (
	"fmt"
	"time"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

// BatchSummary reduces the results of one batch. Score statistics cover
// successful items only; BestIndex and WorstIndex are -1 when none succeeded.
type BatchSummary struct {
	Total                  int              `json:"total_images" yaml:"total_images"`
	Successful             int              `json:"successful_analyses" yaml:"successful_analyses"`
	Failed                 int              `json:"failed_analyses" yaml:"failed_analyses"`
	AverageScore           float64          `json:"average_score" yaml:"average_score"`
	MinScore               float64          `json:"best_score" yaml:"best_score"`
	MaxScore               float64          `json:"worst_score" yaml:"worst_score"`
	BestIndex              int              `json:"best_index" yaml:"best_index"`
	WorstIndex             int              `json:"worst_index" yaml:"worst_index"`
	Distribution           map[Category]int `json:"category_distribution" yaml:"category_distribution"`
	TotalProcessingSeconds float64          `json:"total_processing_time" yaml:"total_processing_time"`
}

// Loader produces the bitmap for batch position i.
type Loader func(i int) (*bitmap.Bitmap, error)

// AnalyzeBatch decodes and scores every payload. A payload that cannot be
// decoded yields an Error result at its index and does not affect the others.
func (e *Engine) AnalyzeBatch(payloads [][]byte) ([]QualityResult, BatchSummary) {
	return e.AnalyzeEach(len(payloads), func(i int) (*bitmap.Bitmap, error) {
		return e.decode(payloads[i])
	})
}

// AnalyzeBitmaps scores already decoded bitmaps.
func (e *Engine) AnalyzeBitmaps(bms []*bitmap.Bitmap) ([]QualityResult, BatchSummary) {
	return e.AnalyzeEach(len(bms), func(i int) (*bitmap.Bitmap, error) {
		return bms[i], nil
	})
}

// AnalyzeEach scores n items produced by load. Results are in index order
// regardless of how many workers ran them.
func (e *Engine) AnalyzeEach(n int, load Loader) ([]QualityResult, BatchSummary) {
	results := make([]QualityResult, n)

	workers := e.cfg.Workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			results[i] = e.analyzeItem(i, load)
		}
	} else {
		pool := NewWorkerPool(workers)
		pool.Start()
		for i := 0; i < n; i++ {
			i := i
			pool.Submit(func() {
				results[i] = e.analyzeItem(i, load)
			})
		}
		pool.Wait()
		pool.Close()
	}

	summary := Summarize(results)
	e.emit(TraceEvent{Stage: StageBatch, Index: -1, Summary: &summary})
	return results, summary
}

func (e *Engine) analyzeItem(i int, load Loader) (res QualityResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(fmt.Errorf("%w: %v", ErrExtractionFault, r), time.Since(start))
		}
	}()

	bm, err := load(i)
	if err != nil {
		res = errorResult(err, time.Since(start))
		e.emit(TraceEvent{Stage: StageResult, Index: i, Score: res.Score, Category: res.Category, Err: err})
		return res
	}
	return e.analyze(i, bm)
}

// Summarize reduces results into a BatchSummary.
func Summarize(results []QualityResult) BatchSummary {
	s := BatchSummary{
		Total:        len(results),
		BestIndex:    -1,
		WorstIndex:   -1,
		Distribution: make(map[Category]int, len(Categories)),
	}
	for _, c := range Categories {
		s.Distribution[c] = 0
	}

	var sum float64
	for i, r := range results {
		s.TotalProcessingSeconds += r.ProcessingTimeSeconds
		if r.Failed() {
			s.Failed++
			continue
		}
		s.Successful++
		s.Distribution[r.Category]++
		sum += r.Score
		if s.BestIndex < 0 || r.Score < s.MinScore {
			s.MinScore = r.Score
			s.BestIndex = i
		}
		if s.WorstIndex < 0 || r.Score > s.MaxScore {
			s.MaxScore = r.Score
			s.WorstIndex = i
		}
	}
	if s.Successful > 0 {
		s.AverageScore = sum / float64(s.Successful)
	}
	return s
}
