package analyzer

import "github.com/anime-shed/image-quality-go/internal/bitmap"

// ImageAnalyzer is the surface the service and CLI layers depend on.
// *Engine implements it.
type ImageAnalyzer interface {
	Analyze(bm *bitmap.Bitmap) QualityResult
	AnalyzeBytes(data []byte) QualityResult
	AnalyzeBatch(payloads [][]byte) ([]QualityResult, BatchSummary)
	AnalyzeEach(n int, load Loader) ([]QualityResult, BatchSummary)
	Decode(data []byte) (*bitmap.Bitmap, error)
	Config() Config
}

var _ ImageAnalyzer = (*Engine)(nil)
