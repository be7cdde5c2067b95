// Package report renders batch analysis results as text, CSV, JSON, YAML
// or Parquet.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
)

// Record is one analysed image. Feature columns are zero for failed items.
type Record struct {
	Index             int     `json:"index" yaml:"index" parquet:"index"`
	Filename          string  `json:"filename" yaml:"filename" parquet:"filename"`
	Success           bool    `json:"success" yaml:"success" parquet:"success"`
	Score             float64 `json:"quality_score" yaml:"quality_score" parquet:"quality_score"`
	Category          string  `json:"category" yaml:"category" parquet:"category"`
	ProcessingTime    float64 `json:"processing_time" yaml:"processing_time" parquet:"processing_time"`
	Error             string  `json:"error,omitempty" yaml:"error,omitempty" parquet:"error"`
	Sharpness         float64 `json:"sharpness" yaml:"sharpness" parquet:"sharpness"`
	Noise             float64 `json:"noise" yaml:"noise" parquet:"noise"`
	Contrast          float64 `json:"contrast" yaml:"contrast" parquet:"contrast"`
	Brightness        float64 `json:"brightness" yaml:"brightness" parquet:"brightness"`
	EdgeDensity       float64 `json:"edge_density" yaml:"edge_density" parquet:"edge_density"`
	ColorImbalance    float64 `json:"color_imbalance" yaml:"color_imbalance" parquet:"color_imbalance"`
	ColorVariation    float64 `json:"color_variation" yaml:"color_variation" parquet:"color_variation"`
	TextureUniformity float64 `json:"texture_uniformity" yaml:"texture_uniformity" parquet:"texture_uniformity"`
}

// Report is a batch run ready to be rendered.
type Report struct {
	Preset      string                `json:"preset" yaml:"preset"`
	GeneratedAt time.Time             `json:"generated_at" yaml:"generated_at"`
	WallTime    float64               `json:"wall_time" yaml:"wall_time"`
	Summary     analyzer.BatchSummary `json:"summary" yaml:"summary"`
	Records     []Record              `json:"results" yaml:"results"`
}

// New pairs results with their source names. names and results must have
// the same length.
func New(preset string, names []string, results []analyzer.QualityResult, summary analyzer.BatchSummary) *Report {
	r := &Report{
		Preset:      preset,
		GeneratedAt: time.Now(),
		Summary:     summary,
		Records:     make([]Record, len(results)),
	}
	for i, res := range results {
		rec := Record{
			Index:          i,
			Filename:       filepath.Base(names[i]),
			Success:        !res.Failed(),
			Score:          res.Score,
			Category:       string(res.Category),
			ProcessingTime: res.ProcessingTimeSeconds,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		if fv := res.Features; fv != nil {
			rec.Sharpness = fv.Sharpness
			rec.Noise = fv.Noise
			rec.Contrast = fv.Contrast
			rec.Brightness = fv.Brightness
			rec.EdgeDensity = fv.EdgeDensity
			rec.ColorImbalance = fv.ColorImbalance
			rec.ColorVariation = fv.ColorVariation
			rec.TextureUniformity = fv.TextureUniformity
		}
		r.Records[i] = rec
	}
	return r
}

// Successful returns the records that produced a score, in input order.
func (r *Report) Successful() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Success {
			out = append(out, rec)
		}
	}
	return out
}

// Failed returns the records that did not.
func (r *Report) Failed() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.Success {
			out = append(out, rec)
		}
	}
	return out
}

// Best returns up to n successful records with the lowest scores. Ties keep
// input order.
func (r *Report) Best(n int) []Record {
	return r.ranked(n, func(a, b Record) bool { return a.Score < b.Score })
}

// Worst returns up to n successful records with the highest scores.
func (r *Report) Worst(n int) []Record {
	return r.ranked(n, func(a, b Record) bool { return a.Score > b.Score })
}

func (r *Report) ranked(n int, less func(a, b Record) bool) []Record {
	recs := r.Successful()
	sort.SliceStable(recs, func(i, j int) bool { return less(recs[i], recs[j]) })
	if n >= 0 && n < len(recs) {
		recs = recs[:n]
	}
	return recs
}

// ScoreStats describes the successful scores of a report.
type ScoreStats struct {
	Count        int
	Mean         float64
	Median       float64
	Min          float64
	Max          float64
	StdDev       float64
	MeanTime     float64
	TotalTime    float64
	ImagesPerSec float64
}

// Stats computes score and timing statistics over successful records. The
// standard deviation is the population one.
func (r *Report) Stats() ScoreStats {
	recs := r.Successful()
	s := ScoreStats{Count: len(recs), TotalTime: r.Summary.TotalProcessingSeconds}
	if len(recs) == 0 {
		return s
	}

	scores := make([]float64, len(recs))
	times := make([]float64, len(recs))
	for i, rec := range recs {
		scores[i] = rec.Score
		times[i] = rec.ProcessingTime
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(scores, nil)
	s.MeanTime = stat.Mean(times, nil)

	sort.Float64s(scores)
	s.Min, s.Max = scores[0], scores[len(scores)-1]
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		s.Median = scores[mid]
	} else {
		s.Median = (scores[mid-1] + scores[mid]) / 2
	}
	// Parallel batches overlap item times, so elapsed wall time wins when known.
	elapsed := s.TotalTime
	if r.WallTime > 0 {
		elapsed = r.WallTime
	}
	if elapsed > 0 {
		s.ImagesPerSec = float64(len(r.Records)) / elapsed
	}
	return s
}

// Format names an output format.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCSV, FormatParquet}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch filepath.Ext(path) {
	case ".txt":
		return FormatText, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("cannot infer report format from %q", path)
}

// Write renders r in the given format. top bounds the best/worst lists of
// the text format.
func Write(w io.Writer, r *Report, format Format, top int) error {
	switch format {
	case FormatText:
		return WriteText(w, r, top)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatParquet:
		return WriteParquet(w, r)
	}
	return fmt.Errorf("unsupported format: %s", format)
}
