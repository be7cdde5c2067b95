package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
)

func sampleReport() *Report {
	results := []analyzer.QualityResult{
		{Score: 30, Category: analyzer.Moderate, ProcessingTimeSeconds: 0.02, Features: &analyzer.FeatureVector{Sharpness: 120}},
		{Score: analyzer.ErrorScore, Category: analyzer.Error, ProcessingTimeSeconds: 0.001, Err: errors.New("invalid image")},
		{Score: 10, Category: analyzer.Good, ProcessingTimeSeconds: 0.03, Features: &analyzer.FeatureVector{Sharpness: 800}},
		{Score: 70, Category: analyzer.Bad, ProcessingTimeSeconds: 0.01, Features: &analyzer.FeatureVector{Sharpness: 20}},
		{Score: 10, Category: analyzer.Good, ProcessingTimeSeconds: 0.04, Features: &analyzer.FeatureVector{Sharpness: 900}},
	}
	names := []string{"/data/a.png", "/data/broken.jpg", "/data/c.png", "/data/d.png", "/data/e.png"}
	return New("optimized", names, results, analyzer.Summarize(results))
}

func TestRanking(t *testing.T) {
	r := sampleReport()

	best := r.Best(2)
	if len(best) != 2 || best[0].Filename != "c.png" || best[1].Filename != "e.png" {
		t.Errorf("Expected c.png, e.png as best, got %+v", best)
	}

	worst := r.Worst(3)
	want := []string{"d.png", "a.png", "c.png"}
	for i, name := range want {
		if worst[i].Filename != name {
			t.Errorf("Expected %s at worst position %d, got %s", name, i, worst[i].Filename)
		}
	}

	if n := len(r.Best(100)); n != 4 {
		t.Errorf("Expected all 4 successful records, got %d", n)
	}
	if n := len(r.Failed()); n != 1 {
		t.Errorf("Expected 1 failed record, got %d", n)
	}
}

func TestStats(t *testing.T) {
	st := sampleReport().Stats()

	if st.Count != 4 {
		t.Fatalf("Expected 4 scores, got %d", st.Count)
	}
	if st.Mean != 30 || st.Median != 20 || st.Min != 10 || st.Max != 70 {
		t.Errorf("Unexpected stats: %+v", st)
	}
	// Population std of 30, 10, 70, 10 around 30.
	if want := math.Sqrt(600); math.Abs(st.StdDev-want) > 1e-9 {
		t.Errorf("Expected std %v, got %v", want, st.StdDev)
	}
	if math.Abs(st.TotalTime-0.101) > 1e-9 {
		t.Errorf("Expected total time 0.101, got %v", st.TotalTime)
	}

	if want := 5 / 0.101; math.Abs(st.ImagesPerSec-want) > 1e-9 {
		t.Errorf("Expected %v images/s from summed time, got %v", want, st.ImagesPerSec)
	}

	// Items processed in parallel: 0.101s of work in 0.025s of wall time.
	parallel := sampleReport()
	parallel.WallTime = 0.025
	if got := parallel.Stats().ImagesPerSec; math.Abs(got-200) > 1e-9 {
		t.Errorf("Expected 200 images/s from wall time, got %v", got)
	}

	empty := New("optimized", nil, nil, analyzer.Summarize(nil)).Stats()
	if empty.Count != 0 || empty.Mean != 0 {
		t.Errorf("Expected zero stats for empty report, got %+v", empty)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport(), 2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total images:        5",
		"Failed analyses:     1",
		"Average: 30.00",
		"Good      2 (50.0%)",
		"broken.jpg: invalid image",
		"TOP 2 BEST QUALITY",
		"1. c.png - score 10 (Good)",
		"1. d.png - score 70 (Bad)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected text report to contain %q\n%s", want, out)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("Expected header and 5 rows, got %d", len(rows))
	}
	if rows[0][3] != "quality_score" {
		t.Errorf("Expected quality_score header, got %s", rows[0][3])
	}
	if rows[2][2] != "false" || rows[2][6] != "invalid image" {
		t.Errorf("Unexpected failed row: %v", rows[2])
	}
	if rows[3][3] != "10" || rows[3][7] != "800" {
		t.Errorf("Unexpected row: %v", rows[3])
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rows, err := parquet.Read[Record](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to read parquet: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}
	if rows[3].Filename != "d.png" || rows[3].Score != 70 || rows[3].Sharpness != 20 {
		t.Errorf("Unexpected row: %+v", rows[3])
	}
	if rows[1].Success || rows[1].Error != "invalid image" {
		t.Errorf("Unexpected failed row: %+v", rows[1])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var doc struct {
		Preset  string `yaml:"preset"`
		Summary struct {
			Successful int `yaml:"successful_analyses"`
		} `yaml:"summary"`
		Results []Record `yaml:"results"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if doc.Preset != "optimized" || doc.Summary.Successful != 4 || len(doc.Results) != 5 {
		t.Errorf("Unexpected YAML document: %+v", doc)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.csv", FormatCSV, false},
		{"out.parquet", FormatParquet, false},
		{"out.yml", FormatYAML, false},
		{"out.json", FormatJSON, false},
		{"out.txt", FormatText, false},
		{"out.xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%s): expected %s (err %v), got %s (%v)", tt.path, tt.want, tt.wantErr, got, err)
		}
	}

	if err := Write(&bytes.Buffer{}, sampleReport(), "xml", 0); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
