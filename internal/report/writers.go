package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
)

// WriteText prints the summary, the per-image table, failures and the best
// and worst top entries.
func WriteText(w io.Writer, r *Report, top int) error {
	b := &strings.Builder{}
	s := r.Summary
	st := r.Stats()

	fmt.Fprintln(b, "BATCH ANALYSIS REPORT")
	fmt.Fprintln(b, strings.Repeat("=", 50))
	fmt.Fprintf(b, "Preset:              %s\n", r.Preset)
	fmt.Fprintf(b, "Total images:        %d\n", s.Total)
	fmt.Fprintf(b, "Successful analyses: %d\n", s.Successful)
	fmt.Fprintf(b, "Failed analyses:     %d\n", s.Failed)
	fmt.Fprintln(b)

	if st.Count > 0 {
		fmt.Fprintln(b, "QUALITY SCORE STATISTICS")
		fmt.Fprintf(b, "  Average: %.2f\n", st.Mean)
		fmt.Fprintf(b, "  Median:  %.2f\n", st.Median)
		fmt.Fprintf(b, "  Best:    %.2f\n", st.Min)
		fmt.Fprintf(b, "  Worst:   %.2f\n", st.Max)
		fmt.Fprintf(b, "  Range:   %.2f\n", st.Max-st.Min)
		fmt.Fprintf(b, "  Std dev: %.2f\n", st.StdDev)
		fmt.Fprintln(b)

		fmt.Fprintln(b, "CATEGORY DISTRIBUTION")
		for _, c := range analyzer.Categories {
			n := s.Distribution[c]
			fmt.Fprintf(b, "  %-9s %d (%.1f%%)\n", c, n, 100*float64(n)/float64(s.Successful))
		}
		fmt.Fprintln(b)
	}

	fmt.Fprintln(b, "PROCESSING TIME")
	fmt.Fprintf(b, "  Average: %.4fs\n", st.MeanTime)
	fmt.Fprintf(b, "  Total:   %.4fs\n", st.TotalTime)
	if st.ImagesPerSec > 0 {
		fmt.Fprintf(b, "  Speed:   %.1f images/s\n", st.ImagesPerSec)
	}
	fmt.Fprintln(b)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if err := writeTable(w, r.Successful()); err != nil {
		return err
	}

	b.Reset()
	if failed := r.Failed(); len(failed) > 0 {
		fmt.Fprintln(b, "\nFAILED ANALYSES")
		for _, rec := range failed {
			fmt.Fprintf(b, "  %s: %s\n", rec.Filename, rec.Error)
		}
	}
	if top > 0 && st.Count > 0 {
		fmt.Fprintf(b, "\nTOP %d BEST QUALITY\n", top)
		for i, rec := range r.Best(top) {
			fmt.Fprintf(b, "  %d. %s - score %g (%s)\n", i+1, rec.Filename, rec.Score, rec.Category)
		}
		fmt.Fprintf(b, "\nTOP %d WORST QUALITY\n", top)
		for i, rec := range r.Worst(top) {
			fmt.Fprintf(b, "  %d. %s - score %g (%s)\n", i+1, rec.Filename, rec.Score, rec.Category)
		}
	}
	fmt.Fprintln(b, "\nLower scores mean better quality.")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(w io.Writer, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSCORE\tCATEGORY\tTIME(S)")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%.4f\n", rec.Filename, rec.Score, rec.Category, rec.ProcessingTime)
	}
	return tw.Flush()
}

var csvHeader = []string{
	"index", "filename", "success", "quality_score", "category", "processing_time", "error",
	"sharpness", "noise", "contrast", "brightness", "edge_density",
	"color_imbalance", "color_variation", "texture_uniformity",
}

// WriteCSV writes one row per record.
func WriteCSV(w io.Writer, r *Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range r.Records {
		row := []string{
			strconv.Itoa(rec.Index),
			rec.Filename,
			strconv.FormatBool(rec.Success),
			formatFloat(rec.Score),
			rec.Category,
			formatFloat(rec.ProcessingTime),
			rec.Error,
			formatFloat(rec.Sharpness),
			formatFloat(rec.Noise),
			formatFloat(rec.Contrast),
			formatFloat(rec.Brightness),
			formatFloat(rec.EdgeDensity),
			formatFloat(rec.ColorImbalance),
			formatFloat(rec.ColorVariation),
			formatFloat(rec.TextureUniformity),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteJSON writes the whole report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteYAML writes the whole report as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteParquet writes the records as a Parquet file. Summary values are
// derivable from the rows and are not stored.
func WriteParquet(w io.Writer, r *Report) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(r.Records); err != nil {
		writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
