package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/report"
	"github.com/anime-shed/image-quality-go/internal/storage"

	"github.com/sirupsen/logrus"
)

func newBatchCmd(g *globals) *cobra.Command {
	var (
		output string
		format string
		top    int
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <folder>",
		Short: "Score every image in a folder and report",
		Long: `Scores every image directly inside a folder (.png .jpg .jpeg .bmp .tiff
.tif .gif .webp) and prints a summary with the best and worst images.

With --output the per-image results are also exported; the format follows
the file extension (.csv, .parquet, .yaml, .json, .txt) unless --format is
given.`,
		Example: `  iqa batch ./photos --top 5 --output results.csv
  iqa batch ./photos --workers 8 --output results.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := storage.ListImages(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no image files found in %s", args[0])
			}

			e, err := g.engine()
			if err != nil {
				return err
			}
			src, err := newSource(g.cfg)
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"folder":  args[0],
				"images":  len(paths),
				"preset":  e.Config().Name,
				"workers": e.Config().Workers,
			}).Info("Starting batch analysis")

			start := time.Now()
			results, summary := e.AnalyzeEach(len(paths), src.loader(cmd.Context(), paths, e.Decode))
			rep := report.New(e.Config().Name, paths, results, summary)
			rep.WallTime = time.Since(start).Seconds()

			if !quiet {
				if err := report.WriteText(cmd.OutOrStdout(), rep, top); err != nil {
					return err
				}
			}

			if output != "" {
				if err := export(rep, output, format); err != nil {
					return err
				}
				logger.WithField("output", output).Info("Results saved")
			}
			return cmd.Context().Err()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "export results to this file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: csv, parquet, yaml, json, text")
	cmd.Flags().IntVarP(&top, "top", "n", 3, "number of best and worst images to list")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the text report")

	return cmd
}

func export(rep *report.Report, path, format string) error {
	f := report.Format(format)
	if f == "" {
		var err error
		if f, err = report.FormatFromPath(path); err != nil {
			return err
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.Write(out, rep, f, 0); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
