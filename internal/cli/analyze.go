package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/bitmap"
	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/factory"
	"github.com/anime-shed/image-quality-go/internal/report"
	"github.com/anime-shed/image-quality-go/internal/repository"
	"github.com/anime-shed/image-quality-go/internal/storage"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

// source reads local paths from disk and URLs through the remote
// repository.
type source struct {
	local  storage.ImageFetcher
	remote repository.ImageRepository
}

func newSource(cfg *config.Config) (*source, error) {
	storages := factory.NewStorageFactory(cfg)

	local, err := storages.CreateStorage(factory.LocalStorage)
	if err != nil {
		return nil, err
	}
	httpFetcher, err := storages.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	var azureFetcher storage.ImageFetcher
	if cfg.AzureAccount != "" {
		if azureFetcher, err = storages.CreateStorage(factory.AzureStorage); err != nil {
			return nil, err
		}
	}

	validator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts)
	return &source{
		local:  local,
		remote: repository.NewRemoteImageRepository(httpFetcher, azureFetcher, validator),
	}, nil
}

func (s *source) fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return s.remote.FetchImage(ctx, location)
	}
	return s.local.FetchImage(ctx, location)
}

// loader fetches location i of locations and decodes it with decode,
// stopping once ctx is done.
func (s *source) loader(ctx context.Context, locations []string, decode analyzer.Decoder) analyzer.Loader {
	return func(i int) (*bitmap.Bitmap, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.fetch(ctx, locations[i])
		if err != nil {
			return nil, err
		}
		return decode(data)
	}
}

func newAnalyzeCmd(g *globals) *cobra.Command {
	var (
		format       string
		showFeatures bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image|url>...",
		Short: "Score individual images",
		Example: `  # Score one file
  iqa analyze photo.jpg

  # Score a remote image with the smart preset, as JSON
  iqa analyze --preset smart --format json https://example.com/photo.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.engine()
			if err != nil {
				return err
			}
			src, err := newSource(g.cfg)
			if err != nil {
				return err
			}

			results, summary := e.AnalyzeEach(len(args), src.loader(cmd.Context(), args, e.Decode))
			rep := report.New(e.Config().Name, args, results, summary)

			out := cmd.OutOrStdout()
			if report.Format(format) == report.FormatText {
				err = writeResults(out, args, results, showFeatures)
			} else {
				err = report.Write(out, rep, report.Format(format), 0)
			}
			if err != nil {
				return err
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d images could not be analysed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml, csv")
	cmd.Flags().BoolVar(&showFeatures, "features", false, "print feature readings (text format)")

	return cmd
}

func writeResults(w io.Writer, names []string, results []analyzer.QualityResult, showFeatures bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range results {
		if r.Failed() {
			fmt.Fprintf(tw, "%s\tError\t%v\n", names[i], r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\tscore %g\t%.4fs\n", names[i], r.Category, r.Score, r.ProcessingTimeSeconds)
		if showFeatures && r.Features != nil {
			for _, f := range analyzer.Features {
				fmt.Fprintf(tw, "\t%s\t%.4f\t\n", f, r.Features.Value(f))
			}
		}
	}
	return tw.Flush()
}
