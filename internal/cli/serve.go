package cli

import (
	"github.com/spf13/cobra"

	"github.com/anime-shed/image-quality-go/internal/container"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/transport"
)

func newServeCmd(g *globals) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the analysis API with /health, /analyze-single, /analyze-batch,
/analyze-file, /analyze-url and /metrics.`,
		Example: `  iqa serve --port 5000 --preset fast`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				g.cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				g.cfg.Port = port
			}
			if err := g.cfg.Validate(); err != nil {
				return err
			}
			// The API logs JSON to stdout like the standalone server.
			logger.SetOutput(cmd.OutOrStdout())

			c, err := container.NewContainer(g.cfg)
			if err != nil {
				return err
			}
			return transport.Serve(cmd.Context(), g.cfg, c.Handler())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")

	return cmd
}
