package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/factory"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

func newPresetsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect and lint scoring profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tLOW CUT\tHIGH CUT\tFEATURES")
			for _, name := range analyzer.PresetNames() {
				cfg, err := analyzer.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%g\t%g\t%d\n", cfg.Name, cfg.AnalysisSize, cfg.LowCut, cfg.HighCut, len(cfg.Rules))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [preset]",
		Short: "Print a profile as a rules file",
		Long: `Prints the named preset, or the profile resolved from the current
config, preset and rules flags, in the rules file format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.profile(args)
			if err != nil {
				return err
			}
			return analyzer.WriteProfile(cmd.OutOrStdout(), cfg)
		},
	})

	var strict bool
	lint := &cobra.Command{
		Use:   "lint [preset]",
		Short: "Check a profile for unreachable rules and categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var issues []validation.QualityIssue
			cfg, err := g.profile(args)
			if err != nil {
				// Profiles that fail to load are reported as lint errors.
				issues = []validation.QualityIssue{{
					Type:     validation.IssueInvalidProfile,
					Message:  err.Error(),
					Severity: validation.SeverityError,
				}}
			} else {
				v := validation.NewProfileValidator()
				v.RequireAllFeatures = strict
				issues = v.ValidateProfile(cfg)
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: ok\n", cfg.Name)
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "%s\t%s\t%s\n", issue.Severity, issue.Type, issue.Message)
			}
			if validation.HasCriticalIssues(issues) {
				return fmt.Errorf("profile has errors")
			}
			return nil
		},
	}
	lint.Flags().BoolVar(&strict, "strict", false, "warn about features without rules")
	cmd.AddCommand(lint)

	return cmd
}

// profile returns the named preset, or the configured profile when no name
// is given.
func (g *globals) profile(args []string) (analyzer.Config, error) {
	if len(args) == 1 {
		return analyzer.Preset(args[0])
	}
	return factory.EngineConfig(g.cfg)
}
