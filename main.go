package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/giygas/pvcohort/config"
	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/runner"
	"github.com/giygas/pvcohort/validation"
	"github.com/spf13/cobra"
)

// Flags overriding environment configuration
type configFlags struct {
	binder      string
	tree        string
	codePolicy  string
	metricsFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts config.Options
	var overrides configFlags

	cmd := &cobra.Command{
		Use:   "pvcohort",
		Short: "Link safety reports to drug classification codes and label adverse event cohorts",
		Long: `pvcohort reads pharmacovigilance safety reports, resolves every reported
drug to its substances, classification codes and hierarchy indices, drops
patients with any unresolved element, and writes either the full patient
table or a table labeled against one adverse event.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.SpecificSet = cmd.Flags().Changed("specific")
			opts.CSVSpecificSet = cmd.Flags().Changed("csvspecific")
			return validation.ValidateOptions(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, overrides)
			if err != nil {
				return err
			}

			logging.InitLogger(cfg, opts.Verbose)
			defer func() {
				if err := logging.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(ctx, cfg, opts)
			if err != nil {
				logging.Error("Run failed", "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully exported data to : %s\n", opts.Output)
			if summary.Quality != nil && summary.Quality.HasRisk() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: empty dictionaries %v, every patient resolved through them was dropped\n",
					summary.Quality.EmptyDictionaries)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Input, "input", "i", "", "safety report XML file, or an exported full table with --csvspecific")
	flags.StringVarP(&opts.Output, "output", "o", "", "output table")
	flags.StringVarP(&opts.Mapping, "mapping", "m", "", "standardized drug names file")
	flags.BoolVarP(&opts.Processed, "processed", "p", false, "the mapping was already reduced to two columns")
	flags.BoolVarP(&opts.All, "all", "a", false, "export the full CODE/AE/SUBSTANCES table")
	flags.StringVarP(&opts.Specific, "specific", "s", "", "label patients from the reports against an adverse event")
	flags.StringVarP(&opts.CSVSpecific, "csvspecific", "c", "", "label patients from an exported full table against an adverse event")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log patient counts after each stage")
	flags.BoolVar(&opts.EscapeTerm, "escape-term", false, "match the adverse event literally instead of as a regular expression")

	flags.StringVar(&overrides.binder, "binder", "", "substance to classification code file (overrides CODE_BINDER_PATH)")
	flags.StringVar(&overrides.tree, "tree", "", "classification hierarchy file (overrides HIERARCHY_PATH)")
	flags.StringVar(&overrides.codePolicy, "code-policy", "", "code kept for a substance listed several times: first or last (overrides CODE_POLICY)")
	flags.StringVar(&overrides.metricsFile, "metrics-file", "", "write run metrics in the Prometheus text format (overrides METRICS_FILE)")

	return cmd
}

// loadConfig reads the environment configuration and applies the flags
// given on the command line
func loadConfig(cmd *cobra.Command, overrides configFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("binder") {
		cfg.CodeBinderPath = overrides.binder
	}
	if flags.Changed("tree") {
		cfg.HierarchyPath = overrides.tree
	}
	if flags.Changed("code-policy") {
		cfg.CodePolicy = strings.ToLower(overrides.codePolicy)
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = overrides.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
