package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxygene76/windcloud/internal/catalog"
	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/pkg/pipeline"
	"github.com/oxygene76/windcloud/pkg/utils"
)

const (
	appName = "windcloud"
	version = "v1.0.0"

	defaultConfigFile = "windcloud.yaml"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   appName + " -f CONFIG",
		Short: "UV radiation effects in wind-cloud simulations",
		Long: `windcloud post-processes HD/MHD wind-cloud simulations. The MODE section
of the config file selects the pipeline:

  0 radiation   prepare the ionising SED and Cloudy parameter files
  1 synthetic   column-density maps and mock spectra of one snapshot
  2 clouds      cloud diagnostics time series and cut images`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbose(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			logging.Debugf("config %s, mode %s", cfgFile, cfg.Mode.Mode)

			summary, err := pipeline.Dispatch(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			logging.Debugf("%s run %q finished in %s", summary.Mode, summary.Name, summary.Duration.Round(time.Millisecond))

			if cfg.Clouds.Catalog == "" {
				return nil
			}
			cat, err := catalog.Open(cfg.Clouds.Catalog)
			if err != nil {
				return err
			}
			defer cat.Close()
			run, err := cat.Record(summary)
			if err != nil {
				return err
			}
			logging.Printf("run %s recorded in %s", run.RunID, cfg.Clouds.Catalog)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "f", "", "config file (.ini, .cfg, .yaml, .toml or .json)")
	rootCmd.MarkFlagRequired("config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newRunsCmd())
	return rootCmd
}

// newInitCmd writes a default configuration
func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := utils.SaveConfig(utils.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// newRunsCmd lists the run catalog, or shows one run with --id
func newRunsCmd() *cobra.Command {
	var (
		path  string
		id    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List completed runs from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(path)
			if err != nil {
				return err
			}
			defer cat.Close()

			var runs []*catalog.Run
			if id != "" {
				run, err := cat.Get(id)
				if err != nil {
					return err
				}
				runs = append(runs, run)
			} else if runs, err = cat.List(limit); err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "catalog database (CLOUDS.catalog)")
	cmd.Flags().StringVar(&id, "id", "", "show only the run with this id")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many runs")
	cmd.MarkFlagRequired("catalog")
	return cmd
}

func printRuns(out io.Writer, runs []*catalog.Run) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tMODE\tNAME\tSNAPSHOTS\tSTARTED\tDURATION\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.RunID, r.Mode, r.Name, r.Snapshots,
			time.Unix(0, r.StartedAt).UTC().Format(time.RFC3339),
			r.Duration().Round(time.Millisecond), r.OutputPath)
	}
	return w.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
