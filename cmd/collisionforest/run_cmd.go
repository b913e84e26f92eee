package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/collisionforest/battery"
	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/dataset/csvload"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
	"github.com/YuminosukeSato/collisionforest/plotting"
)

type runCmdConfig struct {
	*rootCmdConfig
	counts     string
	normalized string
	configFile string
	plotDir    string
	summary    string
	jobs       int
	seed       int64
}

func runCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &runCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a battery of evaluations",
		Long: `Run every evaluation of a battery and print one report per run, in order.
Without --config the default sixteen-run battery is used: {TotalInjuries,
TotalDeaths, PedeInjuries, PedeDeaths} x {NYC, LA} x {counts, normalized}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.loadBattery(cmd)
			if err != nil {
				return err
			}
			datasets, err := loadDatasets(cfg)
			if err != nil {
				return err
			}

			ev := &collision.Evaluator{Seed: cfg.Seed, Out: cmd.OutOrStdout()}
			if config.plotDir != "" {
				ev.Renderer = plotting.NewBarChartRenderer(config.plotDir)
			}
			runner := &battery.Runner{Evaluator: ev, Jobs: config.jobs}

			log.GetLoggerWithName("cli").Info("Starting battery",
				"runs", len(cfg.Runs),
				log.RandomSeedKey, cfg.Seed,
				"jobs", config.jobs,
			)
			reports, err := runner.Run(cmd.Context(), datasets, cfg.Runs)
			if err != nil {
				return err
			}
			if config.summary != "" {
				return writeSummary(config.summary, reports)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&config.counts, "counts", "", "path to the counts feature set (CSV or XLSX)")
	cmd.Flags().StringVar(&config.normalized, "normalized", "", "path to the normalized feature set (CSV or XLSX)")
	cmd.Flags().StringVarP(&config.configFile, "config", "c", "", "path to a YAML battery definition (defaults to the sixteen-run battery)")
	cmd.Flags().StringVar(&config.plotDir, "plots", "", "directory to write one importance chart per run (no charts when empty)")
	cmd.Flags().StringVar(&config.summary, "summary", "", "path to write a CSV summary of all runs")
	cmd.Flags().IntVarP(&config.jobs, "jobs", "j", 1, "number of runs evaluated concurrently")
	cmd.Flags().Int64Var(&config.seed, "seed", collision.DefaultSeed, "random seed (overrides the config file)")
	return cmd
}

// loadBattery loads the battery definition and applies flag overrides.
func (rcc *runCmdConfig) loadBattery(cmd *cobra.Command) (*battery.Config, error) {
	cfg := battery.Default()
	if rcc.configFile != "" {
		var err error
		if cfg, err = battery.LoadFile(rcc.configFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = rcc.seed
	}
	if rcc.counts != "" {
		cfg.Datasets[battery.Counts] = rcc.counts
	}
	if rcc.normalized != "" {
		cfg.Datasets[battery.Normalized] = rcc.normalized
	}
	for _, key := range cfg.DatasetKeys() {
		if cfg.Datasets[key] == "" {
			return nil, errors.NewValidationError("datasets", "no file given for dataset "+key, key)
		}
	}
	return cfg, nil
}

func loadDatasets(cfg *battery.Config) (map[string]*collision.Dataset, error) {
	datasets := map[string]*collision.Dataset{}
	for _, key := range cfg.DatasetKeys() {
		ds, err := csvload.ReadFile(key, cfg.Datasets[key])
		if err != nil {
			return nil, err
		}
		datasets[key] = ds
	}
	return datasets, nil
}

func writeSummary(path string, reports []*collision.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create summary %s", path)
	}
	if err := battery.WriteSummary(f, reports); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
