package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/dataset/csvload"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/plotting"
)

type evaluateCmdConfig struct {
	*rootCmdConfig
	data    string
	name    string
	plotDir string
	seed    int64
	params  collision.Params
}

func evaluateCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &evaluateCmdConfig{rootCmdConfig: rootConfig}
	defaults := collision.DefaultParams("", "")
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a single city and target",
		Long:  `Train one random forest for a city and target and print its report.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ds, err := csvload.ReadFile(config.name, config.data)
			if err != nil {
				return err
			}
			ev := &collision.Evaluator{Seed: config.seed, Out: cmd.OutOrStdout()}
			if config.plotDir != "" {
				ev.Renderer = plotting.NewBarChartRenderer(config.plotDir)
			}
			_, err = ev.Run(ds, config.params)
			return err
		},
	}
	cmd.Flags().StringVarP(&config.data, "data", "d", "", "path to a feature set (CSV or XLSX, required)")
	cmd.Flags().StringVar(&config.name, "name", "data", "label of the feature set used in chart file names")
	cmd.Flags().StringVar(&config.params.City, "city", "", "city label to select (required)")
	cmd.Flags().StringVarP(&config.params.Target, "target", "t", "", "outcome column to predict (required)")
	cmd.Flags().IntVar(&config.params.NEstimators, "trees", defaults.NEstimators, "number of trees")
	cmd.Flags().IntVar(&config.params.MaxDepth, "depth", defaults.MaxDepth, "maximum tree depth")
	cmd.Flags().Float64Var(&config.params.MaxFeatures, "max-features", defaults.MaxFeatures, "fraction of features considered per split")
	cmd.Flags().StringVar(&config.plotDir, "plots", "", "directory to write the importance chart (no chart when empty)")
	cmd.Flags().Int64Var(&config.seed, "seed", collision.DefaultSeed, "random seed")
	return cmd
}

func (ecc *evaluateCmdConfig) Validate() error {
	if ecc.data == "" {
		return errors.New("required data flag was not set")
	}
	if ecc.params.City == "" {
		return errors.New("required city flag was not set")
	}
	if ecc.params.Target == "" {
		return errors.New("required target flag was not set")
	}
	return nil
}
