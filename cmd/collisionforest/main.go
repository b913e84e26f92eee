package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

type rootCmdConfig struct {
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cliParser(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func cliParser(stdout, stderr io.Writer) *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "collisionforest",
		Short: "collisionforest models traffic collision outcomes with random forests",
		Long: `Train random-forest regressions of collision outcomes (injuries, deaths,
pedestrian injuries and deaths) on per-geography features, one city at a
time, and report fit, holdout RMSE, target statistics and feature importances.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.setupLogging(stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&config.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&config.logFormat, "log-format", "console", "log format: console, json, cloud")
	rootCmd.AddCommand(versionCmd(), runCmd(config), evaluateCmd(config))
	return rootCmd
}

func (c *rootCmdConfig) setupLogging(w io.Writer) error {
	level, err := log.ParseLevel(c.logLevel)
	if err != nil {
		return err
	}
	p, err := log.NewProvider(c.logFormat, w, level)
	if err != nil {
		return err
	}
	log.SetProvider(p)
	return nil
}
