// Command poolctl is a small demo/benchmark harness around
// pkg/pthreadpool, built the way the example repos this tree learned
// from ship their own CLIs: one cobra.Command tree, one file per
// subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gopool/pthreadpool/internal/logx"
)

var (
	logFormat string
	logLevel  string
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poolctl",
		Short:         "Drive a pthreadpool-style worker pool from the command line",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(buildRunCmd())
	root.AddCommand(buildBenchCmd())
	root.AddCommand(buildForkDemoCmd())

	return root
}

func configureLogging() {
	format := logx.Text
	if logFormat == "json" {
		format = logx.JSON
	}

	level := logx.Info
	switch logLevel {
	case "debug":
		level = logx.Debug
	case "warn":
		level = logx.Warn
	case "error":
		level = logx.Error
	}

	logx.Configure(logx.Config{Level: level, Format: format})
}
