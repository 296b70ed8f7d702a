package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"swissdox-cli/internal/app"
)

var (
	cfgPath     string
	verbose     bool
	logFile     string
	timeout     time.Duration
	metricsFile string
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "swissdox-cli",
	Short: "Submit corpus queries to Swissdox, fetch the results and split them into paragraphs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

func commonOptions() app.CommonOptions {
	return app.CommonOptions{
		ConfigPath:  cfgPath,
		Verbose:     verbose,
		LogFile:     logFile,
		MetricsFile: metricsFile,
		Timeout:     timeout,
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.swissdox-cli/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "emit NDJSON logs including HTTP traces")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (default run.request_timeout_second)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version information")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(setCmd)
}
