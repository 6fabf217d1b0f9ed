package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	preprocessor "github.com/theoremus-urban-solutions/gtfs-preprocessor"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/config"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/internal/logging"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
)

// errValidation marks a run whose conversion succeeded but whose output failed validation.
var errValidation = errors.New("output validation failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	configPath       string
	inputDir         string
	outputDir        string
	transferXLSX     string
	skipTransfers    bool
	emptyTransfers   bool
	validate         bool
	chunkSize        int
	progressInterval int
	cleanupOnError   bool
	logLevel         string
	logJSON          bool
	metricsFile      string
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "gtfs-preprocessor",
		Short:         "Convert a KTDB GTFS feed into an OpenTripPlanner compatible GTFS feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (default: config.yml if present)")
	fl.StringVar(&f.inputDir, "input-dir", "", "source GTFS directory")
	fl.StringVar(&f.outputDir, "output-dir", "", "destination GTFS directory")
	fl.StringVar(&f.transferXLSX, "transfer-xlsx", "", "subway transfer workbook (name in input dir or path)")
	fl.BoolVar(&f.skipTransfers, "skip-transfers", false, "do not generate transfers.txt")
	fl.BoolVar(&f.emptyTransfers, "empty-transfers", false, "write a header-only transfers.txt when transfers are skipped")
	fl.BoolVar(&f.validate, "validate", false, "validate the output after conversion")
	fl.IntVar(&f.chunkSize, "chunk-size", 0, "stop_times.txt records per chunk")
	fl.IntVar(&f.progressInterval, "progress-interval", 0, "log progress every N chunks")
	fl.BoolVar(&f.cleanupOnError, "cleanup-on-error", false, "remove partial stop_times.txt output when conversion fails")
	fl.StringVar(&f.logLevel, "log-level", "", "debug|info|warn|error")
	fl.BoolVar(&f.logJSON, "log-json", false, "log as JSON")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := config.LoadAppConfig(f.configPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "config:", err)
		return err
	}
	applyFlags(cmd, f, &cfg)

	logger := logging.InitLogging(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: cmd.ErrOrStderr()})
	metrics := telemetry.New()

	p, err := preprocessor.New(cfg, preprocessor.WithLogger(logger), preprocessor.WithMetrics(metrics))
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}

	report, err := p.Run(cmd.Context())
	if mErr := metrics.WriteTextfile(cfg.Metrics.TextfilePath); mErr != nil {
		logger.Warn("metrics not written", "err", mErr)
	}
	if err != nil {
		var missing *preprocessor.MissingFilesError
		if errors.As(err, &missing) {
			logger.Error("required input files missing", "dir", missing.Dir, "files", missing.Names)
		} else {
			logger.Error("conversion failed", "err", err)
		}
		return err
	}
	report.WriteSummary(cmd.OutOrStdout())

	if !f.validate {
		return nil
	}
	vr := p.ValidateOutput()
	vr.WriteSummary(cmd.OutOrStdout())
	if !vr.Passed {
		return errValidation
	}
	return nil
}

// applyFlags overrides config values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.AppConfig) {
	changed := cmd.Flags().Changed
	if changed("input-dir") {
		cfg.Feed.InputDir = f.inputDir
	}
	if changed("output-dir") {
		cfg.Feed.OutputDir = f.outputDir
	}
	if changed("transfer-xlsx") {
		cfg.Feed.TransferXLSX = f.transferXLSX
	}
	if changed("skip-transfers") {
		cfg.Feed.SkipTransfers = f.skipTransfers
	}
	if changed("empty-transfers") {
		cfg.Feed.EmptyTransfersOnSkip = f.emptyTransfers
	}
	if changed("chunk-size") {
		cfg.StopTimes.ChunkSize = f.chunkSize
	}
	if changed("progress-interval") {
		cfg.StopTimes.ProgressInterval = f.progressInterval
	}
	if changed("cleanup-on-error") {
		cfg.StopTimes.CleanupOnError = f.cleanupOnError
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-json") {
		cfg.Log.JSON = f.logJSON
	}
	if changed("metrics-file") {
		cfg.Metrics.TextfilePath = f.metricsFile
	}
}
