// Copyright (c) 2025 A Bit of Help, Inc.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/logger"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/options"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"github.com/abitofhelp/zfpfixture/pkg/utils"
	"github.com/abitofhelp/zfpfixture/pkg/zfp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = "Usage: zfpfixture [--verbose] [--dry-run] [--no-baseline] <volume.raw> <compression_rate>"

// ExitFunc is a function that exits the program with a given status code
type ExitFunc func(int)

// DefaultExitFunc is the default implementation of ExitFunc
var DefaultExitFunc = os.Exit

// LoggerFunc builds the application logger once verbosity is known
type LoggerFunc func(verbose bool) *zap.Logger

// ProcessFileFunc is a function type for processing a file
type ProcessFileFunc func(ctx context.Context, log *zap.Logger, inputPath string, rate float64, opts *options.PipelineOptions) (*stats.Stats, error)

// parseRate converts the rate argument to bits per voxel
func parseRate(arg string) (float64, error) {
	rate, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: compression rate %q is not a number", customErrors.ErrUsage, arg)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, fmt.Errorf("%w: compression rate must be a positive number, got %q", customErrors.ErrUsage, arg)
	}
	if rate > zfp.MaxRate {
		return 0, fmt.Errorf("%w: compression rate may not exceed %d bits per voxel, got %q", customErrors.ErrUsage, zfp.MaxRate, arg)
	}
	return rate, nil
}

// run is the main logic of the application, extracted for testability
func run(args []string, stdout io.Writer, newLogger LoggerFunc, exit ExitFunc, processFile ProcessFileFunc) {
	flags := pflag.NewFlagSet("zfpfixture", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.Usage = func() {
		fmt.Fprintln(stdout, usage)
		flags.PrintDefaults()
	}
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	dryRun := flags.Bool("dry-run", false, "compress but do not write the fixture")
	noBaseline := flags.Bool("no-baseline", false, "skip the lossless size reference")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			exit(0)
			return
		}
		fmt.Fprintln(stdout, err)
		fmt.Fprintln(stdout, usage)
		exit(1)
		return
	}

	log := newLogger(*verbose)
	defer logger.SafeSync(log)

	fail := func() {
		logger.SafeSync(log)
		exit(1)
	}

	if flags.NArg() != 2 {
		fmt.Fprintln(stdout, usage)
		log.Error("Invalid arguments", zap.Error(fmt.Errorf("%w: expected 2 arguments, got %d", customErrors.ErrUsage, flags.NArg())))
		fail()
		return
	}

	inputPath := flags.Arg(0)
	rate, err := parseRate(flags.Arg(1))
	if err != nil {
		fmt.Fprintln(stdout, usage)
		log.Error("Invalid arguments", zap.Error(err))
		fail()
		return
	}

	opts := options.DefaultPipelineOptions()
	opts.DryRun = *dryRun
	opts.Baseline = !*noBaseline

	// Create a context with cancellation for safety
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Defer the cleanup function to ensure signal handling is properly cleaned up
	cleanup := utils.SetupGracefulShutdown(ctx, cancel, log)
	defer cleanup()

	fixtureStats, err := processFile(ctx, log, inputPath, rate, opts)
	if err != nil {
		if customErrors.IsCancellationError(err) {
			log.Warn("Processing was canceled", zap.Error(err))
		} else if customErrors.IsTimeoutError(err) {
			log.Error("Processing timed out", zap.Error(err))
		} else if customErrors.IsFilenameFormatError(err) {
			log.Error("Unrecognized raw volume naming scheme", zap.Error(err))
		} else if customErrors.IsUnsupportedVoxelTypeError(err) {
			log.Error("Unsupported voxel type", zap.Error(err))
		} else if customErrors.IsUnsupportedRateError(err) {
			log.Error("Compression rate is not a whole number of bits per voxel", zap.Error(err))
		} else if customErrors.IsIOError(err) {
			log.Error("I/O error during processing", zap.Error(err))
		} else {
			log.Error("Failed to process file", zap.Error(err))
		}
		fail()
		return
	}

	fmt.Fprintf(stdout, "Used compression rate: %d\n", fixtureStats.AchievedRate)
	fmt.Fprintf(stdout, "Total compressed size: %dB\n", fixtureStats.CompressedBytes)

	// Display summary
	fixtureStats.WriteSummary(stdout, inputPath)
	fixtureStats.LogSummary(log, inputPath)
}

func main() {
	// Run the application with the default exit function and the fixture pipeline
	run(os.Args[1:], os.Stdout, logger.InitLogger, DefaultExitFunc, pipeline.ProcessFileWithOptions)
}
