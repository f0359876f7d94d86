// Copyright (c) 2025 A Bit of Help, Inc.

// Package pipeline provides the fixture generation pipeline for the application.
// It runs the stages of a single fixture run in order: decode the file name,
// read the raw volume, compress its leading block and write the fixture.
//
// The pipeline architecture separates core functionality from pipeline integration:
//
//  1. Core packages in /pkg (like volume, compression, zfp) implement the
//     algorithms and can be used independently of the pipeline.
//
//  2. Pipeline packages in /pkg/pipeline (like reader, compressor, writer) wrap
//     them with file handling, context checks, logging and statistics.
//
// Each stage's output is the next stage's input. The first failure ends the run
// and nothing after it executes, so a failed run never leaves an output file
// unless the writer itself failed part way.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"time"

	"github.com/abitofhelp/zfpfixture/pkg/compression"
	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/compressor"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/options"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/reader"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/writer"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"github.com/abitofhelp/zfpfixture/pkg/volume"
	"go.uber.org/zap"
)

// ProcessFile generates the fixture for inputPath at the requested rate using
// the default options.
func ProcessFile(ctx context.Context, logger *zap.Logger, inputPath string, rate float64) (*stats.Stats, error) {
	return ProcessFileWithOptions(ctx, logger, inputPath, rate, options.DefaultPipelineOptions())
}

// ProcessFileWithOptions generates the fixture for inputPath at the requested rate.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - logger: Logger for recording pipeline operations
//   - inputPath: Path to a raw volume named <name>_<X>x<Y>x<Z>_<type>.raw
//   - rate: Requested compression rate in bits per voxel
//   - opts: Codec factory and run switches
//
// Returns:
//   - *stats.Stats: Statistics about the run
//   - error: Any error that occurred during processing
func ProcessFileWithOptions(
	ctx context.Context,
	logger *zap.Logger,
	inputPath string,
	rate float64,
	opts *options.PipelineOptions,
) (*stats.Stats, error) {
	if err := validateInputs(ctx, logger, inputPath, opts); err != nil {
		return nil, err
	}

	if err := checkContext(ctx); err != nil {
		logContextError(logger, err, inputPath)
		return nil, wrapPipelineError(err, "check_context", inputPath)
	}

	startTime := time.Now()
	pipelineStats := stats.NewStats()
	hashers := setupHashers()

	desc, err := volume.ParseFilename(inputPath)
	if err != nil {
		logger.Error("Failed to decode volume file name", zap.Error(err), zap.String("input_file", inputPath))
		return nil, customErrors.NewFixtureError(err, "parser", "parse_filename", 0, inputPath)
	}
	logger.Debug("Decoded volume file name",
		zap.String("name", desc.Name),
		zap.String("dims", desc.Dims.String()),
		zap.String("voxel_type", desc.Type.String()))

	// Only the leading block is compressed
	blockVoxels := compression.BlockShape(desc.Dims).Count()
	samples, err := reader.Stage(ctx, logger, inputPath, desc, blockVoxels, pipelineStats, hashers.input)
	if err != nil {
		return nil, err
	}

	result, err := compressor.Stage(ctx, logger, opts.NewCodec, samples, desc.Dims, rate, opts.Baseline, pipelineStats)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		logger.Info("Dry run, no fixture written",
			zap.String("output_file", writer.OutputPath(inputPath, result.Rate)))
	} else {
		outputPath := writer.OutputPath(inputPath, result.Rate)
		if err := writer.Stage(ctx, logger, outputPath, result.Data, pipelineStats, hashers.output); err != nil {
			logPipelineError(logger, err, inputPath, startTime)
			return nil, err
		}
	}

	finalizeStats(pipelineStats, hashers, startTime)
	return pipelineStats, nil
}

type pipelineHashers struct {
	input  hash.Hash
	output hash.Hash
}

func validateInputs(ctx context.Context, logger *zap.Logger, inputPath string, opts *options.PipelineOptions) error {
	if ctx == nil {
		return customErrors.NewFixtureError(fmt.Errorf("context cannot be nil"), "pipeline", "validate_inputs", 0, "")
	}
	if logger == nil {
		return customErrors.NewFixtureError(fmt.Errorf("logger cannot be nil"), "pipeline", "validate_inputs", 0, "")
	}
	if inputPath == "" {
		return customErrors.NewFixtureError(fmt.Errorf("input path cannot be empty"), "pipeline", "validate_inputs", 0, "")
	}
	if opts == nil || opts.NewCodec == nil {
		return customErrors.NewFixtureError(fmt.Errorf("options must provide a codec"), "pipeline", "validate_inputs", 0, "")
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func setupHashers() *pipelineHashers {
	return &pipelineHashers{
		input:  sha256.New(),
		output: sha256.New(),
	}
}

// logContextError logs context-related errors
func logContextError(logger *zap.Logger, err error, inputPath string) {
	logger.Error("Pipeline context error",
		zap.Error(err),
		zap.String("input_file", inputPath))
}

// logPipelineError logs a failure after work has started
func logPipelineError(logger *zap.Logger, err error, inputPath string, startTime time.Time) {
	logger.Error("Pipeline processing failed",
		zap.Error(err),
		zap.String("input_file", inputPath),
		zap.Duration("duration", time.Since(startTime)))
}

// finalizeStats finalizes the pipeline statistics
func finalizeStats(pipelineStats *stats.Stats, hashers *pipelineHashers, startTime time.Time) {
	pipelineStats.InputHash = hashers.input.Sum(nil)
	pipelineStats.OutputHash = hashers.output.Sum(nil)
	pipelineStats.ProcessingTime = time.Since(startTime)
}

func wrapPipelineError(err error, operation, path string) error {
	return customErrors.NewFixtureError(err, "pipeline", operation, 0, path)
}
