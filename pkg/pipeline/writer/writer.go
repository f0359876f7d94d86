// Copyright (c) 2025 A Bit of Help, Inc.

// Package writer provides the writer stage for the fixture pipeline.
package writer

import (
	"context"
	"io"
	"os"
	"strconv"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/options"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const stageName = "writer"

// OutputPath returns the fixture path for inputPath compressed at rate,
// e.g. "vol_4x4x4_uint8.raw" at rate 8 becomes "vol_4x4x4_uint8.raw.crate8.zfp"
func OutputPath(inputPath string, rate int) string {
	return inputPath + options.RatePrefix + strconv.Itoa(rate) + options.OutputExtension
}

// Stage writes the compressed bytes to outputPath in a single write,
// creating or truncating the file
func Stage(
	ctx context.Context,
	logger *zap.Logger,
	outputPath string,
	data []byte,
	pipelineStats *stats.Stats,
	outputHasher io.Writer,
) (err error) {
	defer logger.Debug("Writer stage completed")

	if err := ctx.Err(); err != nil {
		if customErrors.IsTimeoutError(err) {
			logger.Warn("Writer timed out", zap.Error(err))
		} else {
			logger.Debug("Writer canceled by context", zap.Error(err))
		}
		return customErrors.NewFixtureError(err, stageName, "check_context", len(data), outputPath)
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		ioErr := customErrors.WrapIOError(err, stageName, "create_output_file", len(data), outputPath)
		logger.Error("Failed to create output file", zap.Error(ioErr))
		return ioErr
	}
	defer func() {
		if closeErr := outputFile.Close(); closeErr != nil {
			ioErr := customErrors.WrapIOError(closeErr, stageName, "close_output_file", len(data), outputPath)
			logger.Error("Failed to close output file", zap.Error(ioErr))
			err = multierr.Append(err, ioErr)
		}
	}()

	written, err := outputFile.Write(data)
	if err != nil {
		ioErr := customErrors.WrapIOError(err, stageName, "write_data", len(data), outputPath)
		logger.Error("Write error", zap.Error(ioErr), zap.Int("written", written))
		return ioErr
	}

	// Update output checksum
	outputHasher.Write(data)

	pipelineStats.OutputBytes = uint64(written)
	pipelineStats.OutputPath = outputPath

	logger.Debug("Wrote fixture",
		zap.String("path", outputPath),
		zap.Int("bytes", written))

	return nil
}
