// Copyright (c) 2025 A Bit of Help, Inc.

// Package reader provides the reader stage for the fixture pipeline.
package reader

import (
	"context"
	"io"
	"os"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"github.com/abitofhelp/zfpfixture/pkg/volume"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const stageName = "reader"

// Stage reads the raw volume at inputPath and returns its voxels widened to
// float32. A file shorter than desc declares is zero padded with a warning.
// At most limit voxels are decoded, all of them when limit <= 0. The rest of
// the declared bytes still pass through inputHasher and count as read.
func Stage(
	ctx context.Context,
	logger *zap.Logger,
	inputPath string,
	desc *volume.Descriptor,
	limit int,
	pipelineStats *stats.Stats,
	inputHasher io.Writer,
) (samples []float32, err error) {
	defer logger.Debug("Reader stage completed")

	if err := ctx.Err(); err != nil {
		logContextError(logger, err)
		return nil, customErrors.NewFixtureError(err, stageName, "check_context", 0, inputPath)
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		ioErr := customErrors.WrapIOError(err, stageName, "open_input_file", 0, inputPath)
		logger.Error("Failed to open input file", zap.Error(ioErr))
		return nil, ioErr
	}
	defer func() {
		if closeErr := inputFile.Close(); closeErr != nil {
			logger.Warn("Failed to close input file", zap.Error(closeErr), zap.String("path", inputPath))
			err = multierr.Append(err, customErrors.WrapIOError(closeErr, stageName, "close_input_file", 0, inputPath))
		}
	}()

	count := desc.Dims.Count()
	expected := desc.ByteSize()
	decoded := count
	if limit > 0 {
		decoded = min(count, limit)
	}

	source := io.TeeReader(inputFile, inputHasher)
	samples, n, err := volume.Decode(source, desc.Type, decoded)
	if err != nil {
		ioErr := customErrors.WrapIOError(err, stageName, "read_data", n, inputPath)
		logger.Error("Read error", zap.Error(ioErr))
		return nil, ioErr
	}

	if rest := int64(expected - n); n == decoded*desc.Type.Size() && rest > 0 {
		skipped, err := io.Copy(io.Discard, io.LimitReader(source, rest))
		n += int(skipped)
		if err != nil {
			ioErr := customErrors.WrapIOError(err, stageName, "read_data", n, inputPath)
			logger.Error("Read error", zap.Error(ioErr))
			return nil, ioErr
		}
	}

	pipelineStats.Dims = desc.Dims.String()
	pipelineStats.VoxelType = desc.Type.String()
	pipelineStats.VoxelCount = uint64(count)
	pipelineStats.InputBytes = uint64(n)
	pipelineStats.ExpectedBytes = uint64(expected)

	if n < expected {
		logger.Warn("Input file is shorter than its name declares, missing voxels are zero",
			zap.String("path", inputPath),
			zap.Int("bytes_read", n),
			zap.Int("bytes_expected", expected))
	}

	logger.Debug("Read raw volume",
		zap.String("dims", desc.Dims.String()),
		zap.String("voxel_type", desc.Type.String()),
		zap.Int("voxels", count),
		zap.Int("voxels_decoded", decoded),
		zap.Int("bytes_read", n))

	return samples, nil
}

func logContextError(logger *zap.Logger, err error) {
	if customErrors.IsTimeoutError(err) {
		logger.Warn("Reader timed out", zap.Error(err))
	} else if customErrors.IsCancellationError(err) {
		logger.Debug("Reader canceled by context", zap.Error(err))
	} else {
		logger.Warn("Reader stopped by unknown context error", zap.Error(err))
	}
}
