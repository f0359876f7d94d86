// Copyright (c) 2025 A Bit of Help, Inc.

// Package compressor provides the compressor stage for the fixture pipeline.
//
// This package integrates the core compression functionality from pkg/compression
// into the pipeline. It owns the codec's lifetime, runs the compression under the
// run context and records the outcome in the statistics.
package compressor

import (
	"context"

	"github.com/abitofhelp/zfpfixture/pkg/compression"
	"github.com/abitofhelp/zfpfixture/pkg/dataprocessor"
	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/pipeline/options"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"github.com/abitofhelp/zfpfixture/pkg/volume"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const stageName = "compressor"

// Stage compresses the leading block of samples at the requested rate.
// The codec is opened from newCodec and closed before returning.
func Stage(
	ctx context.Context,
	logger *zap.Logger,
	newCodec options.CodecFactory,
	samples []float32,
	dims volume.Dims,
	rate float64,
	baseline bool,
	pipelineStats *stats.Stats,
) (result *compression.Result, err error) {
	defer logger.Debug("Compressor stage completed")

	codec := newCodec()
	defer func() {
		if closeErr := codec.Close(); closeErr != nil {
			logger.Warn("Failed to close codec", zap.Error(closeErr))
			err = multierr.Append(err, customErrors.NewFixtureError(closeErr, stageName, "close_codec", 0, ""))
		}
	}()

	compress := func(samples []float32) (*compression.Result, error) {
		return compression.CompressLeadingBlock(codec, samples, dims, rate)
	}

	result, err = dataprocessor.ProcessWithContext(ctx, compress, samples)
	if err != nil {
		if customErrors.IsUnsupportedRateError(err) {
			logger.Error("Codec settled on a fractional rate, nothing will be written",
				zap.Float64("requested_rate", rate),
				zap.Error(err))
		} else {
			logger.Error("Compression failed", zap.Error(err))
		}
		return nil, customErrors.NewFixtureError(err, stageName, "compress_block", 4*len(samples), "")
	}

	blockVoxels := result.Shape.Count()
	pipelineStats.BlockVoxels = uint64(blockVoxels)
	pipelineStats.BlockBytes = uint64(4 * blockVoxels)
	pipelineStats.RequestedRate = rate
	pipelineStats.AchievedRate = result.Rate
	pipelineStats.CompressedBytes = uint64(len(result.Data))
	pipelineStats.BoundBytes = uint64(result.Bound)

	logger.Debug("Compressed leading block",
		zap.String("block", result.Shape.String()),
		zap.Float64("requested_rate", rate),
		zap.Int("achieved_rate", result.Rate),
		zap.Int("compressed_bytes", len(result.Data)),
		zap.Int("bound_bytes", result.Bound))

	if baseline {
		size, baselineErr := compression.BaselineSize(result.Samples)
		if baselineErr != nil {
			// The reference size is informational only
			logger.Warn("Failed to compute lossless baseline", zap.Error(baselineErr))
		} else {
			pipelineStats.BaselineBytes = uint64(size)
		}
	}

	return result, nil
}
