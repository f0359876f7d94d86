// Copyright (c) 2025 A Bit of Help, Inc.

// Package options provides configuration options for the fixture pipeline.
package options

import (
	"github.com/abitofhelp/zfpfixture/pkg/compression"
)

const (
	// RatePrefix precedes the achieved rate in the output file name
	RatePrefix = ".crate"

	// OutputExtension is appended to every output file name
	OutputExtension = ".zfp"
)

// CodecFactory opens a new codec for a single run
type CodecFactory func() compression.Codec

// PipelineOptions contains configuration options for the fixture pipeline
type PipelineOptions struct {
	// NewCodec opens the codec used by the compressor stage
	NewCodec CodecFactory

	// DryRun runs every stage except the writer
	DryRun bool

	// Baseline enables the lossless reference size in the summary
	Baseline bool
}

// DefaultPipelineOptions returns a PipelineOptions with default values
func DefaultPipelineOptions() *PipelineOptions {
	return &PipelineOptions{
		NewCodec: compression.NewZFPCodec,
		DryRun:   false,
		Baseline: true,
	}
}
