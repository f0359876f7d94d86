// Copyright (c) 2025 A Bit of Help, Inc.

// Package stats provides functionality for tracking fixture generation statistics
package stats

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Stats tracks what a single fixture generation run read, compressed and wrote
type Stats struct {
	// Volume description
	Dims      string
	VoxelType string

	// Byte counts for different stages
	InputBytes      uint64
	ExpectedBytes   uint64
	BlockBytes      uint64
	CompressedBytes uint64
	BoundBytes      uint64
	BaselineBytes   uint64
	OutputBytes     uint64

	// Voxel counts
	VoxelCount  uint64
	BlockVoxels uint64

	// Rates in bits per voxel
	RequestedRate float64
	AchievedRate  int

	// OutputPath is empty for dry runs
	OutputPath string

	// Cryptographic hashes for verification
	InputHash  []byte
	OutputHash []byte

	// Performance metrics
	ProcessingTime time.Duration
}

// NewStats creates a new Stats instance with initialized fields
func NewStats() *Stats {
	return &Stats{
		InputHash:  make([]byte, 0),
		OutputHash: make([]byte, 0),
	}
}

// ZeroPadded reports whether the input file was shorter than its name declares
func (s *Stats) ZeroPadded() bool {
	return s.InputBytes < s.ExpectedBytes
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds %dms", hours, minutes, seconds, milliseconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds %dms", minutes, seconds, milliseconds)
	} else if seconds > 0 {
		return fmt.Sprintf("%ds %dms", seconds, milliseconds)
	}
	return fmt.Sprintf("%dms", milliseconds)
}

// CalculateRatios returns the block-to-compressed and block-to-baseline ratios
func (s *Stats) CalculateRatios() (float64, float64) {
	if s.BlockBytes == 0 {
		return 0, 0
	}

	var compressedRatio, baselineRatio float64
	if s.CompressedBytes > 0 {
		compressedRatio = float64(s.BlockBytes) / float64(s.CompressedBytes)
	}
	if s.BaselineBytes > 0 {
		baselineRatio = float64(s.BlockBytes) / float64(s.BaselineBytes)
	}
	return compressedRatio, baselineRatio
}

// WriteSummary prints the human readable summary to w
func (s *Stats) WriteSummary(w io.Writer, inputPath string) {
	timeFormatted := FormatDuration(s.ProcessingTime)
	compressedRatio, baselineRatio := s.CalculateRatios()

	outputPath := s.OutputPath
	if outputPath == "" {
		outputPath = "(dry run, nothing written)"
	}

	fmt.Fprintln(w, "\n==================")
	fmt.Fprintln(w, "Fixture Summary")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "Input file: %s\n", inputPath)
	fmt.Fprintf(w, "Output file: %s\n", outputPath)
	fmt.Fprintf(w, "Volume: %s %s (%s voxels)\n", s.Dims, s.VoxelType, humanize.Comma(int64(s.VoxelCount)))
	fmt.Fprintln(w, "------------------")
	fmt.Fprintf(w, "Input bytes read: %s (%d of %d bytes)\n", humanize.Bytes(s.InputBytes), s.InputBytes, s.ExpectedBytes)
	if s.ZeroPadded() {
		fmt.Fprintf(w, "Missing bytes zero padded: %d\n", s.ExpectedBytes-s.InputBytes)
	}
	fmt.Fprintf(w, "Input SHA256: %s\n", hex.EncodeToString(s.InputHash))
	fmt.Fprintf(w, "Block voxels compressed: %d (%d bytes as float32)\n", s.BlockVoxels, s.BlockBytes)
	fmt.Fprintln(w, "------------------")
	fmt.Fprintf(w, "Requested rate: %g bits/voxel\n", s.RequestedRate)
	fmt.Fprintf(w, "Achieved rate: %d bits/voxel\n", s.AchievedRate)
	fmt.Fprintf(w, "Compressed size: %s (%d bytes, bound %d bytes)\n", humanize.Bytes(s.CompressedBytes), s.CompressedBytes, s.BoundBytes)
	fmt.Fprintf(w, "Block to Compressed Ratio: %.2f:1\n", compressedRatio)
	if s.BaselineBytes > 0 {
		fmt.Fprintf(w, "Lossless (Brotli) baseline: %s (%.2f:1)\n", humanize.Bytes(s.BaselineBytes), baselineRatio)
	}
	if s.OutputPath != "" {
		fmt.Fprintf(w, "Output SHA256: %s\n", hex.EncodeToString(s.OutputHash))
	}
	fmt.Fprintln(w, "------------------")
	fmt.Fprintf(w, "Total processing time: %s (%v)\n", timeFormatted, s.ProcessingTime)
	fmt.Fprintln(w, "==================")
}

// LogSummary logs the detailed summary at debug level
func (s *Stats) LogSummary(logger *zap.Logger, inputPath string) {
	compressedRatio, baselineRatio := s.CalculateRatios()

	logger.Debug("Fixture generated successfully",
		zap.String("input_file", inputPath),
		zap.String("output_file", s.OutputPath),
		zap.String("dims", s.Dims),
		zap.String("voxel_type", s.VoxelType),
		zap.Uint64("input_bytes", s.InputBytes),
		zap.Uint64("expected_bytes", s.ExpectedBytes),
		zap.Bool("zero_padded", s.ZeroPadded()),
		zap.String("input_sha256_hash", hex.EncodeToString(s.InputHash)),
		zap.Uint64("block_voxels", s.BlockVoxels),
		zap.Float64("requested_rate", s.RequestedRate),
		zap.Int("achieved_rate", s.AchievedRate),
		zap.Uint64("compressed_bytes", s.CompressedBytes),
		zap.Uint64("bound_bytes", s.BoundBytes),
		zap.Float64("compression_ratio", compressedRatio),
		zap.Uint64("baseline_bytes", s.BaselineBytes),
		zap.Float64("baseline_ratio", baselineRatio),
		zap.Uint64("output_bytes", s.OutputBytes),
		zap.String("output_sha256_hash", hex.EncodeToString(s.OutputHash)),
		zap.Duration("processing_time", s.ProcessingTime),
		zap.String("formatted_processing_time", FormatDuration(s.ProcessingTime)))
}
