// Copyright (c) 2025 A Bit of Help, Inc.

package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewStats(t *testing.T) {
	stats := NewStats()

	if stats == nil {
		t.Fatal("Expected non-nil Stats instance, got nil")
	}
	if stats.InputHash == nil {
		t.Error("Expected non-nil InputHash, got nil")
	}
	if stats.OutputHash == nil {
		t.Error("Expected non-nil OutputHash, got nil")
	}
	if stats.InputBytes != 0 || stats.CompressedBytes != 0 || stats.OutputBytes != 0 {
		t.Error("Expected byte counters to start at zero")
	}
	if stats.ZeroPadded() {
		t.Error("Empty stats should not report zero padding")
	}
}

func TestZeroPadded(t *testing.T) {
	stats := NewStats()
	stats.ExpectedBytes = 16
	stats.InputBytes = 10
	if !stats.ZeroPadded() {
		t.Error("Expected short input to be reported as zero padded")
	}

	stats.InputBytes = 16
	if stats.ZeroPadded() {
		t.Error("Complete input should not be reported as zero padded")
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"hours", 2*time.Hour + 30*time.Minute + 15*time.Second + 500*time.Millisecond, "2h 30m 15s 500ms"},
		{"minutes", 30*time.Minute + 15*time.Second + 500*time.Millisecond, "30m 15s 500ms"},
		{"seconds", 15*time.Second + 500*time.Millisecond, "15s 500ms"},
		{"milliseconds", 500 * time.Millisecond, "500ms"},
		{"zero", 0, "0ms"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if result := FormatDuration(tc.duration); result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

// Helper function for approximate floating point comparison
func approxEqual(a, b, epsilon float64) bool {
	return a-b < epsilon && b-a < epsilon
}

func TestCalculateRatios(t *testing.T) {
	testCases := []struct {
		name             string
		block            uint64
		compressed       uint64
		baseline         uint64
		expectedComp     float64
		expectedBaseline float64
	}{
		{"rate 8 block", 256, 64, 20, 4.0, 12.8},
		{"no baseline", 256, 32, 0, 8.0, 0},
		{"empty block", 0, 64, 20, 0, 0},
		{"nothing compressed", 256, 0, 20, 0, 12.8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStats()
			s.BlockBytes = tc.block
			s.CompressedBytes = tc.compressed
			s.BaselineBytes = tc.baseline

			comp, baseline := s.CalculateRatios()
			if !approxEqual(comp, tc.expectedComp, 0.01) {
				t.Errorf("Expected compression ratio %.3f, got %.3f", tc.expectedComp, comp)
			}
			if !approxEqual(baseline, tc.expectedBaseline, 0.01) {
				t.Errorf("Expected baseline ratio %.3f, got %.3f", tc.expectedBaseline, baseline)
			}
		})
	}
}

func sampleStats() *Stats {
	s := NewStats()
	s.Dims = "4x4x4"
	s.VoxelType = "uint8"
	s.VoxelCount = 64
	s.InputBytes = 60
	s.ExpectedBytes = 64
	s.BlockVoxels = 64
	s.BlockBytes = 256
	s.RequestedRate = 8
	s.AchievedRate = 8
	s.CompressedBytes = 64
	s.BoundBytes = 88
	s.BaselineBytes = 20
	s.OutputBytes = 64
	s.OutputPath = "volume_4x4x4_uint8.raw.crate8.zfp"
	s.ProcessingTime = time.Second
	s.InputHash = []byte{1, 2, 3, 4, 5}
	s.OutputHash = []byte{6, 7, 8, 9, 10}
	return s
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	sampleStats().WriteSummary(&buf, "volume_4x4x4_uint8.raw")
	output := buf.String()

	expectedStrings := []string{
		"Fixture Summary",
		"Input file: volume_4x4x4_uint8.raw",
		"Output file: volume_4x4x4_uint8.raw.crate8.zfp",
		"Volume: 4x4x4 uint8",
		"Missing bytes zero padded: 4",
		"Input SHA256: 0102030405",
		"Achieved rate: 8 bits/voxel",
		"bound 88 bytes",
		"Block to Compressed Ratio: 4.00:1",
		"Lossless (Brotli) baseline",
		"Output SHA256: 060708090a",
		"Total processing time: 1s 0ms",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, but it didn't.\nOutput: %s", expected, output)
		}
	}
}

func TestWriteSummary_DryRun(t *testing.T) {
	s := sampleStats()
	s.OutputPath = ""
	s.BaselineBytes = 0

	var buf bytes.Buffer
	s.WriteSummary(&buf, "volume_4x4x4_uint8.raw")
	output := buf.String()

	if !strings.Contains(output, "dry run") {
		t.Errorf("Expected dry run marker in output: %s", output)
	}
	if strings.Contains(output, "Output SHA256") {
		t.Error("Dry run summary should not report an output hash")
	}
	if strings.Contains(output, "Brotli") {
		t.Error("Summary should omit the baseline when it was not computed")
	}
}

func TestLogSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	sampleStats().LogSummary(logger, "volume_4x4x4_uint8.raw")

	entries := logs.FilterMessage("Fixture generated successfully").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one summary log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["achieved_rate"] != int64(8) {
		t.Errorf("Expected achieved_rate 8, got %v", fields["achieved_rate"])
	}
	if fields["zero_padded"] != true {
		t.Errorf("Expected zero_padded true, got %v", fields["zero_padded"])
	}
}
