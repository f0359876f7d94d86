// Copyright (c) 2025 A Bit of Help, Inc.

package reader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/stats"
	"github.com/abitofhelp/zfpfixture/pkg/volume"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// writeVolume writes data under name in a temporary directory and returns the path
func writeVolume(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write test volume: %v", err)
	}
	return path
}

func mustDescriptor(t *testing.T, path string) *volume.Descriptor {
	t.Helper()
	desc, err := volume.ParseFilename(path)
	if err != nil {
		t.Fatalf("Failed to parse test volume name: %v", err)
	}
	return desc
}

func TestStage(t *testing.T) {
	logger := zaptest.NewLogger(t)

	data := make([]byte, 8)
	for i := range data {
		data[i] = byte(i + 1)
	}
	path := writeVolume(t, "ramp_2x2x2_uint8.raw", data)

	pipelineStats := stats.NewStats()
	inputHasher := sha256.New()

	samples, err := Stage(context.Background(), logger, path, mustDescriptor(t, path), 0, pipelineStats, inputHasher)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(samples) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(samples))
	}
	for i, v := range samples {
		if v != float32(i+1) {
			t.Errorf("Expected samples[%d] = %v, got %v", i, float32(i+1), v)
		}
	}

	if pipelineStats.InputBytes != 8 || pipelineStats.ExpectedBytes != 8 {
		t.Errorf("Expected 8 of 8 bytes read, got %d of %d", pipelineStats.InputBytes, pipelineStats.ExpectedBytes)
	}
	if pipelineStats.Dims != "2x2x2" || pipelineStats.VoxelType != "uint8" {
		t.Errorf("Unexpected volume description %s %s", pipelineStats.Dims, pipelineStats.VoxelType)
	}
	if pipelineStats.VoxelCount != 8 {
		t.Errorf("Expected voxel count 8, got %d", pipelineStats.VoxelCount)
	}

	expectedHash := sha256.Sum256(data)
	if !bytes.Equal(inputHasher.Sum(nil), expectedHash[:]) {
		t.Error("Input hash does not match the file contents")
	}
}

func TestStage_ShortFile(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	// 3 of the 8 uint16 voxels, the last one only half present
	data := []byte{1, 0, 2, 0, 3}
	path := writeVolume(t, "short_2x2x2_uint16.raw", data)

	pipelineStats := stats.NewStats()
	samples, err := Stage(context.Background(), logger, path, mustDescriptor(t, path), 0, pipelineStats, sha256.New())
	if err != nil {
		t.Fatalf("Expected short file to be accepted, got %v", err)
	}

	expected := []float32{1, 2, 3, 0, 0, 0, 0, 0}
	if len(samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("Expected samples[%d] = %v, got %v", i, expected[i], samples[i])
		}
	}

	if !pipelineStats.ZeroPadded() {
		t.Error("Expected stats to report zero padding")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Errorf("Expected one warning about zero padding, got %d", logs.FilterLevelExact(zapcore.WarnLevel).Len())
	}
}

func TestStage_MissingFile(t *testing.T) {
	logger := zaptest.NewLogger(t)

	path := filepath.Join(t.TempDir(), "missing_4x4x4_uint8.raw")
	pipelineStats := stats.NewStats()

	samples, err := Stage(context.Background(), logger, path, mustDescriptor(t, path), 0, pipelineStats, sha256.New())
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if !customErrors.IsIOError(err) {
		t.Errorf("Expected an I/O error, got %v", err)
	}
	if samples != nil {
		t.Errorf("Expected no samples, got %d", len(samples))
	}
	if pipelineStats.InputBytes != 0 {
		t.Errorf("Expected no input bytes, got %d", pipelineStats.InputBytes)
	}
}

func TestStage_CanceledContext(t *testing.T) {
	logger := zaptest.NewLogger(t)

	path := writeVolume(t, "ones_4x4x4_uint8.raw", bytes.Repeat([]byte{1}, 64))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stage(ctx, logger, path, mustDescriptor(t, path), 0, stats.NewStats(), sha256.New())
	if !customErrors.IsCancellationError(err) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
}

func TestStage_Limit(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		limit     int
		samples   []float32
		bytesRead uint64
	}{
		{"Decodes the leading voxels", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 3, []float32{1, 2, 3}, 8},
		{"Limit beyond the volume", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 64, []float32{1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{"Short file inside the limit", []byte{9, 8}, 4, []float32{9, 8, 0, 0}, 2},
		{"Short file past the limit", []byte{9, 8, 7, 6, 5}, 2, []float32{9, 8}, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeVolume(t, "lim_2x2x2_uint8.raw", tc.data)
			pipelineStats := stats.NewStats()
			inputHasher := sha256.New()

			samples, err := Stage(context.Background(), zaptest.NewLogger(t), path, mustDescriptor(t, path), tc.limit, pipelineStats, inputHasher)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if len(samples) != len(tc.samples) {
				t.Fatalf("Expected %d samples, got %d", len(tc.samples), len(samples))
			}
			for i := range tc.samples {
				if samples[i] != tc.samples[i] {
					t.Errorf("Expected samples[%d] = %v, got %v", i, tc.samples[i], samples[i])
				}
			}

			if pipelineStats.InputBytes != tc.bytesRead {
				t.Errorf("Expected %d bytes read, got %d", tc.bytesRead, pipelineStats.InputBytes)
			}
			if pipelineStats.VoxelCount != 8 {
				t.Errorf("Expected declared voxel count 8, got %d", pipelineStats.VoxelCount)
			}

			expectedHash := sha256.Sum256(tc.data)
			if !bytes.Equal(inputHasher.Sum(nil), expectedHash[:]) {
				t.Error("Input hash does not cover the whole file")
			}
		})
	}
}

func TestStage_HugeDeclaredVolume(t *testing.T) {
	// 2^48 declared bytes; only the leading voxels may be materialized
	path := writeVolume(t, "huge_65536x65536x65536_uint8.raw", []byte{4, 3, 2, 1})
	pipelineStats := stats.NewStats()

	samples, err := Stage(context.Background(), zaptest.NewLogger(t), path, mustDescriptor(t, path), 64, pipelineStats, sha256.New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(samples) != 64 {
		t.Fatalf("Expected 64 samples, got %d", len(samples))
	}
	if samples[0] != 4 || samples[3] != 1 || samples[4] != 0 {
		t.Errorf("Unexpected leading samples %v", samples[:5])
	}
	if pipelineStats.InputBytes != 4 || pipelineStats.ExpectedBytes != 1<<48 {
		t.Errorf("Expected 4 of %d bytes, got %d of %d", uint64(1)<<48, pipelineStats.InputBytes, pipelineStats.ExpectedBytes)
	}
}
