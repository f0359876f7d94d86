// Copyright (c) 2025 A Bit of Help, Inc.

// Package compression provides the block compression step of fixture generation.
//
// This package implements the codec-facing logic and can be used independently
// of the pipeline. The codec itself sits behind the Codec interface so the
// pipeline can be exercised with a fake.
//
// The corresponding package in the pipeline hierarchy is pkg/pipeline/compressor,
// which integrates this core functionality into the pipeline architecture.
package compression

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
	"github.com/abitofhelp/zfpfixture/pkg/volume"
	"github.com/abitofhelp/zfpfixture/pkg/zfp"
	"github.com/andybalholm/brotli"
)

// BlockEdge is the edge length of the codec's native block
const BlockEdge = 4

// Codec is the part of a fixed-rate codec the block compressor relies on
type Codec interface {
	// SetRate configures fixed-rate mode and returns the rate actually used
	SetRate(rate float64, t zfp.Type, dims int) float64
	// MaximumSize bounds the compressed size of f in bytes
	MaximumSize(f *zfp.Field) int
	// SetBuffer binds the output buffer
	SetBuffer(buf []byte)
	// Compress writes f to the bound buffer and returns the bytes written
	Compress(f *zfp.Field) (int, error)
	// Close releases the codec
	Close() error
}

// NewZFPCodec opens a zfp stream
func NewZFPCodec() Codec {
	return zfp.NewStream()
}

// Result is the outcome of compressing the leading block of a volume
type Result struct {
	// Data holds exactly the bytes the codec emitted
	Data []byte

	// Rate is the achieved rate in bits per voxel
	Rate int

	// RequestedRate is the rate that was asked for
	RequestedRate float64

	// Bound is the codec's worst-case size for the block
	Bound int

	// Shape is the extent of the compressed block
	Shape zfp.Shape

	// Samples are the voxels that were compressed
	Samples []float32
}

// BlockShape returns the extent of the leading block of a volume of the given dims
func BlockShape(dims volume.Dims) zfp.Shape {
	return zfp.Shape{
		Nx: min(dims.X, BlockEdge),
		Ny: min(dims.Y, BlockEdge),
		Nz: min(dims.Z, BlockEdge),
	}
}

// LeadingBlock returns the first samples of the buffer arranged as the leading
// block. For volumes wider than one block these are the first voxels in
// memory order, not the subcube at the origin; fixtures only need the leading
// bytes of a stream.
func LeadingBlock(samples []float32, dims volume.Dims) (*zfp.Field, error) {
	shape := BlockShape(dims)
	if shape.Nx <= 0 || shape.Ny <= 0 || shape.Nz <= 0 {
		return nil, fmt.Errorf("empty volume %s", dims)
	}
	if len(samples) < shape.Count() {
		return nil, fmt.Errorf("need %d samples for a %s block, have %d", shape.Count(), shape, len(samples))
	}
	return zfp.NewField3D(samples[:shape.Count()], shape.Nx, shape.Ny, shape.Nz), nil
}

// CompressLeadingBlock compresses the leading block of samples at a fixed rate.
// It fails with ErrUnsupportedRate when the codec settles on a rate that is
// not a whole number of bits per voxel.
//
// The block holds the first voxels in memory order, as LeadingBlock builds it.
// That is the subcube at the volume's origin only when X and Y are both at
// most 4; for wider volumes the block mixes voxels from the leading rows.
func CompressLeadingBlock(codec Codec, samples []float32, dims volume.Dims, rate float64) (*Result, error) {
	field, err := LeadingBlock(samples, dims)
	if err != nil {
		return nil, err
	}

	used := codec.SetRate(rate, zfp.TypeFloat, 3)
	if math.Floor(used) != used {
		return nil, fmt.Errorf("%w: requested %g, codec used %g", customErrors.ErrUnsupportedRate, rate, used)
	}

	bound := codec.MaximumSize(field)
	buf := make([]byte, bound)
	codec.SetBuffer(buf)

	n, err := codec.Compress(field)
	if err != nil {
		return nil, fmt.Errorf("failed to compress %s block: %w", field.Shape, err)
	}
	if n < 0 || n > bound {
		return nil, fmt.Errorf("codec reported %d bytes for a %d byte buffer", n, bound)
	}

	return &Result{
		Data:          buf[:n],
		Rate:          int(used),
		RequestedRate: rate,
		Bound:         bound,
		Shape:         field.Shape,
		Samples:       field.Data,
	}, nil
}

// compressData compresses data using Brotli compression
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	compressor := brotli.NewWriter(&buf)

	if _, err := compressor.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := compressor.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize compression: %w", err)
	}

	return buf.Bytes(), nil
}

// BaselineSize returns the lossless (Brotli) size of the samples' raw float bytes
func BaselineSize(samples []float32) (int, error) {
	raw := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}

	compressed, err := compressData(raw)
	if err != nil {
		return 0, err
	}
	return len(compressed), nil
}
