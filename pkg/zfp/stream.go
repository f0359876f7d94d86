// Copyright (c) 2025 A Bit of Help, Inc.

// Package zfp implements the fixed-rate mode of the zfp floating-point codec.
//
// Streams produced here carry no header and match, bit for bit, what the zfp
// library emits for a 3-D float field compressed with zfp_stream_set_rate
// (non-aligned) followed by zfp_compress on a little-endian host. Only the
// fixed-rate mode is supported: every 4x4x4 block occupies exactly the same
// number of bits.
package zfp

import (
	"errors"
	"fmt"
	"math"

	"github.com/abitofhelp/zfpfixture/pkg/zfp/bitstream"
)

const (
	blockEdge = 4

	// HeaderMaxBits is the largest header zfp may write ahead of a stream
	HeaderMaxBits = 148

	// MaxPrecision is the maximum number of bit planes encoded per block
	MaxPrecision = 64

	// MaxRate is the largest fixed rate in bits per value
	MaxRate = MaxPrecision

	// MinExponent is the smallest binary exponent encoded
	MinExponent = -1074

	floatExponentBits  = 8
	floatExponentBias  = 127
	doubleExponentBits = 11
)

var (
	// ErrUnsupportedField indicates a field the codec cannot compress
	ErrUnsupportedField = errors.New("unsupported field")

	// ErrNoBuffer indicates no output buffer has been bound to the stream
	ErrNoBuffer = errors.New("no bit stream bound")

	// ErrClosed indicates the stream has been closed
	ErrClosed = errors.New("stream closed")
)

// Stream holds the compression parameters and the bound bit stream
type Stream struct {
	minBits uint
	maxBits uint
	maxPrec uint
	minExp  int

	buf    []byte
	writer *bitstream.Writer
	closed bool
}

// NewStream opens a stream with the library's default (lossless-capable) parameters
func NewStream() *Stream {
	return &Stream{
		minBits: 1,
		maxBits: 1 << 30,
		maxPrec: MaxPrecision,
		minExp:  MinExponent,
	}
}

// SetRate configures fixed-rate mode for values of type t in dims dimensions
// and returns the rate actually used, in bits per value. The requested rate is
// rounded to a whole number of bits per block and raised to the minimum a
// block header needs, so the returned rate may differ from the request.
// Rates above MaxRate are lowered to it.
func (s *Stream) SetRate(rate float64, t Type, dims int) float64 {
	n := uint(1) << (2 * uint(dims))
	var bits uint
	if scaled := math.Floor(float64(n)*rate + 0.5); scaled > 0 {
		bits = uint(min(scaled, float64(n*MaxRate)))
	}
	switch t {
	case TypeFloat:
		bits = max(bits, 1+floatExponentBits)
	case TypeDouble:
		bits = max(bits, 1+doubleExponentBits)
	}
	s.minBits = bits
	s.maxBits = bits
	s.maxPrec = MaxPrecision
	s.minExp = MinExponent
	return float64(bits) / float64(n)
}

// BitsPerBlock returns the configured number of bits for every block
func (s *Stream) BitsPerBlock() uint {
	return s.maxBits
}

// MaximumSize returns a conservative bound in bytes on the compressed size of f
func (s *Stream) MaximumSize(f *Field) int {
	dims := f.Dims()
	if dims == 0 {
		return 0
	}
	values := uint(1) << (2 * uint(dims))
	maxBits := uint(1)
	switch f.Type {
	case TypeFloat:
		maxBits += floatExponentBits
	case TypeDouble:
		maxBits += doubleExponentBits
	}
	maxBits += values - 1 + values*min(s.maxPrec, f.Type.precision())
	maxBits = min(maxBits, s.maxBits)
	maxBits = max(maxBits, s.minBits)
	total := uint64(HeaderMaxBits) + uint64(f.Blocks())*uint64(maxBits) + bitstream.WordBits - 1
	total &^= bitstream.WordBits - 1
	return int(total / 8)
}

// SetBuffer binds buf as the destination of the next Compress
func (s *Stream) SetBuffer(buf []byte) {
	s.buf = buf
	s.writer = bitstream.NewWriter(buf)
}

// Rewind moves the bound bit stream back to its start
func (s *Stream) Rewind() {
	if s.writer != nil {
		s.writer.Rewind()
	}
}

// Compress encodes f into the bound buffer and returns the number of bytes
// written, including the padding that completes the final stream word.
func (s *Stream) Compress(f *Field) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.writer == nil {
		return 0, ErrNoBuffer
	}
	if err := f.validate(); err != nil {
		return 0, err
	}

	enc := &blockEncoder{
		w:       s.writer,
		minBits: s.minBits,
		maxBits: s.maxBits,
		maxPrec: s.maxPrec,
		minExp:  s.minExp,
	}

	nx, ny, nz := f.Shape.Nx, f.Shape.Ny, max(f.Shape.Nz, 1)
	var block [blockSize]float32
	for z := 0; z < nz; z += blockEdge {
		for y := 0; y < ny; y += blockEdge {
			for x := 0; x < nx; x += blockEdge {
				gatherBlock(&block, f.Data, nx, ny, x, y, z,
					min(blockEdge, nx-x), min(blockEdge, ny-y), min(blockEdge, nz-z))
				enc.encodeBlock(&block)
			}
		}
	}
	s.writer.Flush()

	if err := s.writer.Err(); err != nil {
		return 0, fmt.Errorf("compress %s field: %w", f.Shape, err)
	}
	return s.writer.Size(), nil
}

// Decompress decodes the bound buffer into f, which must be sized for the
// field that was compressed. It returns the number of bytes consumed.
func (s *Stream) Decompress(f *Field) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.buf == nil {
		return 0, ErrNoBuffer
	}
	if err := f.validate(); err != nil {
		return 0, err
	}

	r := bitstream.NewReader(s.buf)
	dec := &blockDecoder{
		r:       r,
		minBits: s.minBits,
		maxBits: s.maxBits,
		maxPrec: s.maxPrec,
		minExp:  s.minExp,
	}

	nx, ny, nz := f.Shape.Nx, f.Shape.Ny, max(f.Shape.Nz, 1)
	var block [blockSize]float32
	var consumed uint64
	for z := 0; z < nz; z += blockEdge {
		for y := 0; y < ny; y += blockEdge {
			for x := 0; x < nx; x += blockEdge {
				consumed += uint64(dec.decodeBlock(&block))
				scatterBlock(&block, f.Data, nx, ny, x, y, z,
					min(blockEdge, nx-x), min(blockEdge, ny-y), min(blockEdge, nz-z))
			}
		}
	}

	if err := r.Err(); err != nil {
		return 0, fmt.Errorf("decompress %s field: %w", f.Shape, err)
	}
	words := (consumed + bitstream.WordBits - 1) / bitstream.WordBits
	return int(words * 8), nil
}

// Close releases the bound buffer. Further Compress calls fail.
func (s *Stream) Close() error {
	s.buf = nil
	s.writer = nil
	s.closed = true
	return nil
}

// gatherBlock copies a (possibly partial) block starting at (x, y, z) into
// block and pads the missing values the way zfp does.
func gatherBlock(block *[blockSize]float32, data []float32, nx, ny, x, y, z, bx, by, bz int) {
	for k := 0; k < bz; k++ {
		for j := 0; j < by; j++ {
			row := x + nx*((y+j)+ny*(z+k))
			for i := 0; i < bx; i++ {
				block[16*k+4*j+i] = data[row+i]
			}
			padBlock(block[:], 16*k+4*j, bx, 1)
		}
		for i := 0; i < blockEdge; i++ {
			padBlock(block[:], 16*k+i, by, 4)
		}
	}
	for j := 0; j < blockEdge; j++ {
		for i := 0; i < blockEdge; i++ {
			padBlock(block[:], 4*j+i, bz, 16)
		}
	}
}

// scatterBlock stores the valid part of block back into data
func scatterBlock(block *[blockSize]float32, data []float32, nx, ny, x, y, z, bx, by, bz int) {
	for k := 0; k < bz; k++ {
		for j := 0; j < by; j++ {
			row := x + nx*((y+j)+ny*(z+k))
			for i := 0; i < bx; i++ {
				data[row+i] = block[16*k+4*j+i]
			}
		}
	}
}

// padBlock fills the n..3 entries of a stride-s line
func padBlock(p []float32, off, n, stride int) {
	switch n {
	case 0:
		p[off] = 0
		fallthrough
	case 1:
		p[off+stride] = p[off]
		fallthrough
	case 2:
		p[off+2*stride] = p[off+stride]
		fallthrough
	case 3:
		p[off+3*stride] = p[off]
	}
}
