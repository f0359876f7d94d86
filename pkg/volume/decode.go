// Copyright (c) 2025 A Bit of Help, Inc.

package volume

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Decode reads count voxels of type t from r and widens them to float32.
// Voxels are little-endian. A stream that ends early is not an error: the
// missing voxels are zero. The returned byte count is what r actually supplied.
func Decode(r io.Reader, t VoxelType, count int) ([]float32, int, error) {
	size := t.Size()
	if size == 0 {
		return nil, 0, fmt.Errorf("decode voxels: unknown voxel type %v", t)
	}
	if count < 0 {
		return nil, 0, fmt.Errorf("decode voxels: negative voxel count %d", count)
	}

	raw := make([]byte, count*size)
	n, err := io.ReadFull(r, raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, n, err
	}

	return Widen(raw, t), n, nil
}

// Widen converts whole voxels in raw to float32 samples. Doubles are rounded
// to the nearest float.
func Widen(raw []byte, t VoxelType) []float32 {
	size := t.Size()
	if size == 0 {
		return nil
	}
	samples := make([]float32, len(raw)/size)

	switch t {
	case UInt8:
		for i := range samples {
			samples[i] = float32(raw[i])
		}
	case UInt16:
		for i := range samples {
			samples[i] = float32(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case Float32:
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case Float64:
		for i := range samples {
			samples[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
		}
	}
	return samples
}
