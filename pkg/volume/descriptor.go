// Copyright (c) 2025 A Bit of Help, Inc.

// Package volume describes raw volumetric data files and decodes their voxels.
//
// A raw volume is a headerless dump of X*Y*Z voxels, x varying fastest. Its
// extent and voxel type are not stored in the file but encoded in the name:
//
//	<name>_<X>x<Y>x<Z>_<type>.raw
//
// where type is one of uint8, uint16, float32 or float64.
package volume

import (
	"fmt"
	"math"
	"math/bits"
	"path/filepath"
	"regexp"
	"strconv"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
)

// VoxelType is the element type of a raw volume
type VoxelType int

const (
	// UInt8 is an unsigned 8-bit voxel
	UInt8 VoxelType = iota + 1
	// UInt16 is an unsigned 16-bit voxel
	UInt16
	// Float32 is an IEEE single precision voxel
	Float32
	// Float64 is an IEEE double precision voxel
	Float64
)

var voxelTypeTokens = map[string]VoxelType{
	"uint8":   UInt8,
	"uint16":  UInt16,
	"float32": Float32,
	"float64": Float64,
}

// Size returns the number of bytes in one voxel
func (t VoxelType) Size() int {
	switch t {
	case UInt8:
		return 1
	case UInt16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// String returns the filename token of the type
func (t VoxelType) String() string {
	switch t {
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("VoxelType(%d)", int(t))
	}
}

// ParseVoxelType maps a filename token to its voxel type
func ParseVoxelType(token string) (VoxelType, error) {
	t, ok := voxelTypeTokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", customErrors.ErrUnsupportedVoxelType, token)
	}
	return t, nil
}

// Dims is the extent of a volume in voxels
type Dims struct {
	X, Y, Z int
}

// Count returns the number of voxels in the volume
func (d Dims) Count() int {
	return d.X * d.Y * d.Z
}

// String formats the extent as XxYxZ
func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// Descriptor is what a raw volume's filename says about its contents
type Descriptor struct {
	Name string
	Dims Dims
	Type VoxelType
}

// ByteSize returns the number of bytes a complete file holds
func (d *Descriptor) ByteSize() int {
	return d.Dims.Count() * d.Type.Size()
}

var filenamePattern = regexp.MustCompile(`^(\w+)_(\d+)x(\d+)x(\d+)_(.+)\.raw$`)

// ParseFilename decodes the volume descriptor from the base name of path.
// Only the name is examined; the file need not exist.
func ParseFilename(path string) (*Descriptor, error) {
	base := filepath.Base(path)
	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("%w: expected '<name>_<X>x<Y>x<Z>_<data type>.raw' but %q did not match",
			customErrors.ErrFilenameFormat, base)
	}

	var extent [3]int
	for i, s := range m[2:5] {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: invalid dimension %q in %q", customErrors.ErrFilenameFormat, s, base)
		}
		extent[i] = n
	}

	t, err := ParseVoxelType(m[5])
	if err != nil {
		return nil, err
	}

	if _, ok := checkedByteSize(extent, t.Size()); !ok {
		return nil, fmt.Errorf("%w: %sx%sx%s %s voxels overflow the addressable size in %q",
			customErrors.ErrFilenameFormat, m[2], m[3], m[4], t, base)
	}

	return &Descriptor{
		Name: m[1],
		Dims: Dims{X: extent[0], Y: extent[1], Z: extent[2]},
		Type: t,
	}, nil
}

// checkedByteSize returns X*Y*Z*size, or false when the product does not fit in an int
func checkedByteSize(extent [3]int, size int) (int, bool) {
	total := uint64(size)
	for _, n := range extent {
		hi, lo := bits.Mul64(total, uint64(n))
		if hi != 0 || lo > math.MaxInt {
			return 0, false
		}
		total = lo
	}
	return int(total), true
}
