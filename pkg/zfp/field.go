// Copyright (c) 2025 A Bit of Help, Inc.

package zfp

import "fmt"

// Type identifies the scalar type of a field
type Type int

const (
	// TypeNone is the zero value and is never valid
	TypeNone Type = iota
	// TypeInt32 is a 32-bit signed integer field
	TypeInt32
	// TypeInt64 is a 64-bit signed integer field
	TypeInt64
	// TypeFloat is an IEEE single precision field
	TypeFloat
	// TypeDouble is an IEEE double precision field
	TypeDouble
)

// String returns the name of the scalar type
func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// precision returns the number of bits in a value of the type
func (t Type) precision() uint {
	switch t {
	case TypeInt32, TypeFloat:
		return 32
	case TypeInt64, TypeDouble:
		return 64
	default:
		return 0
	}
}

// Shape is the extent of a field along x, y and z
type Shape struct {
	Nx, Ny, Nz int
}

// Count returns the number of values covered by the shape
func (s Shape) Count() int {
	return s.Nx * s.Ny * s.Nz
}

// String formats the shape as XxYxZ
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Nx, s.Ny, s.Nz)
}

// Field describes a contiguous 3-D array of floats with x varying fastest
type Field struct {
	Type  Type
	Data  []float32
	Shape Shape
}

// NewField3D wraps data as a float field of the given extent
func NewField3D(data []float32, nx, ny, nz int) *Field {
	return &Field{
		Type:  TypeFloat,
		Data:  data,
		Shape: Shape{Nx: nx, Ny: ny, Nz: nz},
	}
}

// Dims returns the dimensionality of the field
func (f *Field) Dims() int {
	switch {
	case f.Shape.Nz > 0:
		return 3
	case f.Shape.Ny > 0:
		return 2
	case f.Shape.Nx > 0:
		return 1
	default:
		return 0
	}
}

// Blocks returns the number of 4^3 blocks needed to cover the field
func (f *Field) Blocks() int {
	return ceilBlocks(f.Shape.Nx) * ceilBlocks(f.Shape.Ny) * ceilBlocks(f.Shape.Nz)
}

func (f *Field) validate() error {
	if f.Type != TypeFloat || f.Dims() != 3 {
		return fmt.Errorf("%w: %s field with %d dimensions", ErrUnsupportedField, f.Type, f.Dims())
	}
	if f.Shape.Nx <= 0 || f.Shape.Ny <= 0 {
		return fmt.Errorf("%w: invalid shape %s", ErrUnsupportedField, f.Shape)
	}
	if len(f.Data) < f.Shape.Count() {
		return fmt.Errorf("%w: %d values for shape %s", ErrUnsupportedField, len(f.Data), f.Shape)
	}
	return nil
}

func ceilBlocks(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + blockEdge - 1) / blockEdge
}
