// Copyright (c) 2025 A Bit of Help, Inc.

package zfp

import (
	"math"

	"github.com/abitofhelp/zfpfixture/pkg/zfp/bitstream"
)

const (
	blockSize    = blockEdge * blockEdge * blockEdge
	intPrecision = 32
	nbMask       = uint32(0xaaaaaaaa)
)

// blockIndex maps (i, j, k) within a block to its offset
func blockIndex(i, j, k int) uint8 {
	return uint8(i + 4*(j+4*k))
}

// perm3 orders the transform coefficients of a 3-D block by total sequency
var perm3 = [blockSize]uint8{
	blockIndex(0, 0, 0),

	blockIndex(1, 0, 0),
	blockIndex(0, 1, 0),
	blockIndex(0, 0, 1),

	blockIndex(0, 1, 1),
	blockIndex(1, 0, 1),
	blockIndex(1, 1, 0),

	blockIndex(2, 0, 0),
	blockIndex(0, 2, 0),
	blockIndex(0, 0, 2),

	blockIndex(1, 1, 1),

	blockIndex(2, 1, 0),
	blockIndex(2, 0, 1),
	blockIndex(0, 2, 1),
	blockIndex(1, 2, 0),
	blockIndex(1, 0, 2),
	blockIndex(0, 1, 2),

	blockIndex(3, 0, 0),
	blockIndex(0, 3, 0),
	blockIndex(0, 0, 3),

	blockIndex(2, 1, 1),
	blockIndex(1, 2, 1),
	blockIndex(1, 1, 2),

	blockIndex(0, 2, 2),
	blockIndex(2, 0, 2),
	blockIndex(2, 2, 0),

	blockIndex(3, 1, 0),
	blockIndex(3, 0, 1),
	blockIndex(0, 3, 1),
	blockIndex(1, 3, 0),
	blockIndex(1, 0, 3),
	blockIndex(0, 1, 3),

	blockIndex(1, 2, 2),
	blockIndex(2, 1, 2),
	blockIndex(2, 2, 1),

	blockIndex(3, 1, 1),
	blockIndex(1, 3, 1),
	blockIndex(1, 1, 3),

	blockIndex(3, 2, 0),
	blockIndex(3, 0, 2),
	blockIndex(0, 3, 2),
	blockIndex(2, 3, 0),
	blockIndex(2, 0, 3),
	blockIndex(0, 2, 3),

	blockIndex(2, 2, 2),

	blockIndex(3, 2, 1),
	blockIndex(3, 1, 2),
	blockIndex(1, 3, 2),
	blockIndex(2, 3, 1),
	blockIndex(2, 1, 3),
	blockIndex(1, 2, 3),

	blockIndex(0, 3, 3),
	blockIndex(3, 0, 3),
	blockIndex(3, 3, 0),

	blockIndex(3, 2, 2),
	blockIndex(2, 3, 2),
	blockIndex(2, 2, 3),

	blockIndex(1, 3, 3),
	blockIndex(3, 1, 3),
	blockIndex(3, 3, 1),

	blockIndex(2, 3, 3),
	blockIndex(3, 2, 3),
	blockIndex(3, 3, 2),

	blockIndex(3, 3, 3),
}

type blockEncoder struct {
	w       *bitstream.Writer
	minBits uint
	maxBits uint
	maxPrec uint
	minExp  int
}

// encodeBlock writes one float block and returns the number of bits used
func (e *blockEncoder) encodeBlock(fblock *[blockSize]float32) uint {
	bits := uint(1)
	emax := exponentBlock(fblock)
	maxPrec := precision(emax, e.maxPrec, e.minExp, 3)
	var biased uint
	if maxPrec > 0 {
		biased = uint(emax + floatExponentBias)
	}

	if biased == 0 {
		e.w.WriteBit(0)
		if e.minBits > bits {
			e.w.Pad(e.minBits - bits)
			bits = e.minBits
		}
		return bits
	}

	bits += floatExponentBits
	e.w.WriteBits(uint64(2*biased+1), bits)

	var iblock [blockSize]int32
	fwdCast(&iblock, fblock, emax)
	fwdXform(&iblock)

	var ublock [blockSize]uint32
	for i, p := range perm3 {
		ublock[i] = int2uint(iblock[p])
	}

	coded := encodeInts(e.w, subFloor(e.maxBits, bits), maxPrec, &ublock)
	if minBits := subFloor(e.minBits, bits); coded < minBits {
		e.w.Pad(minBits - coded)
		coded = minBits
	}
	return bits + coded
}

// encodeInts emits the bit planes of data from most to least significant,
// group testing and run-length coding each plane, within maxBits bits.
func encodeInts(w *bitstream.Writer, maxBits, maxPrec uint, data *[blockSize]uint32) uint {
	kmin := uint(0)
	if intPrecision > maxPrec {
		kmin = intPrecision - maxPrec
	}
	bits := maxBits
	n := uint(0)

	for k := uint(intPrecision); bits > 0 && k > kmin; {
		k--
		var x uint64
		for i := uint(0); i < blockSize; i++ {
			x += uint64((data[i]>>k)&1) << i
		}

		m := min(n, bits)
		bits -= m
		x = w.WriteBits(x, m)

		for n < blockSize && bits > 0 {
			bits--
			if w.WriteBit(bit(x != 0)) == 0 {
				break
			}
			for n < blockSize-1 && bits > 0 {
				bits--
				if w.WriteBit(uint(x&1)) != 0 {
					break
				}
				x >>= 1
				n++
			}
			x >>= 1
			n++
		}
	}
	return maxBits - bits
}

type blockDecoder struct {
	r       *bitstream.Reader
	minBits uint
	maxBits uint
	maxPrec uint
	minExp  int
}

// decodeBlock reads one float block and returns the number of bits consumed
func (d *blockDecoder) decodeBlock(fblock *[blockSize]float32) uint {
	bits := uint(1)
	if d.r.ReadBit() == 0 {
		*fblock = [blockSize]float32{}
		if d.minBits > bits {
			d.r.Skip(d.minBits - bits)
			bits = d.minBits
		}
		return bits
	}

	emax := int(d.r.ReadBits(floatExponentBits)) - floatExponentBias
	maxPrec := precision(emax, d.maxPrec, d.minExp, 3)
	bits += floatExponentBits

	var ublock [blockSize]uint32
	coded := decodeInts(d.r, subFloor(d.maxBits, bits), maxPrec, &ublock)
	if minBits := subFloor(d.minBits, bits); coded < minBits {
		d.r.Skip(minBits - coded)
		coded = minBits
	}

	var iblock [blockSize]int32
	for i, p := range perm3 {
		iblock[p] = uint2int(ublock[i])
	}
	invXform(&iblock)
	invCast(fblock, &iblock, emax)
	return bits + coded
}

func decodeInts(r *bitstream.Reader, maxBits, maxPrec uint, data *[blockSize]uint32) uint {
	kmin := uint(0)
	if intPrecision > maxPrec {
		kmin = intPrecision - maxPrec
	}
	bits := maxBits
	n := uint(0)
	*data = [blockSize]uint32{}

	for k := uint(intPrecision); bits > 0 && k > kmin; {
		k--
		m := min(n, bits)
		bits -= m
		x := r.ReadBits(m)

		for n < blockSize && bits > 0 {
			bits--
			if r.ReadBit() == 0 {
				break
			}
			for n < blockSize-1 && bits > 0 {
				bits--
				if r.ReadBit() != 0 {
					break
				}
				n++
			}
			x += uint64(1) << n
			n++
		}

		for i := 0; x != 0; i++ {
			data[i] += uint32(x&1) << k
			x >>= 1
		}
	}
	return maxBits - bits
}

// exponentBlock returns the binary exponent of the largest magnitude in the block
func exponentBlock(fblock *[blockSize]float32) int {
	var maxAbs float32
	for _, f := range fblock {
		if a := float32(math.Abs(float64(f))); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 0 {
		_, e := math.Frexp(float64(maxAbs))
		return max(e, 1-floatExponentBias)
	}
	return -floatExponentBias
}

func precision(emax int, maxPrec uint, minExp int, dims int) uint {
	return min(maxPrec, uint(max(0, emax-minExp+2*(dims+1))))
}

// fwdCast maps floats onto 30-bit fixed point relative to the block exponent
func fwdCast(iblock *[blockSize]int32, fblock *[blockSize]float32, emax int) {
	for i, f := range fblock {
		iblock[i] = int32(math.Ldexp(float64(f), intPrecision-2-emax))
	}
}

func invCast(fblock *[blockSize]float32, iblock *[blockSize]int32, emax int) {
	for i, v := range iblock {
		fblock[i] = float32(math.Ldexp(float64(float32(v)), emax-(intPrecision-2)))
	}
}

// fwdXform applies the decorrelating lifting transform along x, y, then z
func fwdXform(p *[blockSize]int32) {
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			fwdLift(p, 4*y+16*z, 1)
		}
	}
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			fwdLift(p, 16*z+x, 4)
		}
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			fwdLift(p, x+4*y, 16)
		}
	}
}

func invXform(p *[blockSize]int32) {
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			invLift(p, x+4*y, 16)
		}
	}
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			invLift(p, 16*z+x, 4)
		}
	}
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			invLift(p, 4*y+16*z, 1)
		}
	}
}

func fwdLift(p *[blockSize]int32, off, s int) {
	x, y, z, w := p[off], p[off+s], p[off+2*s], p[off+3*s]

	x += w
	x >>= 1
	w -= x
	z += y
	z >>= 1
	y -= z
	x += z
	x >>= 1
	z -= x
	w += y
	w >>= 1
	y -= w
	w += y >> 1
	y -= w >> 1

	p[off], p[off+s], p[off+2*s], p[off+3*s] = x, y, z, w
}

func invLift(p *[blockSize]int32, off, s int) {
	x, y, z, w := p[off], p[off+s], p[off+2*s], p[off+3*s]

	y += w >> 1
	w -= y >> 1
	y += w
	w <<= 1
	w -= y
	z += x
	x <<= 1
	x -= z
	y += z
	z <<= 1
	z -= y
	w += x
	x <<= 1
	x -= w

	p[off], p[off+s], p[off+2*s], p[off+3*s] = x, y, z, w
}

// int2uint converts two's complement to negabinary
func int2uint(x int32) uint32 {
	return (uint32(x) + nbMask) ^ nbMask
}

func uint2int(x uint32) int32 {
	return int32((x ^ nbMask) - nbMask)
}

func subFloor(a, b uint) uint {
	if a < b {
		return 0
	}
	return a - b
}

func bit(b bool) uint {
	if b {
		return 1
	}
	return 0
}
