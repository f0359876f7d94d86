// Copyright (c) 2025 A Bit of Help, Inc.

// Package bitstream implements the bit-level stream used by the zfp codec.
//
// Bits are appended least significant bit first into 64-bit words, and each
// completed word is stored little-endian in the bound byte buffer. This is the
// layout produced by the zfp library on little-endian hosts with its default
// 64-bit stream word.
package bitstream

import (
	"encoding/binary"
	"errors"
)

// WordBits is the size of a stream word in bits
const WordBits = 64

var (
	// ErrBufferFull indicates the bound buffer cannot hold another word
	ErrBufferFull = errors.New("bitstream buffer full")

	// ErrShortStream indicates a read past the end of the bound buffer
	ErrShortStream = errors.New("bitstream exhausted")
)

// Writer appends bits to a byte buffer
type Writer struct {
	buf    []byte
	pos    int
	buffer uint64
	bits   uint
	err    error
}

// NewWriter binds a writer to buf. The buffer length should be a multiple of 8.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBit appends a single bit and returns it
func (w *Writer) WriteBit(bit uint) uint {
	w.buffer |= uint64(bit&1) << w.bits
	w.bits++
	if w.bits == WordBits {
		w.writeWord(w.buffer)
		w.buffer = 0
		w.bits = 0
	}
	return bit & 1
}

// WriteBits appends the low n bits of value (n <= 64) and returns value >> n
func (w *Writer) WriteBits(value uint64, n uint) uint64 {
	if n == 0 {
		return value
	}
	v := value
	if n < WordBits {
		v &= (uint64(1) << n) - 1
	}
	w.buffer |= v << w.bits
	if w.bits+n >= WordBits {
		w.writeWord(w.buffer)
		// shifts >= 64 yield zero in Go
		w.buffer = v >> (WordBits - w.bits)
		w.bits = w.bits + n - WordBits
	} else {
		w.bits += n
	}
	return value >> n
}

// Pad appends n zero bits
func (w *Writer) Pad(n uint) {
	for n >= WordBits {
		w.WriteBits(0, WordBits)
		n -= WordBits
	}
	w.WriteBits(0, n)
}

// Flush pads the stream to the next word boundary and returns the number of padding bits
func (w *Writer) Flush() uint {
	n := (WordBits - w.bits) % WordBits
	if n > 0 {
		w.Pad(n)
	}
	return n
}

// Rewind discards all written bits and resets the position to the start of the buffer
func (w *Writer) Rewind() {
	w.pos = 0
	w.buffer = 0
	w.bits = 0
	w.err = nil
}

// Tell returns the number of bits written so far
func (w *Writer) Tell() uint64 {
	return uint64(w.pos)*8 + uint64(w.bits)
}

// Size returns the number of whole bytes flushed to the buffer
func (w *Writer) Size() int {
	return w.pos
}

// Err returns the first error encountered while writing
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) writeWord(word uint64) {
	if w.err != nil {
		return
	}
	if w.pos+8 > len(w.buf) {
		w.err = ErrBufferFull
		return
	}
	binary.LittleEndian.PutUint64(w.buf[w.pos:], word)
	w.pos += 8
}

// Reader consumes bits from a byte buffer written by Writer
type Reader struct {
	buf    []byte
	pos    int
	buffer uint64
	bits   uint
	err    error
}

// NewReader binds a reader to buf
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// ReadBit returns the next bit
func (r *Reader) ReadBit() uint {
	if r.bits == 0 {
		r.buffer = r.readWord()
		r.bits = WordBits
	}
	r.bits--
	bit := uint(r.buffer & 1)
	r.buffer >>= 1
	return bit
}

// ReadBits returns the next n bits (n <= 64) as the low bits of the result
func (r *Reader) ReadBits(n uint) uint64 {
	if n == 0 {
		return 0
	}
	value := r.buffer
	if r.bits < n {
		word := r.readWord()
		value |= word << r.bits
		// bits of word not yet consumed
		r.buffer = word >> (n - r.bits)
		r.bits += WordBits - n
	} else {
		r.bits -= n
		r.buffer >>= n
	}
	if n < WordBits {
		value &= (uint64(1) << n) - 1
	}
	return value
}

// Skip discards n bits
func (r *Reader) Skip(n uint) {
	for n >= WordBits {
		r.ReadBits(WordBits)
		n -= WordBits
	}
	r.ReadBits(n)
}

// Err returns the first error encountered while reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readWord() uint64 {
	if r.pos+8 > len(r.buf) {
		if r.err == nil {
			r.err = ErrShortStream
		}
		return 0
	}
	word := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return word
}
