// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import "github.com/kelindar/simd"

// IntegerBitpacking packs (value - offset) into meta.BitWidth bits per
// value, per spec.md §4.3. In-place update is legal iff the new
// (value - offset) still fits in BitWidth bits.
type IntegerBitpacking[T simd.Number] struct{}

func bitsNeeded(v int64) uint8 {
	if v == 0 {
		return 1
	}
	u := uint64(v)
	var n uint8
	for u > 0 {
		n++
		u >>= 1
	}
	return n
}

func (IntegerBitpacking[T]) Compress(src []T, meta CodecMeta) ([]byte, CodecMeta) {
	if len(src) == 0 {
		return nil, meta
	}

	minV, maxV := int64(src[0]), int64(src[0])
	for _, v := range src[1:] {
		iv := int64(v)
		if iv < minV {
			minV = iv
		}
		if iv > maxV {
			maxV = iv
		}
	}

	meta.Offset = minV
	meta.BitWidth = bitsNeeded(maxV - minV)
	meta.Min, meta.Max = float64(minV), float64(maxV)

	out := make([]byte, bitpackedSize(len(src), meta.BitWidth))
	for i, v := range src {
		writeBits(out, i, meta.BitWidth, uint64(int64(v)-meta.Offset))
	}
	return out, meta
}

func (IntegerBitpacking[T]) Decompress(src []byte, srcOffset int, dst []T, dstOffset, numRows int, meta CodecMeta) {
	for i := 0; i < numRows; i++ {
		raw := readBits(src, srcOffset+i, meta.BitWidth)
		dst[dstOffset+i] = T(int64(raw) + meta.Offset)
	}
}

func (IntegerBitpacking[T]) CanUpdateInPlace(value T, meta CodecMeta, local *LocalUpdateState) bool {
	delta := int64(value) - meta.Offset
	if delta < 0 {
		return false
	}
	return bitsNeeded(delta) <= meta.BitWidth
}

func (IntegerBitpacking[T]) SetValueInPlace(dst []byte, localIdx int, value T, meta CodecMeta, local *LocalUpdateState) {
	writeBits(dst, localIdx, meta.BitWidth, uint64(int64(value)-meta.Offset))
}

func (IntegerBitpacking[T]) NumValues(dataSize int, meta CodecMeta) int {
	if meta.BitWidth == 0 {
		return 0
	}
	return (dataSize * 8) / int(meta.BitWidth)
}

func bitpackedSize(numValues int, bitWidth uint8) int {
	totalBits := numValues * int(bitWidth)
	return (totalBits + 7) / 8
}

// writeBits/readBits pack/unpack a bitWidth-bit unsigned value at a
// given value-index into a tightly packed little-endian bit stream,
// the on-disk layout spec.md §4.3 calls IntegerBitpacking.
func writeBits(dst []byte, index int, bitWidth uint8, value uint64) {
	bitOffset := index * int(bitWidth)
	for b := uint8(0); b < bitWidth; b++ {
		pos := bitOffset + int(b)
		if value&(1<<b) != 0 {
			dst[pos/8] |= 1 << uint(pos%8)
		} else {
			dst[pos/8] &^= 1 << uint(pos%8)
		}
	}
}

func readBits(src []byte, index int, bitWidth uint8) uint64 {
	bitOffset := index * int(bitWidth)
	var value uint64
	for b := uint8(0); b < bitWidth; b++ {
		pos := bitOffset + int(b)
		if pos/8 < len(src) && src[pos/8]&(1<<uint(pos%8)) != 0 {
			value |= 1 << b
		}
	}
	return value
}
