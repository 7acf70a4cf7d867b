// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/kelindar/simd"
)

// UncompressedCodec is the fallback codec of spec.md §4.3: always
// in-place updatable, fixed-width little-endian encoding. Grounded on
// the teacher's numericColumn dense-slice storage (column_numeric.go),
// generalized to a byte-serialized on-disk form.
type UncompressedCodec[T simd.Number] struct{}

func (UncompressedCodec[T]) width() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (c UncompressedCodec[T]) Compress(src []T, meta CodecMeta) ([]byte, CodecMeta) {
	w := c.width()
	dst := make([]byte, len(src)*w)
	for i, v := range src {
		putValue(dst[i*w:], v)
	}
	return dst, meta
}

func (c UncompressedCodec[T]) Decompress(src []byte, srcOffset int, dst []T, dstOffset, numRows int, meta CodecMeta) {
	w := c.width()
	for i := 0; i < numRows; i++ {
		dst[dstOffset+i] = getValue[T](src[(srcOffset+i)*w:])
	}
}

func (UncompressedCodec[T]) CanUpdateInPlace(value T, meta CodecMeta, local *LocalUpdateState) bool {
	return true
}

func (c UncompressedCodec[T]) SetValueInPlace(dst []byte, localIdx int, value T, meta CodecMeta, local *LocalUpdateState) {
	w := c.width()
	putValue(dst[localIdx*w:], value)
}

func (c UncompressedCodec[T]) NumValues(dataSize int, meta CodecMeta) int {
	w := c.width()
	if w == 0 {
		return 0
	}
	return dataSize / w
}

// putValue/getValue encode a simd.Number as little-endian bytes via its
// bit pattern, the same width-erasure trick the teacher's codegen'd
// numeric columns rely on for generic storage.
func putValue[T simd.Number](dst []byte, v T) {
	switch any(v).(type) {
	case int8, uint8:
		dst[0] = byte(toUint64(v))
	case int16, uint16:
		binary.LittleEndian.PutUint16(dst, uint16(toUint64(v)))
	case int32, uint32, float32:
		binary.LittleEndian.PutUint32(dst, uint32(toUint64(v)))
	default:
		binary.LittleEndian.PutUint64(dst, toUint64(v))
	}
}

func getValue[T simd.Number](src []byte) T {
	var zero T
	switch any(zero).(type) {
	case int8, uint8:
		return fromUint64[T](uint64(src[0]))
	case int16, uint16:
		return fromUint64[T](uint64(binary.LittleEndian.Uint16(src)))
	case int32, uint32, float32:
		return fromUint64[T](uint64(binary.LittleEndian.Uint32(src)))
	default:
		return fromUint64[T](binary.LittleEndian.Uint64(src))
	}
}

func toUint64[T simd.Number](v T) uint64 {
	switch x := any(v).(type) {
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	case int8:
		return uint64(uint8(x))
	case int16:
		return uint64(uint16(x))
	case int32:
		return uint64(uint32(x))
	case int64:
		return uint64(x)
	case int:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case uint:
		return uint64(x)
	default:
		return 0
	}
}

func fromUint64[T simd.Number](u uint64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(uint32(u))).(T)
	case float64:
		return any(math.Float64frombits(u)).(T)
	case int8:
		return any(int8(u)).(T)
	case int16:
		return any(int16(u)).(T)
	case int32:
		return any(int32(u)).(T)
	case int64:
		return any(int64(u)).(T)
	case int:
		return any(int(u)).(T)
	case uint8:
		return any(uint8(u)).(T)
	case uint16:
		return any(uint16(u)).(T)
	case uint32:
		return any(uint32(u)).(T)
	case uint64:
		return any(u).(T)
	case uint:
		return any(uint(u)).(T)
	default:
		return zero
	}
}
