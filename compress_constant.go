// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import "github.com/kelindar/simd"

// ConstantCodec stores a single repeated value per spec.md §4.3
// ("meta.isConstant() true, meta.min == meta.max; decompression is a
// fill, update-in-place only for the same value"). Grounded on the
// teacher's fixed-fill-bitmap idiom, generalized from "all rows present"
// to "all rows equal".
type ConstantCodec[T simd.Number] struct{}

func (ConstantCodec[T]) Compress(src []T, meta CodecMeta) ([]byte, CodecMeta) {
	if len(src) == 0 {
		meta.IsConstant = true
		return nil, meta
	}
	first := src[0]
	for _, v := range src[1:] {
		if v != first {
			// Falls back to uncompressed; Compress never errors, the
			// caller (ColumnChunk.Compress picking a codec per spec.md
			// §4.3's encoding-selection policy) is responsible for only
			// choosing ConstantCodec when the run is actually uniform.
			meta.IsConstant = false
			return UncompressedCodec[T]{}.Compress(src, meta)
		}
	}
	meta.IsConstant = true
	meta.Min = float64(first)
	meta.Max = float64(first)
	return UncompressedCodec[T]{}.Compress(src[:1], meta)
}

func (c ConstantCodec[T]) Decompress(src []byte, srcOffset int, dst []T, dstOffset, numRows int, meta CodecMeta) {
	if !meta.IsConstant {
		UncompressedCodec[T]{}.Decompress(src, srcOffset, dst, dstOffset, numRows, meta)
		return
	}
	v := fromUint64[T](toUint64(T(meta.Min)))
	for i := 0; i < numRows; i++ {
		dst[dstOffset+i] = v
	}
}

func (ConstantCodec[T]) CanUpdateInPlace(value T, meta CodecMeta, local *LocalUpdateState) bool {
	return meta.IsConstant && float64(value) == meta.Min
}

func (ConstantCodec[T]) SetValueInPlace(dst []byte, localIdx int, value T, meta CodecMeta, local *LocalUpdateState) {
	// no-op: the single stored value already equals value, enforced by
	// CanUpdateInPlace.
}

func (ConstantCodec[T]) NumValues(dataSize int, meta CodecMeta) int {
	// A constant chunk's logical row count is tracked by the owning
	// ColumnChunk's fill bitmap, not by its one-value byte buffer.
	return 0
}
