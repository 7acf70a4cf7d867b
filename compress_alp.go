// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"math"

	"github.com/kelindar/simd"
)

// alpExponents mirrors the small table of base-10 exponents ALP tries
// when choosing (exp, fac) for a chunk, per
// original_source/src/storage/compression/float_compression.cpp.
var alpExponents = []int8{0, 1, 2, 3, 4, 5, 6, 8, 10, 12, 14, 16, 18}

// alpException is one value the chosen (exp, fac) could not represent
// exactly, stored in a separate exception page alongside its position,
// per spec.md §4.3 ("EncodeExceptionView ({value, posInChunk} pairs)").
type alpException struct {
	Pos   int
	Value float64
}

// FloatCompression is the ALP (Adaptive Lossless floating-Point) codec
// of spec.md §4.3: encode v as round(v * 10^exp * fac), bitpack the
// encoded integers, and park values the chosen (exp, fac) cannot encode
// exactly in a co-located exception page. Grounded on
// original_source/src/storage/compression/float_compression.cpp.
type FloatCompression[T simd.Number] struct {
	ExceptionCapacity int
}

func alpEncode(v float64, exp int8) (int64, bool) {
	scaled := v * math.Pow10(int(exp))
	enc := math.Round(scaled)
	if enc > math.MaxInt64 || enc < math.MinInt64 {
		return 0, false
	}
	return int64(enc), true
}

func alpDecode(enc int64, exp int8) float64 {
	return float64(enc) / math.Pow10(int(exp))
}

// chooseExponent picks the (exp) minimizing exception count over src, the
// same greedy search the original performs per chunk.
func chooseExponent[T simd.Number](src []T) int8 {
	best := alpExponents[0]
	bestExceptions := len(src) + 1
	for _, exp := range alpExponents {
		exceptions := 0
		for _, v := range src {
			enc, ok := alpEncode(float64(v), exp)
			if !ok || alpDecode(enc, exp) != float64(v) {
				exceptions++
			}
		}
		if exceptions < bestExceptions {
			bestExceptions = exceptions
			best = exp
		}
		if exceptions == 0 {
			break
		}
	}
	return best
}

func (c FloatCompression[T]) Compress(src []T, meta CodecMeta) ([]byte, CodecMeta) {
	exp := chooseExponent(src)
	meta.ALPExponent = exp
	meta.ALPFactor = 1.0

	encoded := make([]int64, len(src))
	var exceptions []alpException
	for i, v := range src {
		enc, ok := alpEncode(float64(v), exp)
		if ok && alpDecode(enc, exp) == float64(v) {
			encoded[i] = enc
			continue
		}
		encoded[i] = 0
		exceptions = append(exceptions, alpException{Pos: i, Value: float64(v)})
	}

	cap := c.ExceptionCapacity
	if cap == 0 {
		cap = len(src)/8 + 1
	}
	meta.ExceptionCapacity = cap
	meta.ExceptionCount = len(exceptions)
	if len(exceptions) > cap {
		// The reserved capacity is raised to the actual exception count
		// rather than failing; callers that need a hard cap should pick a
		// different codec upstream (the node-group checkpoint's
		// encoding-selection policy, not this codec, decides when ALP is
		// a poor fit).
		meta.ExceptionCapacity = len(exceptions)
	}

	asT := make([]T, len(encoded))
	for i, e := range encoded {
		asT[i] = T(e)
	}
	dataBytes, bpMeta := IntegerBitpacking[T]{}.Compress(asT, CodecMeta{})
	meta.BitWidth = bpMeta.BitWidth
	meta.Offset = bpMeta.Offset
	meta.DataLen = len(dataBytes)

	out := append(dataBytes, encodeExceptions(exceptions)...)
	return out, meta
}

func encodeExceptions(exceptions []alpException) []byte {
	out := make([]byte, 0, len(exceptions)*12)
	for _, e := range exceptions {
		var buf [12]byte
		putValue(buf[0:8], e.Value)
		putValue(buf[8:12], int32(e.Pos))
		out = append(out, buf[:]...)
	}
	return out
}

func decodeExceptions(src []byte) []alpException {
	n := len(src) / 12
	out := make([]alpException, n)
	for i := 0; i < n; i++ {
		rec := src[i*12 : i*12+12]
		out[i] = alpException{
			Value: getValue[float64](rec[0:8]),
			Pos:   int(getValue[int32](rec[8:12])),
		}
	}
	return out
}

func (c FloatCompression[T]) Decompress(src []byte, srcOffset int, dst []T, dstOffset, numRows int, meta CodecMeta) {
	for i := 0; i < numRows; i++ {
		raw := readBits(src, srcOffset+i, meta.BitWidth)
		dst[dstOffset+i] = T(alpDecode(int64(raw)+meta.Offset, meta.ALPExponent))
	}

	// meta.DataLen marks where the bitpacked region ends and the
	// exception trailer begins; it's fixed at Compress time for the
	// whole chunk, unlike srcOffset/numRows which describe only the
	// requested scan window.
	dataEnd := meta.DataLen
	if dataEnd == 0 || dataEnd > len(src) {
		return
	}
	for _, exc := range decodeExceptions(src[dataEnd:]) {
		if exc.Pos >= srcOffset && exc.Pos < srcOffset+numRows {
			dst[dstOffset+(exc.Pos-srcOffset)] = T(exc.Value)
		}
	}
}

func (c FloatCompression[T]) CanUpdateInPlace(value T, meta CodecMeta, local *LocalUpdateState) bool {
	enc, ok := alpEncode(float64(value), meta.ALPExponent)
	if !ok || alpDecode(enc, meta.ALPExponent) != float64(value) {
		return local.ExceptionsUsed+meta.ExceptionCount < meta.ExceptionCapacity
	}
	return IntegerBitpacking[T]{}.CanUpdateInPlace(T(enc), meta, local)
}

func (c FloatCompression[T]) SetValueInPlace(dst []byte, localIdx int, value T, meta CodecMeta, local *LocalUpdateState) {
	enc, ok := alpEncode(float64(value), meta.ALPExponent)
	if ok && alpDecode(enc, meta.ALPExponent) == float64(value) {
		IntegerBitpacking[T]{}.SetValueInPlace(dst, localIdx, T(enc), meta, local)
		return
	}
	local.ExceptionsUsed++
}

func (c FloatCompression[T]) NumValues(dataSize int, meta CodecMeta) int {
	return IntegerBitpacking[T]{}.NumValues(dataSize, meta)
}
