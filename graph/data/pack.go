/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"fmt"
	"math"

	"devt.de/krotik/shardgraph/graph/util"
)

// Low level big-endian packing helpers
// ====================================

/*
appendUInt32 appends a 32-bit unsigned integer in big-endian byte order.
*/
func appendUInt32(dest []byte, value uint32) []byte {
	return append(dest,
		byte(value>>24),
		byte(value>>16),
		byte(value>>8),
		byte(value>>0))
}

/*
appendInt32 appends a 32-bit signed integer in big-endian byte order.
*/
func appendInt32(dest []byte, value int32) []byte {
	return appendUInt32(dest, uint32(value))
}

/*
appendFloat32 appends a 32-bit IEEE-754 float in big-endian byte order.
*/
func appendFloat32(dest []byte, value float32) []byte {
	return appendUInt32(dest, math.Float32bits(value))
}

/*
readUInt32 reads a 32-bit unsigned integer in big-endian byte order.
*/
func readUInt32(src []byte, off int) (uint32, int, error) {
	if off+SizeUint > len(src) {
		return 0, 0, shortReadError(off, SizeUint, len(src))
	}

	return (uint32(src[off+0]) << 24) |
		(uint32(src[off+1]) << 16) |
		(uint32(src[off+2]) << 8) |
		(uint32(src[off+3]) << 0), off + SizeUint, nil
}

/*
readInt32 reads a 32-bit signed integer in big-endian byte order.
*/
func readInt32(src []byte, off int) (int32, int, error) {
	v, off, err := readUInt32(src, off)
	return int32(v), off, err
}

/*
readFloat32 reads a 32-bit IEEE-754 float in big-endian byte order.
*/
func readFloat32(src []byte, off int) (float32, int, error) {
	v, off, err := readUInt32(src, off)
	return math.Float32frombits(v), off, err
}

/*
shortReadError creates a corruption error for a truncated input.
*/
func shortReadError(off int, need int, have int) error {
	return &util.GraphError{
		Type:   util.ErrCorruption,
		Detail: fmt.Sprintf("Short read at offset %v: need %v bytes have %v", off, need, have),
	}
}
