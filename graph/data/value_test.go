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
	"testing"

	"devt.de/krotik/shardgraph/graph/util"
)

func TestValueRoundTrip(t *testing.T) {

	values := []interface{}{
		true,
		false,
		int32(-42),
		int32(2000000000),
		uint32(3000000000),
		float32(1.5),
		Char('x'),
		Char('€'),
		"",
		"some text value",
	}

	for _, v := range values {
		enc, err := EncodeValue(nil, v)
		if err != nil {
			t.Error(err)
			return
		}

		dec, off, err := DecodeValue(enc, 0)
		if err != nil {
			t.Error(err)
			return
		}

		if off != len(enc) {
			t.Error("Unexpected decode offset:", off, len(enc))
			return
		}

		if !ValueEquals(v, dec) {
			t.Error("Unexpected round trip result:", v, dec)
			return
		}
	}
}

func TestValueWireFormat(t *testing.T) {

	// A bool is a descriptor of -1 followed by a single byte

	enc, err := EncodeValue(nil, true)
	if err != nil {
		t.Error(err)
		return
	}

	if len(enc) != 5 || enc[3] != 0xff || enc[4] != 1 {
		t.Error("Unexpected bool encoding:", enc)
		return
	}

	// Text encodes its byte length as the descriptor

	enc, err = EncodeValue(nil, "abc")
	if err != nil {
		t.Error(err)
		return
	}

	if len(enc) != 7 || enc[0] != 0 || enc[1] != 0 || enc[2] != 0 || enc[3] != 3 {
		t.Error("Unexpected text encoding:", enc)
		return
	}

	if string(enc[4:]) != "abc" {
		t.Error("Unexpected text bytes:", enc)
		return
	}

	// An int is stored as big-endian two's-complement

	enc, err = EncodeValue(nil, int32(-2))
	if err != nil {
		t.Error(err)
		return
	}

	if enc[4] != 0xff || enc[5] != 0xff || enc[6] != 0xff || enc[7] != 0xfe {
		t.Error("Unexpected int encoding:", enc)
		return
	}

	// A non-zero byte decodes as true

	dec, _, err := DecodeValue([]byte{0xff, 0xff, 0xff, 0xff, 0x02}, 0)
	if err != nil || dec != true {
		t.Error("Unexpected decode result:", dec, err)
		return
	}
}

func TestValueErrors(t *testing.T) {

	// Unsupported value types are rejected

	if _, err := EncodeValue(nil, int64(1)); err == nil ||
		err.(*util.GraphError).Type != util.ErrInvalidData {
		t.Error("Unexpected encode result:", err)
		return
	}

	// Descriptors below -5 are corruption

	enc := []byte{0xff, 0xff, 0xff, 0xfa} // -6

	if _, _, err := DecodeValue(enc, 0); err == nil ||
		err.(*util.GraphError).Type != util.ErrCorruption {
		t.Error("Unexpected decode result:", err)
		return
	}

	// Truncated input is corruption

	enc, _ = EncodeValue(nil, int32(1))

	if _, _, err := DecodeValue(enc[:6], 0); err == nil ||
		err.(*util.GraphError).Type != util.ErrCorruption {
		t.Error("Unexpected decode result:", err)
		return
	}

	enc, _ = EncodeValue(nil, "hello")

	if _, _, err := DecodeValue(enc[:7], 0); err == nil ||
		err.(*util.GraphError).Type != util.ErrCorruption {
		t.Error("Unexpected decode result:", err)
		return
	}
}

func TestValueEquals(t *testing.T) {

	// Values of different types are never equal

	if ValueEquals(int32(1), uint32(1)) {
		t.Error("Int and uint should not be equal")
		return
	}

	if ValueEquals(Char('a'), int32('a')) {
		t.Error("Char and int should not be equal")
		return
	}

	if !ValueEquals("abc", "abc") || ValueEquals("abc", "abd") {
		t.Error("Unexpected text comparison")
		return
	}

	if ValueEquals(true, "true") {
		t.Error("Bool and text should not be equal")
		return
	}
}
