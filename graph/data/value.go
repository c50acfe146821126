/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package data contains the data model of the graph database.

Values

Property values are a tagged union over six types: bool, int32, uint32,
float32, Char and string (text). On disk every value is described by a signed
32 bit value descriptor. A non-negative descriptor means text of that many
bytes, negative descriptors enumerate the scalar types.

Properties

Properties is an ordered list of key / value pairs. The order of insertion is
preserved by the serialization. Only the first occurrence of a key is
authoritative - duplicates are folded left-to-right on access and are never
written out.

Nodes and edges

Node and Edge are the record objects handed out by the storage and graph
layer. They carry an id and the decoded property list. Edges also carry the
ids of their endpoints.
*/
package data

import (
	"fmt"

	"devt.de/krotik/shardgraph/graph/util"
)

/*
Value descriptors for scalar property types. Non-negative descriptors
describe text values of that byte length.
*/
const (
	TypeBool  = -1
	TypeInt   = -2
	TypeUint  = -3
	TypeFloat = -4
	TypeChar  = -5
)

/*
Size constants for encoded values
*/
const (
	SizeBool  = 1
	SizeInt   = 4
	SizeUint  = 4
	SizeFloat = 4
	SizeChar  = 4
)

/*
Char is a single code point property value. It is a distinct type so it can
be told apart from int32 values.
*/
type Char rune

/*
ValueDesc returns the value descriptor for a given property value. Text
values get a descriptor equal to their byte length.
*/
func ValueDesc(v interface{}) (int32, error) {
	switch x := v.(type) {
	case bool:
		return TypeBool, nil
	case int32:
		return TypeInt, nil
	case uint32:
		return TypeUint, nil
	case float32:
		return TypeFloat, nil
	case Char:
		return TypeChar, nil
	case string:
		return int32(len(x)), nil
	}

	return 0, &util.GraphError{
		Type:   util.ErrInvalidData,
		Detail: fmt.Sprintf("Unsupported property value type: %T", v),
	}
}

/*
EncodeValue encodes a single property value as value descriptor followed by
the value bytes. The encoded bytes are appended to dest.
*/
func EncodeValue(dest []byte, v interface{}) ([]byte, error) {
	desc, err := ValueDesc(v)
	if err != nil {
		return nil, err
	}

	dest = appendInt32(dest, desc)

	switch x := v.(type) {
	case bool:
		if x {
			dest = append(dest, 1)
		} else {
			dest = append(dest, 0)
		}
	case int32:
		dest = appendInt32(dest, x)
	case uint32:
		dest = appendUInt32(dest, x)
	case float32:
		dest = appendFloat32(dest, x)
	case Char:
		dest = appendUInt32(dest, uint32(x))
	case string:
		dest = append(dest, x...)
	}

	return dest, nil
}

/*
DecodeValue decodes a single property value at a given offset. It returns the
value and the offset of the first byte after the value.
*/
func DecodeValue(src []byte, off int) (interface{}, int, error) {
	desc, off, err := readInt32(src, off)
	if err != nil {
		return nil, 0, err
	}

	if desc >= 0 {

		// Non-negative descriptors describe text of that byte length

		end := off + int(desc)
		if end > len(src) {
			return nil, 0, shortReadError(off, int(desc), len(src))
		}
		return string(src[off:end]), end, nil
	}

	switch desc {

	case TypeBool:
		if off+SizeBool > len(src) {
			return nil, 0, shortReadError(off, SizeBool, len(src))
		}
		return src[off] != 0, off + SizeBool, nil

	case TypeInt:
		v, off, err := readInt32(src, off)
		return v, off, err

	case TypeUint:
		v, off, err := readUInt32(src, off)
		return v, off, err

	case TypeFloat:
		v, off, err := readFloat32(src, off)
		return v, off, err

	case TypeChar:
		v, off, err := readUInt32(src, off)
		return Char(v), off, err
	}

	return nil, 0, &util.GraphError{
		Type:   util.ErrCorruption,
		Detail: fmt.Sprintf("Unknown value descriptor: %v", desc),
	}
}

/*
EncodedValue returns the canonical encoding of a value (descriptor and value
bytes). Two values are considered equal by the query layer if their canonical
encodings are identical.
*/
func EncodedValue(v interface{}) ([]byte, error) {
	return EncodeValue(nil, v)
}

/*
ValueEquals compares two property values by their canonical encoding. Values
of different types are never equal.
*/
func ValueEquals(v1 interface{}, v2 interface{}) bool {
	e1, err1 := EncodedValue(v1)
	e2, err2 := EncodedValue(v2)

	if err1 != nil || err2 != nil || len(e1) != len(e2) {
		return false
	}

	for i, b := range e1 {
		if e2[i] != b {
			return false
		}
	}

	return true
}
