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

	"devt.de/krotik/shardgraph/graph/util"
)

/*
Property is a single key / value pair of a property list.
*/
type Property struct {
	Key   string      // Key of the property
	Value interface{} // Value of the property
}

/*
Properties is an ordered list of key / value pairs. Insertion order is
preserved. Only the first occurrence of a key is authoritative.
*/
type Properties []Property

/*
NewProperties creates a property list from alternating key / value arguments.
*/
func NewProperties(kv ...interface{}) Properties {
	props := make(Properties, 0, len(kv)/2)

	for i := 0; i+1 < len(kv); i += 2 {
		props = append(props, Property{fmt.Sprint(kv[i]), kv[i+1]})
	}

	return props
}

/*
Get returns the value of the first occurrence of a given key.
*/
func (props Properties) Get(key string) (interface{}, bool) {
	for _, p := range props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

/*
Has checks if a given key is present.
*/
func (props Properties) Has(key string) bool {
	_, ok := props.Get(key)
	return ok
}

/*
Set replaces the value of the first occurrence of a given key or appends a
new property if the key is not present. The modified list is returned.
*/
func (props Properties) Set(key string, value interface{}) Properties {
	for i, p := range props {
		if p.Key == key {
			props[i].Value = value
			return props
		}
	}
	return append(props, Property{key, value})
}

/*
Keys returns all authoritative keys in insertion order.
*/
func (props Properties) Keys() []string {
	var keys []string

	seen := make(map[string]bool)

	for _, p := range props {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}

	return keys
}

/*
Matches checks if this property list is a superset of a given query list.
Keys are compared by equality, values by their canonical encoding. Values of
different types never match.
*/
func (props Properties) Matches(query Properties) bool {
	for _, key := range query.Keys() {
		qv, _ := query.Get(key)

		v, ok := props.Get(key)
		if !ok || !ValueEquals(v, qv) {
			return false
		}
	}
	return true
}

/*
Equals compares two property lists by authoritative keys, insertion order and
canonical value encoding.
*/
func (props Properties) Equals(other Properties) bool {
	keys := props.Keys()
	okeys := other.Keys()

	if len(keys) != len(okeys) {
		return false
	}

	for i, key := range keys {
		if okeys[i] != key {
			return false
		}

		v, _ := props.Get(key)
		ov, _ := other.Get(key)

		if !ValueEquals(v, ov) {
			return false
		}
	}

	return true
}

// Property block serialization
// ============================

/*
Encode encodes a property list as a property block: the number of properties
followed by each key / value pair in insertion order. Duplicate keys are
folded - only the first occurrence is written.
*/
func (props Properties) Encode() ([]byte, error) {
	var err error

	keys := props.Keys()

	dest := appendUInt32(nil, uint32(len(keys)))

	for _, key := range keys {
		v, _ := props.Get(key)

		dest = appendUInt32(dest, uint32(len(key)))
		dest = append(dest, key...)

		if dest, err = EncodeValue(dest, v); err != nil {
			return nil, err
		}
	}

	return dest, nil
}

/*
DecodeProperties decodes a property block at a given offset. It returns the
decoded list and the offset of the first byte after the block.
*/
func DecodeProperties(src []byte, off int) (Properties, int, error) {
	numProps, off, err := readUInt32(src, off)
	if err != nil {
		return nil, 0, err
	}

	props := make(Properties, 0, numProps)

	for i := uint32(0); i < numProps; i++ {
		var keyLen uint32
		var value interface{}

		if keyLen, off, err = readUInt32(src, off); err != nil {
			return nil, 0, err
		}

		if off+int(keyLen) > len(src) {
			return nil, 0, shortReadError(off, int(keyLen), len(src))
		}

		key := string(src[off : off+int(keyLen)])
		off += int(keyLen)

		if value, off, err = DecodeValue(src, off); err != nil {
			return nil, 0, err
		}

		if !props.Has(key) {
			props = append(props, Property{key, value})
		}
	}

	return props, off, nil
}

// Property record framing
// =======================

/*
EncodeRecord encodes a property list as a framed property record: the total
record length (including itself) followed by the property block.
*/
func EncodeRecord(props Properties) ([]byte, error) {
	block, err := props.Encode()
	if err != nil {
		return nil, err
	}

	dest := appendUInt32(nil, uint32(SizeUint+len(block)))

	return append(dest, block...), nil
}

/*
DecodeRecord decodes a framed property record. The given bytes must contain
the complete record.
*/
func DecodeRecord(src []byte) (Properties, error) {
	recLen, off, err := readUInt32(src, 0)
	if err != nil {
		return nil, err
	}

	if int(recLen) > len(src) {
		return nil, &util.GraphError{
			Type:   util.ErrCorruption,
			Detail: fmt.Sprintf("Record length %v exceeds available data %v", recLen, len(src)),
		}
	}

	props, _, err := DecodeProperties(src[:recLen], off)

	return props, err
}
