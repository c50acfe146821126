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
	"encoding/json"
	"fmt"

	"devt.de/krotik/shardgraph/graph/util"
)

/*
jsonProperty is the JSON transport form of a single property. The desc
attribute carries the value descriptor so typed values survive the float64
only number representation of JSON.
*/
type jsonProperty struct {
	Key   string      `json:"key"`
	Desc  int32       `json:"desc"`
	Value interface{} `json:"value"`
}

/*
MarshalJSON returns the JSON transport form of a property list.
*/
func (props Properties) MarshalJSON() ([]byte, error) {
	jprops := make([]jsonProperty, 0, len(props))

	for _, key := range props.Keys() {
		v, _ := props.Get(key)

		desc, err := ValueDesc(v)
		if err != nil {
			return nil, err
		}

		var jv interface{}

		switch x := v.(type) {
		case Char:
			jv = uint32(x)
		default:
			jv = x
		}

		jprops = append(jprops, jsonProperty{key, desc, jv})
	}

	return json.Marshal(jprops)
}

/*
UnmarshalJSON decodes the JSON transport form of a property list.
*/
func (props *Properties) UnmarshalJSON(src []byte) error {
	var jprops []jsonProperty

	if err := json.Unmarshal(src, &jprops); err != nil {
		return err
	}

	res := make(Properties, 0, len(jprops))

	for _, jp := range jprops {
		v, err := jsonValue(jp.Desc, jp.Value)
		if err != nil {
			return err
		}

		res = append(res, Property{jp.Key, v})
	}

	*props = res

	return nil
}

/*
jsonValue converts a decoded JSON value back into its typed form using the
transported value descriptor.
*/
func jsonValue(desc int32, jv interface{}) (interface{}, error) {
	invalid := func() error {
		return &util.GraphError{
			Type:   util.ErrInvalidData,
			Detail: fmt.Sprintf("Value %v does not match descriptor %v", jv, desc),
		}
	}

	if desc >= 0 {
		s, ok := jv.(string)
		if !ok {
			return nil, invalid()
		}
		return s, nil
	}

	switch desc {

	case TypeBool:
		b, ok := jv.(bool)
		if !ok {
			return nil, invalid()
		}
		return b, nil

	case TypeInt:
		f, ok := jv.(float64)
		if !ok {
			return nil, invalid()
		}
		return int32(f), nil

	case TypeUint:
		f, ok := jv.(float64)
		if !ok {
			return nil, invalid()
		}
		return uint32(f), nil

	case TypeFloat:
		f, ok := jv.(float64)
		if !ok {
			return nil, invalid()
		}
		return float32(f), nil

	case TypeChar:
		f, ok := jv.(float64)
		if !ok {
			return nil, invalid()
		}
		return Char(uint32(f)), nil
	}

	return nil, &util.GraphError{
		Type:   util.ErrInvalidData,
		Detail: fmt.Sprintf("Unknown value descriptor: %v", desc),
	}
}
