/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"
)

const testconf = "testconfig"

func TestConfig(t *testing.T) {

	Config = nil

	ioutil.WriteFile(testconf, []byte(`{
    "DBName": "mydb",
    "ShardEndpoints": ["http://localhost:9090", "http://localhost:9091"]
}`), 0644)

	defer func() {
		if err := os.Remove(testconf); err != nil {
			fmt.Print("Could not remove test config file:", err.Error())
		}
	}()

	if err := LoadConfigFile(testconf); err != nil {
		t.Error(err)
		return
	}

	if res := Str(DBName); res != "mydb" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Int(HTTPPort); fmt.Sprint(res) != DefaultConfig[HTTPPort] {
		t.Error("Unexpected result:", res)
		return
	}

	if res := StrSlice(ShardEndpoints); len(res) != 2 || res[0] != "http://localhost:9090" {
		t.Error("Unexpected result:", res)
		return
	}

	LoadDefaultConfig()

	if res := Str(DBName); res != "db" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := StrSlice(ShardEndpoints); len(res) != 0 {
		t.Error("Unexpected result:", res)
		return
	}

	Config[NeighbourQueryTTL] = "300"

	if res := Int(NeighbourQueryTTL); res != 300 {
		t.Error("Unexpected result:", res)
		return
	}
}
