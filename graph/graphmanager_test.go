/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"flag"
	"fmt"
	"os"
	"testing"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
	"devt.de/krotik/shardgraph/storage"
)

const DBDir = "graphtest"

func TestMain(m *testing.M) {
	flag.Parse()

	if res, _ := fileutil.PathExists(DBDir); res {
		if err := os.RemoveAll(DBDir); err != nil {
			fmt.Print("Could not remove test directory:", err.Error())
		}
	}

	os.Mkdir(DBDir, 0770)

	res := m.Run()

	if err := os.RemoveAll(DBDir); err != nil {
		fmt.Print("Could not remove test directory:", err.Error())
	}

	os.Exit(res)
}

func newTestManager(t *testing.T, name string) *Manager {
	se, err := storage.NewDiskStorageEngine(DBDir + "/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return NewGraphManager(se, 0)
}

func nodeIDSet(nodes []*data.Node) map[uint32]bool {
	res := make(map[uint32]bool)
	for _, node := range nodes {
		res[node.ID] = true
	}
	return res
}

func TestManagerValidation(t *testing.T) {
	gm := newTestManager(t, "validation")
	defer gm.Close()

	// Unsigned int property values are reserved for internal fields

	_, err := gm.CreateNode(data.Properties{{Key: "internal", Value: uint32(1)}})
	if err == nil || err.(*util.GraphError).Type != util.ErrInvalidData {
		t.Error("Unexpected create result:", err)
		return
	}

	id, err := gm.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	if err != nil {
		t.Error(err)
		return
	}

	if err := gm.UpdateNode(id, data.Properties{{Key: "x", Value: uint32(1)}}); err == nil {
		t.Error("Unexpected update result:", err)
		return
	}

	if _, err := gm.CreateEdge(id, data.Properties{{Key: "x", Value: uint32(1)}}, id); err == nil {
		t.Error("Unexpected create result:", err)
		return
	}
}

func TestManagerEvents(t *testing.T) {
	gm := newTestManager(t, "events")
	defer gm.Close()

	events := make(chan GraphEvent, 10)

	gm.Subscribe(events)

	n1, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "bob"}})
	e1, _ := gm.CreateEdge(n1, nil, n2)

	gm.RemoveEdge(e1)
	gm.RemoveNode(n2)

	expected := []GraphEvent{
		{EventNodeCreated, n1},
		{EventNodeCreated, n2},
		{EventEdgeCreated, e1},
		{EventEdgeDeleted, e1},
		{EventNodeDeleted, n2},
	}

	for _, exp := range expected {
		if event := <-events; event != exp {
			t.Error("Unexpected event:", event, " expected: ", exp)
			return
		}
	}

	gm.Unsubscribe(events)

	gm.CreateNode(nil)

	select {
	case event := <-events:
		t.Error("Unexpected event after unsubscribe:", event)
	default:
	}
}

func TestNodesByProperties(t *testing.T) {
	gm := newTestManager(t, "nodesbyprops")
	defer gm.Close()

	n1, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "alice"}, {Key: "age", Value: int32(42)}})
	n2, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "bob"}, {Key: "age", Value: int32(42)}})
	gm.CreateNode(data.Properties{{Key: "name", Value: "carol"}})

	nodes, err := gm.NodesByProperties(data.Properties{{Key: "age", Value: int32(42)}})
	if err != nil {
		t.Error(err)
		return
	}

	ids := nodeIDSet(nodes)
	if len(ids) != 2 || !ids[n1] || !ids[n2] {
		t.Error("Unexpected query result:", ids)
		return
	}

	nodes, err = gm.NodesByProperties(data.Properties{
		{Key: "age", Value: int32(42)}, {Key: "name", Value: "bob"}})
	if err != nil {
		t.Error(err)
		return
	}

	if len(nodes) != 1 || nodes[0].ID != n2 {
		t.Error("Unexpected query result:", nodes)
		return
	}

	// Cross-type values do not match

	nodes, err = gm.NodesByProperties(data.Properties{{Key: "age", Value: float32(42)}})
	if err != nil {
		t.Error(err)
		return
	}

	if len(nodes) != 0 {
		t.Error("Unexpected query result:", nodes)
		return
	}
}

func TestEdgesByProperties(t *testing.T) {
	gm := newTestManager(t, "edgesbyprops")
	defer gm.Close()

	n1, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := gm.CreateNode(data.Properties{{Key: "name", Value: "bob"}})

	e1, _ := gm.CreateEdge(n1, data.Properties{{Key: "weight", Value: int32(5)}}, n2)
	gm.CreateEdge(n1, data.Properties{{Key: "weight", Value: int32(7)}}, n2)

	edges, err := gm.EdgesByProperties(data.Properties{{Key: "weight", Value: int32(5)}})
	if err != nil {
		t.Error(err)
		return
	}

	if len(edges) != 1 || edges[0].ID != e1 {
		t.Error("Unexpected query result:", edges)
		return
	}

	// Adjacency queries support the same filtering

	edges, err = gm.EdgesFrom(n1, data.Properties{{Key: "weight", Value: int32(5)}})
	if err != nil {
		t.Error(err)
		return
	}

	if len(edges) != 1 || edges[0].ID != e1 {
		t.Error("Unexpected query result:", edges)
		return
	}

	edges, err = gm.EdgesTo(n2, nil)
	if err != nil {
		t.Error(err)
		return
	}

	if len(edges) != 2 {
		t.Error("Unexpected query result:", edges)
		return
	}

	// Adjacency of unknown nodes is not found

	if _, err := gm.EdgesFrom(42, nil); !util.IsNotFound(err) {
		t.Error("Unexpected query result:", err)
		return
	}
}
