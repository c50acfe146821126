/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"flag"
	"fmt"
	"os"
	"testing"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
	"devt.de/krotik/shardgraph/storage/file"
)

const DBDir = "storagetest"

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

func newTestEngine(t *testing.T, name string) *DiskStorageEngine {
	dse, err := NewDiskStorageEngine(DBDir + "/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return dse
}

func collectIDs(t *testing.T, it *IDCursor) []uint32 {
	var ids []uint32

	for it.HasNext() {
		ids = append(ids, it.Next())
	}

	if it.LastError != nil {
		t.Fatal(it.LastError)
	}

	return ids
}

func equalIDs(ids1 []uint32, ids2 []uint32) bool {
	if len(ids1) != len(ids2) {
		return false
	}
	for i, id := range ids1 {
		if ids2[i] != id {
			return false
		}
	}
	return true
}

func TestNodeCRUD(t *testing.T) {
	dse := newTestEngine(t, "nodecrud")
	defer dse.Close()

	props := data.Properties{{Key: "name", Value: "alice"}}

	id, err := dse.CreateNode(props)
	if err != nil {
		t.Error(err)
		return
	}

	if id != 1 {
		t.Error("Unexpected node id:", id)
		return
	}

	node, err := dse.FetchNode(id)
	if err != nil {
		t.Error(err)
		return
	}

	if node.ID != 1 || !node.Props.Equals(props) {
		t.Error("Unexpected node:", node)
		return
	}

	// Update appends a new record and keeps the id

	props2 := data.Properties{{Key: "name", Value: "alice"}, {Key: "age", Value: int32(42)}}

	if err := dse.UpdateNode(id, props2); err != nil {
		t.Error(err)
		return
	}

	node, err = dse.FetchNode(id)
	if err != nil {
		t.Error(err)
		return
	}

	if node.ID != 1 || !node.Props.Equals(props2) {
		t.Error("Unexpected node:", node)
		return
	}

	// Unknown ids are not found

	if _, err := dse.FetchNode(42); !util.IsNotFound(err) {
		t.Error("Unexpected fetch result:", err)
		return
	}

	if err := dse.UpdateNode(42, props); !util.IsNotFound(err) {
		t.Error("Unexpected update result:", err)
		return
	}

	// Removal is idempotent

	if err := dse.RemoveNode(id); err != nil {
		t.Error(err)
		return
	}

	if _, err := dse.FetchNode(id); !util.IsNotFound(err) {
		t.Error("Unexpected fetch result:", err)
		return
	}

	if err := dse.RemoveNode(id); err != nil {
		t.Error(err)
		return
	}

	if err := dse.RemoveNode(42); err != nil {
		t.Error(err)
		return
	}

	// Ids are never reused

	id, err = dse.CreateNode(props)
	if err != nil {
		t.Error(err)
		return
	}

	if id != 2 {
		t.Error("Unexpected node id:", id)
		return
	}

	ids := collectIDs(t, dse.NodeIDs())
	if !equalIDs(ids, []uint32{2}) {
		t.Error("Unexpected live node ids:", ids)
		return
	}
}

func TestEdgeInsertionOrder(t *testing.T) {
	dse := newTestEngine(t, "edgeorder")
	defer dse.Close()

	n1, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "bob"}})

	e1, err := dse.CreateEdge(n1, data.Properties{{Key: "weight", Value: int32(5)}}, n2)
	if err != nil {
		t.Error(err)
		return
	}

	if e1 != 1 {
		t.Error("Unexpected edge id:", e1)
		return
	}

	it, err := dse.EdgesFrom(n1)
	if err != nil {
		t.Error(err)
		return
	}

	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{1}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n2)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{1}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	// A second edge becomes the new list head

	e2, err := dse.CreateEdge(n1, data.Properties{{Key: "weight", Value: int32(7)}}, n2)
	if err != nil || e2 != 2 {
		t.Error("Unexpected edge id:", e2, err)
		return
	}

	it, _ = dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{2, 1}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	// Removing the older edge keeps the newer one

	if err := dse.RemoveEdge(e1); err != nil {
		t.Error(err)
		return
	}

	it, _ = dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{2}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n2)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{2}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	if _, err := dse.FetchEdge(e1, false, false); !util.IsNotFound(err) {
		t.Error("Unexpected fetch result:", err)
		return
	}

	// Edge removal is idempotent

	if err := dse.RemoveEdge(e1); err != nil {
		t.Error(err)
		return
	}

	// Edge ids are not reused

	e3, err := dse.CreateEdge(n2, nil, n1)
	if err != nil || e3 != 3 {
		t.Error("Unexpected edge id:", e3, err)
		return
	}

	ids := collectIDs(t, dse.EdgeIDs())
	if !equalIDs(ids, []uint32{2, 3}) {
		t.Error("Unexpected live edge ids:", ids)
		return
	}
}

func TestEdgeEndpointsAndProps(t *testing.T) {
	dse := newTestEngine(t, "edgeprops")
	defer dse.Close()

	n1, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "bob"}})

	// Edges to unknown nodes cannot be created

	if _, err := dse.CreateEdge(n1, nil, 42); !util.IsNotFound(err) {
		t.Error("Unexpected create result:", err)
		return
	}

	if _, err := dse.CreateEdge(42, nil, n1); !util.IsNotFound(err) {
		t.Error("Unexpected create result:", err)
		return
	}

	// An edge without properties has no property record

	e1, err := dse.CreateEdge(n1, nil, n2)
	if err != nil {
		t.Error(err)
		return
	}

	edge, err := dse.FetchEdge(e1, true, true)
	if err != nil {
		t.Error(err)
		return
	}

	if edge.FromID != n1 || edge.ToID != n2 || len(edge.Props) != 0 {
		t.Error("Unexpected edge:", edge)
		return
	}

	if edge.From == nil || edge.To == nil ||
		edge.From.ID != n1 || edge.To.ID != n2 {
		t.Error("Unexpected inlined endpoints:", edge.From, edge.To)
		return
	}

	// Updating attaches a property record

	props := data.Properties{{Key: "weight", Value: int32(5)}}

	if err := dse.UpdateEdge(e1, props); err != nil {
		t.Error(err)
		return
	}

	edge, err = dse.FetchEdge(e1, false, false)
	if err != nil {
		t.Error(err)
		return
	}

	if !edge.Props.Equals(props) {
		t.Error("Unexpected edge properties:", edge.Props)
		return
	}

	if edge.From != nil || edge.To != nil {
		t.Error("Endpoints should not be inlined")
		return
	}
}

func TestSelfLoop(t *testing.T) {
	dse := newTestEngine(t, "selfloop")
	defer dse.Close()

	n1, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})

	e1, err := dse.CreateEdge(n1, nil, n1)
	if err != nil {
		t.Error(err)
		return
	}

	// The loop appears exactly once in both lists

	it, _ := dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e1}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e1}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	// Removing the loop restores both lists

	if err := dse.RemoveEdge(e1); err != nil {
		t.Error(err)
		return
	}

	it, _ = dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); len(ids) != 0 {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n1)
	if ids := collectIDs(t, it); len(ids) != 0 {
		t.Error("Unexpected edges:", ids)
		return
	}

	// The loop interacts correctly with other edges in the lists

	n2, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "bob"}})

	e2, _ := dse.CreateEdge(n1, nil, n2)
	e3, _ := dse.CreateEdge(n1, nil, n1)
	e4, _ := dse.CreateEdge(n2, nil, n1)

	it, _ = dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e3, e2}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e4, e3}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	if err := dse.RemoveEdge(e3); err != nil {
		t.Error(err)
		return
	}

	it, _ = dse.EdgesFrom(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e2}) {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n1)
	if ids := collectIDs(t, it); !equalIDs(ids, []uint32{e4}) {
		t.Error("Unexpected edges:", ids)
		return
	}
}

func TestRemoveNodeCascade(t *testing.T) {
	dse := newTestEngine(t, "cascade")
	defer dse.Close()

	n1, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "bob"}})

	e1, _ := dse.CreateEdge(n1, nil, n2)
	e2, _ := dse.CreateEdge(n2, nil, n1)
	e3, _ := dse.CreateEdge(n1, nil, n1)

	if err := dse.RemoveNode(n1); err != nil {
		t.Error(err)
		return
	}

	// The other node is still live with empty adjacency lists

	if _, err := dse.FetchNode(n2); err != nil {
		t.Error(err)
		return
	}

	it, _ := dse.EdgesFrom(n2)
	if ids := collectIDs(t, it); len(ids) != 0 {
		t.Error("Unexpected edges:", ids)
		return
	}

	it, _ = dse.EdgesTo(n2)
	if ids := collectIDs(t, it); len(ids) != 0 {
		t.Error("Unexpected edges:", ids)
		return
	}

	// All attached edges are tombstoned

	for _, eid := range []uint32{e1, e2, e3} {
		if _, err := dse.FetchEdge(eid, false, false); !util.IsNotFound(err) {
			t.Error("Unexpected fetch result:", eid, err)
			return
		}
	}

	if ids := collectIDs(t, dse.EdgeIDs()); len(ids) != 0 {
		t.Error("Unexpected live edge ids:", ids)
		return
	}
}

func TestAdjacencyConsistency(t *testing.T) {
	dse := newTestEngine(t, "adjacency")
	defer dse.Close()

	var nodes []uint32

	for i := 0; i < 4; i++ {
		id, err := dse.CreateNode(data.Properties{{Key: "num", Value: int32(i)}})
		if err != nil {
			t.Fatal(err)
		}
		nodes = append(nodes, id)
	}

	type edgeInfo struct {
		id   uint32
		from uint32
		to   uint32
	}

	var live []edgeInfo

	addEdge := func(from uint32, to uint32) {
		id, err := dse.CreateEdge(from, nil, to)
		if err != nil {
			t.Fatal(err)
		}
		live = append(live, edgeInfo{id, from, to})
	}

	removeEdge := func(id uint32) {
		if err := dse.RemoveEdge(id); err != nil {
			t.Fatal(err)
		}
		for i, e := range live {
			if e.id == id {
				live = append(live[:i], live[i+1:]...)
				break
			}
		}
	}

	check := func() {
		for _, n := range nodes {

			var expFrom, expTo []uint32

			// Walk the expected lists newest first

			for i := len(live) - 1; i >= 0; i-- {
				if live[i].from == n {
					expFrom = append(expFrom, live[i].id)
				}
				if live[i].to == n {
					expTo = append(expTo, live[i].id)
				}
			}

			it, err := dse.EdgesFrom(n)
			if err != nil {
				t.Fatal(err)
			}
			if ids := collectIDs(t, it); !equalIDs(ids, expFrom) {
				t.Fatal("Unexpected outgoing edges of ", n, ": ", ids, " expected: ", expFrom)
			}

			it, err = dse.EdgesTo(n)
			if err != nil {
				t.Fatal(err)
			}
			if ids := collectIDs(t, it); !equalIDs(ids, expTo) {
				t.Fatal("Unexpected incoming edges of ", n, ": ", ids, " expected: ", expTo)
			}
		}
	}

	addEdge(nodes[0], nodes[1]) // 1
	addEdge(nodes[0], nodes[2]) // 2
	addEdge(nodes[1], nodes[0]) // 3
	addEdge(nodes[2], nodes[3]) // 4
	addEdge(nodes[0], nodes[1]) // 5
	addEdge(nodes[3], nodes[3]) // 6
	check()

	removeEdge(2) // Middle of node 0's outgoing list
	check()

	removeEdge(5) // Head of node 0's outgoing list
	check()

	removeEdge(1) // Tail of node 0's outgoing list
	check()

	addEdge(nodes[0], nodes[3])
	addEdge(nodes[3], nodes[0])
	check()

	removeEdge(6) // Self-loop
	check()
}

func TestPersistence(t *testing.T) {
	name := "persist"

	dse := newTestEngine(t, name)

	n1, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	n2, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "bob"}})
	e1, _ := dse.CreateEdge(n1, data.Properties{{Key: "weight", Value: int32(5)}}, n2)

	if err := dse.Flush(); err != nil {
		t.Error(err)
		return
	}

	if err := dse.Close(); err != nil {
		t.Error(err)
		return
	}

	// Reopen and check that everything is still there

	dse = newTestEngine(t, name)
	defer dse.Close()

	node, err := dse.FetchNode(n1)
	if err != nil {
		t.Error(err)
		return
	}

	if v, _ := node.Props.Get("name"); v != "alice" {
		t.Error("Unexpected node:", node)
		return
	}

	edge, err := dse.FetchEdge(e1, false, false)
	if err != nil {
		t.Error(err)
		return
	}

	if edge.FromID != n1 || edge.ToID != n2 {
		t.Error("Unexpected edge:", edge)
		return
	}

	// New ids continue after the persisted counters

	id, err := dse.CreateNode(nil)
	if err != nil || id != 3 {
		t.Error("Unexpected node id:", id, err)
		return
	}
}

func TestCorruptionDetection(t *testing.T) {
	dse := newTestEngine(t, "corrupt")

	id, _ := dse.CreateNode(data.Properties{{Key: "name", Value: "alice"}})

	// A slot pointing outside of the written properties area is corruption

	if err := dse.nodeids.WriteUInt32(nodeSlotOffset(id)+slotOffAddr,
		dse.curNodeAddr+100); err != nil {
		t.Fatal(err)
	}

	if _, err := dse.FetchNode(id); err == nil ||
		err.(*util.GraphError).Type != util.ErrCorruption {
		t.Error("Unexpected fetch result:", err)
		return
	}

	dse.Close()

	// An implausible header counter is detected on open

	name := DBDir + "/corrupthdr"

	dse, err := NewDiskStorageEngine(name)
	if err != nil {
		t.Fatal(err)
	}
	dse.Close()

	sf, _, err := file.NewStorageFile(name + SuffixProperties)
	if err != nil {
		t.Fatal(err)
	}
	sf.WriteUInt32(0, 2)
	sf.Close()

	if _, err := NewDiskStorageEngine(name); err == nil ||
		err.(*util.GraphError).Type != util.ErrCorruption {
		t.Error("Unexpected open result:", err)
		return
	}
}
