/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"devt.de/krotik/shardgraph/cluster"
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
)

/*
liveNodeCount counts all live nodes of a manager including proxy nodes.
*/
func liveNodeCount(t *testing.T, gm *graph.Manager) int {
	nodes, err := gm.NodesByProperties(nil)
	if err != nil {
		t.Fatal(err)
	}
	return len(nodes)
}

func TestHTTPShardRouting(t *testing.T) {

	// Two remote shards served over HTTP

	gm1, ts1 := newTestServer(t, "distshard-0")
	defer ts1.Close()
	defer gm1.Close()

	gm2, ts2 := newTestServer(t, "distshard-1")
	defer ts2.Close()
	defer gm2.Close()

	router, err := cluster.NewHTTPRouter([]string{ts1.URL, ts2.URL}, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Cross-shard scenario over the wire

	extA, err := router.CreateNode(data.Properties{{Key: "name", Value: "alice"}})
	if err != nil || extA != "0:1" {
		t.Error("Unexpected create result:", extA, err)
		return
	}

	extB, err := router.CreateNode(data.Properties{{Key: "name", Value: "bob"}})
	if err != nil || extB != "1:1" {
		t.Error("Unexpected create result:", extB, err)
		return
	}

	extEdge, err := router.CreateEdge(extA, data.Properties{{Key: "weight", Value: int32(5)}}, extB)
	if err != nil {
		t.Error(err)
		return
	}

	// Typed values survive the JSON transport

	edge, err := router.FetchEdge(extEdge)
	if err != nil {
		t.Error(err)
		return
	}

	if edge.FromID != extA || edge.ToID != extB {
		t.Error("Unexpected edge:", edge)
		return
	}

	if v, _ := edge.Props.Get("weight"); !data.ValueEquals(v, int32(5)) {
		t.Error("Unexpected edge properties:", edge.Props)
		return
	}

	// The neighbourhood traversal crosses the HTTP shards

	nodes, err := router.FindNeighbours(extA, 1, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	if len(nodes) != 1 || nodes[0].ID != extB {
		t.Error("Unexpected traversal result:", nodes)
		return
	}

	if v, _ := nodes[0].Props.Get("name"); v != "bob" {
		t.Error("Unexpected traversal result:", nodes[0])
		return
	}

	// Removal cleans up both HTTP shards

	if err := router.RemoveEdge(extEdge); err != nil {
		t.Error(err)
		return
	}

	if err := router.RemoveEdge(extEdge); !util.IsNotFound(err) {
		t.Error("Unexpected remove result:", err)
		return
	}

	if c := liveNodeCount(t, gm1); c != 1 {
		t.Error("Unexpected node count on shard 0:", c)
		return
	}

	if c := liveNodeCount(t, gm2); c != 1 {
		t.Error("Unexpected node count on shard 1:", c)
		return
	}

	// Error translation over the wire

	if _, err := router.FetchNode("0:42"); !util.IsNotFound(err) {
		t.Error("Unexpected fetch result:", err)
		return
	}
}

func TestDistEndpoint(t *testing.T) {

	// A router front-end over two HTTP shards, itself served over REST

	gm1, ts1 := newTestServer(t, "distep-0")
	defer ts1.Close()
	defer gm1.Close()

	gm2, ts2 := newTestServer(t, "distep-1")
	defer ts2.Close()
	defer gm2.Close()

	router, err := cluster.NewHTTPRouter([]string{ts1.URL, ts2.URL}, 0)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	RegisterDistEndpoints(mux, router)

	td := httptest.NewServer(mux)
	defer td.Close()

	base := td.URL + EndpointDist

	// Create two nodes - the router spreads them over the shards

	status, res := request(t, "POST", base+"n",
		`{"props":[{"key":"name","desc":5,"value":"alice"}]}`)

	if status != http.StatusOK || res["id"] != "0:1" {
		t.Error("Unexpected response:", status, res)
		return
	}

	status, res = request(t, "POST", base+"n",
		`{"props":[{"key":"name","desc":3,"value":"bob"}]}`)

	if status != http.StatusOK || res["id"] != "1:1" {
		t.Error("Unexpected response:", status, res)
		return
	}

	// Create a cross-shard edge and fetch it back

	status, res = request(t, "POST", base+"e",
		`{"from":"0:1","to":"1:1","props":[{"key":"weight","desc":-2,"value":5}]}`)

	if status != http.StatusOK || res["id"] != "0:1" {
		t.Error("Unexpected response:", status, res)
		return
	}

	status, res = request(t, "GET", base+"e/0:1", "")
	if status != http.StatusOK {
		t.Error("Unexpected response:", status, res)
		return
	}

	edge := res["edge"].(map[string]interface{})
	if edge["from"] != "0:1" || edge["to"] != "1:1" {
		t.Error("Unexpected edge:", edge)
		return
	}

	// Adjacency and queries resolve the proxy endpoints

	status, res = request(t, "GET", base+"n/0:1/from", "")
	if status != http.StatusOK {
		t.Error("Unexpected response:", status, res)
		return
	}

	edges := res["edges"].([]interface{})
	if len(edges) != 1 || edges[0].(map[string]interface{})["to"] != "1:1" {
		t.Error("Unexpected edges:", edges)
		return
	}

	props := url.QueryEscape(`[{"key":"name","desc":3,"value":"bob"}]`)

	status, res = request(t, "GET", base+"find/n?props="+props, "")
	if status != http.StatusOK {
		t.Error("Unexpected response:", status, res)
		return
	}

	nodes := res["nodes"].([]interface{})
	if len(nodes) != 1 || nodes[0].(map[string]interface{})["id"] != "1:1" {
		t.Error("Unexpected nodes:", nodes)
		return
	}

	// Neighbourhood traversal across the shards

	status, res = request(t, "GET", base+"find/neighbours?node_id=0:1&hops=1", "")
	if status != http.StatusOK {
		t.Error("Unexpected response:", status, res)
		return
	}

	neighbours := res["neighbours"].([]interface{})
	if len(neighbours) != 1 || neighbours[0].(map[string]interface{})["id"] != "1:1" {
		t.Error("Unexpected neighbours:", neighbours)
		return
	}

	// Update and remove through the dist endpoint

	status, _ = request(t, "PUT", base+"n/0:1",
		`{"props":[{"key":"name","desc":6,"value":"alicia"}]}`)
	if status != http.StatusOK {
		t.Error("Unexpected response:", status)
		return
	}

	status, _ = request(t, "DELETE", base+"e/0:1", "")
	if status != http.StatusOK {
		t.Error("Unexpected response:", status)
		return
	}

	status, _ = request(t, "DELETE", base+"e/0:1", "")
	if status != http.StatusNotFound {
		t.Error("Unexpected response:", status)
		return
	}

	// Malformed external ids are rejected

	status, _ = request(t, "GET", base+"n/abc", "")
	if status != http.StatusBadRequest {
		t.Error("Unexpected response:", status)
		return
	}

	status, _ = request(t, "GET", base+"n/7:1", "")
	if status != http.StatusBadRequest {
		t.Error("Unexpected response:", status)
		return
	}
}
