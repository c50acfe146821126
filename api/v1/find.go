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
	"strconv"

	"devt.de/krotik/shardgraph/api"
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
EndpointFind is the find endpoint URL (rooted). Handles everything under
find/...
*/
const EndpointFind = api.APIRoot + APIv1 + "/find/"

/*
Handler object for query operations.
*/
type findEndpoint struct {
	*api.DefaultEndpointHandler
	gm *graph.Manager
}

/*
remoteRefResult is the JSON form of a remote reference.
*/
type remoteRefResult struct {
	ID   string `json:"id"`
	Hops int    `json:"hops"`
}

/*
HandleGET handles REST calls to query the graph database.
*/
func (fe *findEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a query type (n, e or neighbours)") {
		return
	}

	if resources[0] == "n" {

		query, ok := queryProps(w, r, "props")
		if !ok {
			return
		}

		nodes, err := fe.gm.NodesByProperties(query)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"nodes": nodes})
		return

	} else if resources[0] == "e" {

		query, ok := queryProps(w, r, "props")
		if !ok {
			return
		}

		edges, err := fe.gm.EdgesByProperties(query)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"edges": edges})
		return

	} else if resources[0] == "neighbours" {
		fe.handleNeighbours(w, r)
		return
	}

	http.Error(w, "Query type must be n, e or neighbours", http.StatusBadRequest)
}

/*
handleNeighbours runs a neighbourhood traversal.
*/
func (fe *findEndpoint) handleNeighbours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	nodeID, err := strconv.ParseUint(q.Get("node_id"), 10, 32)
	if err != nil || nodeID == 0 {
		http.Error(w, "Need a node_id parameter", http.StatusBadRequest)
		return
	}

	hops, err := strconv.Atoi(q.Get("hops"))
	if err != nil {
		http.Error(w, "Need a hops parameter", http.StatusBadRequest)
		return
	}

	queryID := q.Get("query_id")

	nodeFilter, ok := queryProps(w, r, "node_props")
	if !ok {
		return
	}

	edgeFilter, ok := queryProps(w, r, "edge_props")
	if !ok {
		return
	}

	nodes, remote, err := fe.gm.FindNeighbours(uint32(nodeID), hops, queryID,
		nodeFilter, edgeFilter)

	if err != nil {
		writeError(w, err)
		return
	}

	remoteRes := make([]remoteRefResult, 0, len(remote))
	for _, ref := range remote {
		remoteRes = append(remoteRes, remoteRefResult{ref.ExtID, ref.Hops})
	}

	if nodes == nil {
		nodes = []*data.Node{}
	}

	writeJSON(w, map[string]interface{}{
		"neighbours": nodes,
		"remote":     remoteRes,
	})
}

/*
HandleDELETE handles REST calls to drop a traversal query state.
*/
func (fe *findEndpoint) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a query type (neighbours)") {
		return
	}

	if resources[0] != "neighbours" {
		http.Error(w, "Query type must be neighbours", http.StatusBadRequest)
		return
	}

	queryID := r.URL.Query().Get("query_id")
	if queryID == "" {
		http.Error(w, "Need a query_id parameter", http.StatusBadRequest)
		return
	}

	fe.gm.FinishQuery(queryID)

	writeJSON(w, map[string]interface{}{"query_id": queryID})
}
