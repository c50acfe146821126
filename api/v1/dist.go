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
	"encoding/json"
	"net/http"
	"strconv"

	"devt.de/krotik/shardgraph/api"
	"devt.de/krotik/shardgraph/cluster"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
EndpointDist is the endpoint URL (rooted) for operations on a sharded
database. Handles everything under dist/...
*/
const EndpointDist = api.APIRoot + APIv1 + "/dist/"

/*
DistEndpointMap returns the endpoint handlers for a given shard router.
*/
func DistEndpointMap(router *cluster.Router) map[string]api.RestEndpointInst {
	return map[string]api.RestEndpointInst{
		EndpointDist: func() api.RestEndpointHandler {
			return &distEndpoint{&api.DefaultEndpointHandler{}, router}
		},
	}
}

/*
RegisterDistEndpoints registers the endpoints of a given shard router on a
given mux.
*/
func RegisterDistEndpoints(mux *http.ServeMux, router *cluster.Router) {
	api.RegisterRestEndpoints(mux, DistEndpointMap(router))
}

/*
Handler object for sharded graph operations. Entities are addressed by
their external "shard:local" ids.
*/
type distEndpoint struct {
	*api.DefaultEndpointHandler
	router *cluster.Router
}

/*
distNodeRequest is the request body for node operations.
*/
type distNodeRequest struct {
	Props data.Properties `json:"props"`
}

/*
distEdgeRequest is the request body for edge operations.
*/
type distEdgeRequest struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Props data.Properties `json:"props"`
}

/*
writeDistError writes a cluster error as an appropriate HTTP response.
*/
func writeDistError(w http.ResponseWriter, err error) {
	if ce, ok := err.(*cluster.Error); ok {
		status := http.StatusInternalServerError

		switch ce.Type {
		case cluster.ErrInvalidID, cluster.ErrUnknownShard:
			status = http.StatusBadRequest
		case cluster.ErrUnreachable:
			status = http.StatusBadGateway
		}

		http.Error(w, err.Error(), status)
		return
	}

	writeError(w, err)
}

/*
HandleGET handles REST calls to retrieve data from the sharded database.
*/
func (de *distEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 3, "Need a resource type (n, e or find) and an id or query type") {
		return
	}

	if resources[0] == "n" {

		if len(resources) == 3 {

			// List the adjacency of the node

			filter, ok := queryProps(w, r, "filter")
			if !ok {
				return
			}

			var edges []*cluster.Edge
			var err error

			if resources[2] == "from" {
				edges, err = de.router.EdgesFrom(resources[1], filter)
			} else if resources[2] == "to" {
				edges, err = de.router.EdgesTo(resources[1], filter)
			} else {
				http.Error(w, "Adjacency direction must be from or to", http.StatusBadRequest)
				return
			}

			if err != nil {
				writeDistError(w, err)
				return
			}

			writeJSON(w, map[string]interface{}{"edges": edges})
			return
		}

		node, err := de.router.FetchNode(resources[1])
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"node": node})
		return

	} else if resources[0] == "e" && len(resources) == 2 {

		edge, err := de.router.FetchEdge(resources[1])
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"edge": edge})
		return

	} else if resources[0] == "find" && len(resources) == 2 {
		de.handleFind(w, r, resources[1])
		return
	}

	http.Error(w, "Resource type must be n (nodes), e (edges) or find", http.StatusBadRequest)
}

/*
handleFind handles query operations on the sharded database.
*/
func (de *distEndpoint) handleFind(w http.ResponseWriter, r *http.Request, queryType string) {

	if queryType == "n" {

		query, ok := queryProps(w, r, "props")
		if !ok {
			return
		}

		nodes, err := de.router.NodesByProperties(query)
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"nodes": nodes})
		return

	} else if queryType == "e" {

		query, ok := queryProps(w, r, "props")
		if !ok {
			return
		}

		edges, err := de.router.EdgesByProperties(query)
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"edges": edges})
		return

	} else if queryType == "neighbours" {

		nodeID := r.URL.Query().Get("node_id")
		if nodeID == "" {
			http.Error(w, "Need a node_id parameter", http.StatusBadRequest)
			return
		}

		hops, err := strconv.Atoi(r.URL.Query().Get("hops"))
		if err != nil {
			http.Error(w, "Need a hops parameter", http.StatusBadRequest)
			return
		}

		nodeFilter, ok := queryProps(w, r, "node_props")
		if !ok {
			return
		}

		edgeFilter, ok := queryProps(w, r, "edge_props")
		if !ok {
			return
		}

		nodes, err := de.router.FindNeighbours(nodeID, hops, nodeFilter, edgeFilter)
		if err != nil {
			writeDistError(w, err)
			return
		}

		if nodes == nil {
			nodes = []*cluster.Node{}
		}

		writeJSON(w, map[string]interface{}{"neighbours": nodes})
		return
	}

	http.Error(w, "Query type must be n, e or neighbours", http.StatusBadRequest)
}

/*
HandlePOST handles REST calls to create entities in the sharded database.
*/
func (de *distEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a resource type (n or e)") {
		return
	}

	if resources[0] == "n" {
		var req distNodeRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		extID, err := de.router.CreateNode(req.Props)
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"id": extID})
		return

	} else if resources[0] == "e" {
		var req distEdgeRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		extID, err := de.router.CreateEdge(req.From, req.Props, req.To)
		if err != nil {
			writeDistError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"id": extID})
		return
	}

	http.Error(w, "Resource type must be n (nodes) or e (edges)", http.StatusBadRequest)
}

/*
HandlePUT handles REST calls to update entities of the sharded database.
*/
func (de *distEndpoint) HandlePUT(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 2, "Need a resource type (n or e) and an id") {
		return
	}

	var req distNodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error

	if resources[0] == "n" {
		err = de.router.UpdateNode(resources[1], req.Props)
	} else if resources[0] == "e" {
		err = de.router.UpdateEdge(resources[1], req.Props)
	} else {
		http.Error(w, "Resource type must be n (nodes) or e (edges)", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeDistError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"id": resources[1]})
}

/*
HandleDELETE handles REST calls to remove entities from the sharded
database.
*/
func (de *distEndpoint) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 2, "Need a resource type (n or e) and an id") {
		return
	}

	var err error

	if resources[0] == "n" {
		err = de.router.RemoveNode(resources[1])
	} else if resources[0] == "e" {
		err = de.router.RemoveEdge(resources[1])
	} else {
		http.Error(w, "Resource type must be n (nodes) or e (edges)", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeDistError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"id": resources[1]})
}
