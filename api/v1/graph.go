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

	"devt.de/krotik/shardgraph/api"
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
EndpointGraph is the graph endpoint URL (rooted). Handles everything under
graph/...
*/
const EndpointGraph = api.APIRoot + APIv1 + "/graph/"

/*
Handler object for graph operations.
*/
type graphEndpoint struct {
	*api.DefaultEndpointHandler
	gm *graph.Manager
}

/*
nodeRequest is the request body for node operations.
*/
type nodeRequest struct {
	Props data.Properties `json:"props"`
}

/*
edgeRequest is the request body for edge operations.
*/
type edgeRequest struct {
	From  uint32          `json:"from"`
	To    uint32          `json:"to"`
	Props data.Properties `json:"props"`
}

/*
HandleGET handles REST calls to retrieve data from the graph database.
*/
func (ge *graphEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 3, "Need an entity type (n or e) and an id") {
		return
	}

	id, ok := parseIDResource(w, resources[1])
	if !ok {
		return
	}

	if resources[0] == "n" {

		if len(resources) == 3 {

			// List the adjacency of the node

			filter, ok := queryProps(w, r, "filter")
			if !ok {
				return
			}

			var edges []*data.Edge
			var err error

			if resources[2] == "from" {
				edges, err = ge.gm.EdgesFrom(id, filter)
			} else if resources[2] == "to" {
				edges, err = ge.gm.EdgesTo(id, filter)
			} else {
				http.Error(w, "Adjacency direction must be from or to", http.StatusBadRequest)
				return
			}

			if err != nil {
				writeError(w, err)
				return
			}

			if edges == nil {
				edges = []*data.Edge{}
			}

			writeJSON(w, map[string]interface{}{"edges": edges})
			return
		}

		node, err := ge.gm.FetchNode(id)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"node": node})
		return

	} else if resources[0] == "e" && len(resources) == 2 {

		edge, err := ge.gm.FetchEdge(id, true, true)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"edge": edge})
		return
	}

	http.Error(w, "Entity type must be n (nodes) or e (edges)", http.StatusBadRequest)
}

/*
HandlePOST handles REST calls to create entities in the graph database.
*/
func (ge *graphEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need an entity type (n or e)") {
		return
	}

	if resources[0] == "n" {
		var req nodeRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		id, err := ge.gm.CreateNode(req.Props)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"id": id})
		return

	} else if resources[0] == "e" {
		var req edgeRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		id, err := ge.gm.CreateEdge(req.From, req.Props, req.To)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]interface{}{"id": id})
		return
	}

	http.Error(w, "Entity type must be n (nodes) or e (edges)", http.StatusBadRequest)
}

/*
HandlePUT handles REST calls to update entities of the graph database.
*/
func (ge *graphEndpoint) HandlePUT(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 2, "Need an entity type (n or e) and an id") {
		return
	}

	id, ok := parseIDResource(w, resources[1])
	if !ok {
		return
	}

	var req nodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error

	if resources[0] == "n" {
		err = ge.gm.UpdateNode(id, req.Props)
	} else if resources[0] == "e" {
		err = ge.gm.UpdateEdge(id, req.Props)
	} else {
		http.Error(w, "Entity type must be n (nodes) or e (edges)", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"id": id})
}

/*
HandleDELETE handles REST calls to remove entities from the graph database.
*/
func (ge *graphEndpoint) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 2, 2, "Need an entity type (n or e) and an id") {
		return
	}

	id, ok := parseIDResource(w, resources[1])
	if !ok {
		return
	}

	var err error

	if resources[0] == "n" {
		err = ge.gm.RemoveNode(id)
	} else if resources[0] == "e" {
		err = ge.gm.RemoveEdge(id)
	} else {
		http.Error(w, "Entity type must be n (nodes) or e (edges)", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"id": id})
}
