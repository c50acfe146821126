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
Package v1 contains the version 1 REST endpoints of the graph database.

Graph endpoint

/graph/n                   - POST creates a node from {"props": ...}
/graph/n/<id>              - GET fetches, PUT updates, DELETE removes a node
/graph/n/<id>/from         - GET returns all outgoing edges of a node
/graph/n/<id>/to           - GET returns all incoming edges of a node
/graph/e                   - POST creates an edge from {"from", "to", "props"}
/graph/e/<id>              - GET fetches, PUT updates, DELETE removes an edge

Find endpoint

/find/n?props=...          - GET returns all nodes matching a property query
/find/e?props=...          - GET returns all edges matching a property query
/find/neighbours?node_id=&hops=&query_id=&node_props=&edge_props=
                           - GET runs a neighbourhood traversal
/find/neighbours?query_id= - DELETE drops a traversal query state

Sock endpoint

/sock                      - GET upgrades to a websocket which streams graph
                             events
*/
package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"devt.de/krotik/shardgraph/api"
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
)

/*
APIv1 is the directory for version 1 of the REST API
*/
const APIv1 = "/v1"

/*
V1EndpointMap returns the endpoint handlers of version 1 of the REST API
for a given graph manager.
*/
func V1EndpointMap(gm *graph.Manager) map[string]api.RestEndpointInst {
	return map[string]api.RestEndpointInst{
		EndpointGraph: func() api.RestEndpointHandler {
			return &graphEndpoint{&api.DefaultEndpointHandler{}, gm}
		},
		EndpointFind: func() api.RestEndpointHandler {
			return &findEndpoint{&api.DefaultEndpointHandler{}, gm}
		},
		EndpointSock: func() api.RestEndpointHandler {
			return &sockEndpoint{&api.DefaultEndpointHandler{}, gm}
		},
	}
}

/*
RegisterV1Endpoints registers all version 1 endpoints for a given graph
manager on a given mux.
*/
func RegisterV1Endpoints(mux *http.ServeMux, gm *graph.Manager) {
	api.RegisterRestEndpoints(mux, V1EndpointMap(gm))
}

// Helper functions
// ================

/*
writeError writes a graph error as an appropriate HTTP response.
*/
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	if ge, ok := err.(*util.GraphError); ok {
		switch ge.Type {
		case util.ErrNotFound:
			status = http.StatusNotFound
		case util.ErrInvalidData:
			status = http.StatusBadRequest
		}
	}

	http.Error(w, err.Error(), status)
}

/*
writeJSON writes a given object as a JSON response.
*/
func writeJSON(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("content-type", "application/json; charset=utf-8")

	json.NewEncoder(w).Encode(obj)
}

/*
checkResources checks the resource list of a request.
*/
func checkResources(w http.ResponseWriter, resources []string, minElements int,
	maxElements int, errorMsg string) bool {

	if len(resources) < minElements || len(resources) > maxElements {
		http.Error(w, errorMsg, http.StatusBadRequest)
		return false
	}

	return true
}

/*
parseIDResource parses an entity id resource of a request path.
*/
func parseIDResource(w http.ResponseWriter, res string) (uint32, bool) {
	id, err := strconv.ParseUint(res, 10, 32)

	if err != nil || id == 0 {
		http.Error(w, "Invalid entity id: "+res, http.StatusBadRequest)
		return 0, false
	}

	return uint32(id), true
}

/*
queryProps parses a property list from a query parameter. A missing
parameter yields an empty list.
*/
func queryProps(w http.ResponseWriter, r *http.Request, param string) (data.Properties, bool) {
	var props data.Properties

	val := r.URL.Query().Get(param)
	if val == "" {
		return nil, true
	}

	if err := json.Unmarshal([]byte(val), &props); err != nil {
		http.Error(w, "Could not decode "+param+": "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return props, true
}
