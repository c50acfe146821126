/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cluster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
)

/*
DefaultRequestTimeout is the default timeout for shard requests.
*/
const DefaultRequestTimeout = 10 * time.Second

/*
HTTPClient is a Client for a remote engine reached over its REST API.
*/
type HTTPClient struct {
	endpoint string       // Base URL of the remote engine
	client   *http.Client // Underlying HTTP client
}

/*
NewHTTPClient creates a new client for a remote engine. The endpoint is the
base URL of the engine (e.g. http://localhost:9090).
*/
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &HTTPClient{endpoint, &http.Client{Timeout: timeout}}
}

/*
Endpoint returns the base URL of the remote engine.
*/
func (hc *HTTPClient) Endpoint() string {
	return hc.endpoint
}

/*
request runs a single request against the remote engine and decodes the
JSON response into the given result object.
*/
func (hc *HTTPClient) request(method string, path string, body interface{},
	result interface{}) error {

	var reqBody bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, hc.endpoint+path, &reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("content-type", "application/json; charset=utf-8")

	res, err := hc.client.Do(req)
	if err != nil {
		return &Error{
			Type:   ErrUnreachable,
			Detail: fmt.Sprintf("%v: %v", hc.endpoint, err.Error()),
		}
	}

	defer res.Body.Close()

	resBody, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return &Error{
			Type:   ErrUnreachable,
			Detail: fmt.Sprintf("%v: %v", hc.endpoint, err.Error()),
		}
	}

	if res.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("%v%v: %v", hc.endpoint, path, string(bytes.TrimSpace(resBody)))

		switch res.StatusCode {
		case http.StatusNotFound:
			return &util.GraphError{Type: util.ErrNotFound, Detail: detail}
		case http.StatusBadRequest:
			return &util.GraphError{Type: util.ErrInvalidData, Detail: detail}
		}

		return &util.GraphError{Type: util.ErrAccessComponent, Detail: detail}
	}

	if result != nil {
		if err := json.Unmarshal(resBody, result); err != nil {
			return &util.GraphError{Type: util.ErrInvalidData, Detail: err.Error()}
		}
	}

	return nil
}

/*
propsParam renders a property list as a query parameter value.
*/
func propsParam(props data.Properties) (string, error) {
	if len(props) == 0 {
		return "", nil
	}

	res, err := json.Marshal(props)

	return string(res), err
}

// Client interface
// ================

/*
CreateNode stores a new node and returns its local id.
*/
func (hc *HTTPClient) CreateNode(props data.Properties) (uint32, error) {
	var res struct {
		ID uint32 `json:"id"`
	}

	err := hc.request("POST", "/db/v1/graph/n",
		map[string]interface{}{"props": props}, &res)

	return res.ID, err
}

/*
FetchNode retrieves a node by its local id.
*/
func (hc *HTTPClient) FetchNode(id uint32) (*data.Node, error) {
	var res struct {
		Node *data.Node `json:"node"`
	}

	err := hc.request("GET", fmt.Sprintf("/db/v1/graph/n/%v", id), nil, &res)

	return res.Node, err
}

/*
UpdateNode replaces the properties of a node.
*/
func (hc *HTTPClient) UpdateNode(id uint32, props data.Properties) error {
	return hc.request("PUT", fmt.Sprintf("/db/v1/graph/n/%v", id),
		map[string]interface{}{"props": props}, nil)
}

/*
RemoveNode removes a node and all edges attached to it.
*/
func (hc *HTTPClient) RemoveNode(id uint32) error {
	return hc.request("DELETE", fmt.Sprintf("/db/v1/graph/n/%v", id), nil, nil)
}

/*
CreateEdge stores a new edge and returns its local id.
*/
func (hc *HTTPClient) CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error) {
	var res struct {
		ID uint32 `json:"id"`
	}

	err := hc.request("POST", "/db/v1/graph/e",
		map[string]interface{}{"from": fromID, "to": toID, "props": props}, &res)

	return res.ID, err
}

/*
FetchEdge retrieves an edge by its local id with inlined endpoints.
*/
func (hc *HTTPClient) FetchEdge(id uint32) (*data.Edge, error) {
	var res struct {
		Edge *data.Edge `json:"edge"`
	}

	err := hc.request("GET", fmt.Sprintf("/db/v1/graph/e/%v", id), nil, &res)

	return res.Edge, err
}

/*
UpdateEdge replaces the properties of an edge.
*/
func (hc *HTTPClient) UpdateEdge(id uint32, props data.Properties) error {
	return hc.request("PUT", fmt.Sprintf("/db/v1/graph/e/%v", id),
		map[string]interface{}{"props": props}, nil)
}

/*
RemoveEdge removes an edge.
*/
func (hc *HTTPClient) RemoveEdge(id uint32) error {
	return hc.request("DELETE", fmt.Sprintf("/db/v1/graph/e/%v", id), nil, nil)
}

/*
EdgesFrom returns all edges starting at a given node, newest first.
*/
func (hc *HTTPClient) EdgesFrom(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	return hc.adjacentEdges(nodeID, filter, "from")
}

/*
EdgesTo returns all edges ending at a given node, newest first.
*/
func (hc *HTTPClient) EdgesTo(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	return hc.adjacentEdges(nodeID, filter, "to")
}

/*
adjacentEdges queries the adjacency of a node in one direction.
*/
func (hc *HTTPClient) adjacentEdges(nodeID uint32, filter data.Properties, dir string) ([]*data.Edge, error) {
	var res struct {
		Edges []*data.Edge `json:"edges"`
	}

	fparam, err := propsParam(filter)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/db/v1/graph/n/%v/%v", nodeID, dir)
	if fparam != "" {
		path += "?filter=" + url.QueryEscape(fparam)
	}

	err = hc.request("GET", path, nil, &res)

	return res.Edges, err
}

/*
NodesByProperties returns all nodes matching a property query.
*/
func (hc *HTTPClient) NodesByProperties(query data.Properties) ([]*data.Node, error) {
	var res struct {
		Nodes []*data.Node `json:"nodes"`
	}

	qparam, err := propsParam(query)
	if err != nil {
		return nil, err
	}

	path := "/db/v1/find/n"
	if qparam != "" {
		path += "?props=" + url.QueryEscape(qparam)
	}

	err = hc.request("GET", path, nil, &res)

	return res.Nodes, err
}

/*
EdgesByProperties returns all edges matching a property query.
*/
func (hc *HTTPClient) EdgesByProperties(query data.Properties) ([]*data.Edge, error) {
	var res struct {
		Edges []*data.Edge `json:"edges"`
	}

	qparam, err := propsParam(query)
	if err != nil {
		return nil, err
	}

	path := "/db/v1/find/e"
	if qparam != "" {
		path += "?props=" + url.QueryEscape(qparam)
	}

	err = hc.request("GET", path, nil, &res)

	return res.Edges, err
}

/*
FindNeighbours runs a bounded-depth neighbourhood traversal on the remote
engine.
*/
func (hc *HTTPClient) FindNeighbours(startID uint32, hops int, queryID string,
	nodeFilter data.Properties, edgeFilter data.Properties) ([]*data.Node, []graph.RemoteRef, error) {

	var res struct {
		Neighbours []*data.Node `json:"neighbours"`
		Remote     []struct {
			ID   string `json:"id"`
			Hops int    `json:"hops"`
		} `json:"remote"`
	}

	params := url.Values{}
	params.Set("node_id", fmt.Sprint(startID))
	params.Set("hops", fmt.Sprint(hops))
	params.Set("query_id", queryID)

	nparam, err := propsParam(nodeFilter)
	if err != nil {
		return nil, nil, err
	}
	if nparam != "" {
		params.Set("node_props", nparam)
	}

	eparam, err := propsParam(edgeFilter)
	if err != nil {
		return nil, nil, err
	}
	if eparam != "" {
		params.Set("edge_props", eparam)
	}

	err = hc.request("GET", "/db/v1/find/neighbours?"+params.Encode(), nil, &res)
	if err != nil {
		return nil, nil, err
	}

	remote := make([]graph.RemoteRef, 0, len(res.Remote))
	for _, ref := range res.Remote {
		remote = append(remote, graph.RemoteRef{ExtID: ref.ID, Hops: ref.Hops})
	}

	return res.Neighbours, remote, nil
}

/*
FinishQuery drops the traversal state of a given query id on the remote
engine.
*/
func (hc *HTTPClient) FinishQuery(queryID string) error {
	params := url.Values{}
	params.Set("query_id", queryID)

	return hc.request("DELETE", "/db/v1/find/neighbours?"+params.Encode(), nil, nil)
}
