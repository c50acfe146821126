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
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
Client models the engine surface of a single shard.
*/
type Client interface {

	/*
		CreateNode stores a new node and returns its local id.
	*/
	CreateNode(props data.Properties) (uint32, error)

	/*
		FetchNode retrieves a node by its local id.
	*/
	FetchNode(id uint32) (*data.Node, error)

	/*
		UpdateNode replaces the properties of a node.
	*/
	UpdateNode(id uint32, props data.Properties) error

	/*
		RemoveNode removes a node and all edges attached to it.
	*/
	RemoveNode(id uint32) error

	/*
		CreateEdge stores a new edge between two nodes of this shard and
		returns its local id.
	*/
	CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error)

	/*
		FetchEdge retrieves an edge by its local id with inlined endpoints.
	*/
	FetchEdge(id uint32) (*data.Edge, error)

	/*
		UpdateEdge replaces the properties of an edge.
	*/
	UpdateEdge(id uint32, props data.Properties) error

	/*
		RemoveEdge removes an edge.
	*/
	RemoveEdge(id uint32) error

	/*
		EdgesFrom returns all edges starting at a given node, newest first.
	*/
	EdgesFrom(nodeID uint32, filter data.Properties) ([]*data.Edge, error)

	/*
		EdgesTo returns all edges ending at a given node, newest first.
	*/
	EdgesTo(nodeID uint32, filter data.Properties) ([]*data.Edge, error)

	/*
		NodesByProperties returns all nodes matching a property query.
	*/
	NodesByProperties(query data.Properties) ([]*data.Node, error)

	/*
		EdgesByProperties returns all edges matching a property query.
	*/
	EdgesByProperties(query data.Properties) ([]*data.Edge, error)

	/*
		FindNeighbours runs a bounded-depth neighbourhood traversal on this
		shard.
	*/
	FindNeighbours(startID uint32, hops int, queryID string,
		nodeFilter data.Properties, edgeFilter data.Properties) ([]*data.Node, []graph.RemoteRef, error)

	/*
		FinishQuery drops the traversal state of a given query id.
	*/
	FinishQuery(queryID string) error
}

/*
localClient is a Client for an in-process graph manager.
*/
type localClient struct {
	gm *graph.Manager
}

/*
NewLocalClient wraps a graph manager as a shard client.
*/
func NewLocalClient(gm *graph.Manager) Client {
	return &localClient{gm}
}

func (lc *localClient) CreateNode(props data.Properties) (uint32, error) {
	return lc.gm.CreateNode(props)
}

func (lc *localClient) FetchNode(id uint32) (*data.Node, error) {
	return lc.gm.FetchNode(id)
}

func (lc *localClient) UpdateNode(id uint32, props data.Properties) error {
	return lc.gm.UpdateNode(id, props)
}

func (lc *localClient) RemoveNode(id uint32) error {
	return lc.gm.RemoveNode(id)
}

func (lc *localClient) CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error) {
	return lc.gm.CreateEdge(fromID, props, toID)
}

func (lc *localClient) FetchEdge(id uint32) (*data.Edge, error) {
	return lc.gm.FetchEdge(id, true, true)
}

func (lc *localClient) UpdateEdge(id uint32, props data.Properties) error {
	return lc.gm.UpdateEdge(id, props)
}

func (lc *localClient) RemoveEdge(id uint32) error {
	return lc.gm.RemoveEdge(id)
}

func (lc *localClient) EdgesFrom(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	return lc.gm.EdgesFrom(nodeID, filter)
}

func (lc *localClient) EdgesTo(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	return lc.gm.EdgesTo(nodeID, filter)
}

func (lc *localClient) NodesByProperties(query data.Properties) ([]*data.Node, error) {
	return lc.gm.NodesByProperties(query)
}

func (lc *localClient) EdgesByProperties(query data.Properties) ([]*data.Edge, error) {
	return lc.gm.EdgesByProperties(query)
}

func (lc *localClient) FindNeighbours(startID uint32, hops int, queryID string,
	nodeFilter data.Properties, edgeFilter data.Properties) ([]*data.Node, []graph.RemoteRef, error) {

	return lc.gm.FindNeighbours(startID, hops, queryID, nodeFilter, edgeFilter)
}

func (lc *localClient) FinishQuery(queryID string) error {
	lc.gm.FinishQuery(queryID)
	return nil
}
