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
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
)

/*
Node is a node record with an external id.
*/
type Node struct {
	ID    string          `json:"id"`    // External id of the node
	Props data.Properties `json:"props"` // Properties of the node
}

/*
Edge is an edge record with external ids.
*/
type Edge struct {
	ID     string          `json:"id"`    // External id of the edge
	FromID string          `json:"from"`  // External id of the source node
	ToID   string          `json:"to"`    // External id of the destination node
	Props  data.Properties `json:"props"` // Properties of the edge
}

/*
Router routes graph operations to an ordered list of storage shards.
*/
type Router struct {
	clients   []Client    // Shard clients (index is the shard id)
	placeLock *sync.Mutex // Mutex for the placement counter
	place     int         // Round-robin placement counter
}

/*
NewRouter creates a new shard router for a given ordered list of shard
clients. The shard list is static for the lifetime of the router.
*/
func NewRouter(clients []Client) (*Router, error) {
	if len(clients) == 0 {
		return nil, &Error{Type: ErrUnknownShard, Detail: "Router needs at least one shard"}
	}

	return &Router{clients, &sync.Mutex{}, 0}, nil
}

/*
NewHTTPRouter creates a shard router over a list of remote engine endpoints
(e.g. the ShardEndpoints config option of an embedding host). The order of
the endpoints defines the shard ids and must be the same for all routers of
a cluster.
*/
func NewHTTPRouter(endpoints []string, timeout time.Duration) (*Router, error) {
	clients := make([]Client, 0, len(endpoints))

	for _, endpoint := range endpoints {
		clients = append(clients, NewHTTPClient(endpoint, timeout))
	}

	return NewRouter(clients)
}

/*
ShardCount returns the number of shards of this router.
*/
func (r *Router) ShardCount() int {
	return len(r.clients)
}

/*
placeShard returns the shard for a new entity. Successive creations are
spread round-robin over all shards.
*/
func (r *Router) placeShard() int {
	r.placeLock.Lock()
	defer r.placeLock.Unlock()

	shard := r.place
	r.place = (r.place + 1) % len(r.clients)

	return shard
}

// External ids
// ============

/*
formatExtID renders the external id of an entity.
*/
func formatExtID(shard int, id uint32) string {
	return fmt.Sprintf("%v:%v", shard, id)
}

/*
parseExtID parses an external id into shard and local id.
*/
func (r *Router) parseExtID(extID string) (int, uint32, error) {
	invalid := func() error {
		return &Error{Type: ErrInvalidID, Detail: extID}
	}

	parts := strings.SplitN(extID, ":", 2)
	if len(parts) != 2 {
		return 0, 0, invalid()
	}

	shard, err := strconv.Atoi(parts[0])
	if err != nil || shard < 0 {
		return 0, 0, invalid()
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || id == 0 {
		return 0, 0, invalid()
	}

	if shard >= len(r.clients) {
		return 0, 0, &Error{Type: ErrUnknownShard, Detail: extID}
	}

	return shard, uint32(id), nil
}

// Node operations
// ===============

/*
CreateNode stores a new node on one of the shards and returns its external
id.
*/
func (r *Router) CreateNode(props data.Properties) (string, error) {
	shard := r.placeShard()

	id, err := r.clients[shard].CreateNode(props)
	if err != nil {
		return "", err
	}

	return formatExtID(shard, id), nil
}

/*
FetchNode fetches a single node by its external id.
*/
func (r *Router) FetchNode(extID string) (*Node, error) {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return nil, err
	}

	node, err := r.clients[shard].FetchNode(id)
	if err != nil {
		return nil, err
	}

	return &Node{formatExtID(shard, id), stripInternalProps(node.Props)}, nil
}

/*
UpdateNode replaces the properties of a node.
*/
func (r *Router) UpdateNode(extID string, props data.Properties) error {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return err
	}

	return r.clients[shard].UpdateNode(id, props)
}

/*
RemoveNode removes a node and all edges attached to it. Edges to other
shards are removed on both sides.
*/
func (r *Router) RemoveNode(extID string) error {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return err
	}

	// Remove all attached edges through the router first so cross-shard
	// halves and proxy nodes are cleaned up as well

	for _, dir := range []func(uint32, data.Properties) ([]*data.Edge, error){
		r.clients[shard].EdgesFrom, r.clients[shard].EdgesTo} {

		edges, err := dir(id, nil)

		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		for _, edge := range edges {
			if err := r.RemoveEdge(formatExtID(shard, edge.ID)); err != nil && !isNotFound(err) {
				return err
			}
		}
	}

	return r.clients[shard].RemoveNode(id)
}

/*
NodesByProperties returns all nodes on all shards whose property list is a
superset of a given query list.
*/
func (r *Router) NodesByProperties(query data.Properties) ([]*Node, error) {
	results := make([][]*Node, len(r.clients))

	var eg errgroup.Group

	for i, client := range r.clients {
		i, client := i, client

		eg.Go(func() error {
			nodes, err := client.NodesByProperties(query)
			if err != nil {
				return err
			}

			for _, node := range nodes {
				if isProxy(node) {
					continue
				}
				results[i] = append(results[i],
					&Node{formatExtID(i, node.ID), stripInternalProps(node.Props)})
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []*Node
	for _, nodes := range results {
		merged = append(merged, nodes...)
	}

	return merged, nil
}

/*
EdgesByProperties returns all edges on all shards whose property list is a
superset of a given query list. Cross-shard edges appear once with their
canonical external id.
*/
func (r *Router) EdgesByProperties(query data.Properties) ([]*Edge, error) {
	results := make([][]*Edge, len(r.clients))

	var eg errgroup.Group

	for i, client := range r.clients {
		i, client := i, client

		eg.Go(func() error {
			edges, err := client.EdgesByProperties(query)
			if err != nil {
				return err
			}

			for _, edge := range edges {
				ext, err := r.buildExtEdge(i, edge)
				if err != nil {
					return err
				}
				if ext != nil {
					results[i] = append(results[i], ext)
				}
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []*Edge
	seen := make(map[string]bool)

	for _, edges := range results {
		for _, edge := range edges {
			if !seen[edge.ID] {
				seen[edge.ID] = true
				merged = append(merged, edge)
			}
		}
	}

	return merged, nil
}

// Internal helper functions
// =========================

/*
isProxy checks if a node is a proxy for a remote node.
*/
func isProxy(node *data.Node) bool {
	v, ok := node.Props.Get(graph.PropRemoteNode)
	b, isBool := v.(bool)

	return ok && isBool && b
}

/*
stripInternalProps removes internal properties from a property list.
*/
func stripInternalProps(props data.Properties) data.Properties {
	res := make(data.Properties, 0, len(props))

	for _, p := range props {
		if p.Key == graph.PropRemoteNode || p.Key == graph.PropRemoteNodeID ||
			p.Key == graph.PropRemoteEdgeID {
			continue
		}
		res = append(res, p)
	}

	return res
}

/*
isNotFound checks if a given error is a not found error.
*/
func isNotFound(err error) bool {
	return util.IsNotFound(err)
}
