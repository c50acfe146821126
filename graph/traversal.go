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
	"fmt"

	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
	"devt.de/krotik/shardgraph/storage"
)

/*
RemoteRef is a reference to a node on another storage which was reached
through a proxy node during a traversal. Hops is the remaining hop budget
after reaching the node.
*/
type RemoteRef struct {
	ExtID string // External id of the remote node
	Hops  int    // Remaining hops of the traversal
}

/*
queryState is the in-memory state of a logical traversal.
*/
type queryState struct {
	visited map[uint32]bool // Already visited node ids
}

/*
FindNeighbours returns all nodes which can be reached from a start node
within a given number of hops. Edges are followed in both directions. The
start node itself is not part of the result, hops=0 yields an empty result.

Non-empty filter lists restrict the traversal: an edge is only followed if
its properties are a superset of edgeFilter, a node is only collected (and
traversed through) if its properties are a superset of nodeFilter.

The visited set of the traversal is shared between all calls with the same
query id until the state is evicted or FinishQuery is called. An empty query
id runs the traversal with a private state. Proxy nodes are not part of the
result - they are reported as remote references so the caller can continue
the traversal on the owning storage.
*/
func (gm *Manager) FindNeighbours(startID uint32, hops int, queryID string,
	nodeFilter data.Properties, edgeFilter data.Properties) ([]*data.Node, []RemoteRef, error) {

	if hops < 0 {
		return nil, nil, &util.GraphError{
			Type:   util.ErrInvalidData,
			Detail: fmt.Sprintf("Negative number of hops: %v", hops),
		}
	}

	// Take the writer lock - traversals mutate their shared query state so
	// concurrent calls with the same query id must be serialized

	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	// The start node must exist

	if _, err := gm.se.FetchNode(startID); err != nil {
		return nil, nil, err
	}

	qs := gm.queryState(queryID)

	// A private state is always dropped again - also when the traversal
	// aborts with an error

	if queryID == "" {
		defer gm.queryStates.Remove(queryID)
	}

	qs.visited[startID] = true

	var nodes []*data.Node
	var remote []RemoteRef

	frontier := []uint32{startID}

	for depth := 1; depth <= hops && len(frontier) > 0; depth++ {
		var next []uint32

		for _, nid := range frontier {

			candidates, err := gm.neighbourCandidates(nid, edgeFilter)
			if err != nil {
				return nil, nil, err
			}

			for _, cid := range candidates {

				if qs.visited[cid] {
					continue
				}

				node, err := gm.se.FetchNode(cid)
				if err != nil {
					if util.IsNotFound(err) {

						// Dangling reference of a concurrent removal

						continue
					}
					return nil, nil, err
				}

				if isProxyNode(node) {
					qs.visited[cid] = true

					extID, _ := node.Props.Get(PropRemoteNodeID)
					if s, ok := extID.(string); ok {
						remote = append(remote, RemoteRef{s, hops - depth})
					}
					continue
				}

				if len(nodeFilter) > 0 && !node.Props.Matches(nodeFilter) {
					continue
				}

				qs.visited[cid] = true
				nodes = append(nodes, node)
				next = append(next, cid)
			}
		}

		frontier = next
	}

	return nodes, remote, nil
}

/*
FinishQuery drops the traversal state of a given query id.
*/
func (gm *Manager) FinishQuery(queryID string) {
	gm.queryStates.Remove(queryID)
}

/*
queryState returns the traversal state for a given query id creating it if
necessary.
*/
func (gm *Manager) queryState(queryID string) *queryState {
	if state, ok := gm.queryStates.Get(queryID); ok {
		return state.(*queryState)
	}

	qs := &queryState{visited: make(map[uint32]bool)}
	gm.queryStates.Put(queryID, qs)

	return qs
}

/*
neighbourCandidates returns the ids of all nodes sharing an edge with a
given node. Edges not matching the filter are skipped. Candidate ids may
contain duplicates and already visited nodes.
*/
func (gm *Manager) neighbourCandidates(nid uint32, edgeFilter data.Properties) ([]uint32, error) {
	var candidates []uint32

	collect := func(it *storage.IDCursor) error {
		for it.HasNext() {
			eid := it.Next()

			edge, err := gm.se.FetchEdge(eid, false, false)
			if err != nil {
				return err
			}

			if len(edgeFilter) > 0 && !edge.Props.Matches(edgeFilter) {
				continue
			}

			if edge.FromID == nid {
				candidates = append(candidates, edge.ToID)
			} else {
				candidates = append(candidates, edge.FromID)
			}
		}

		return it.LastError
	}

	out, err := gm.se.EdgesFrom(nid)
	if err != nil {
		return nil, err
	}
	if err := collect(out); err != nil {
		return nil, err
	}

	in, err := gm.se.EdgesTo(nid)
	if err != nil {
		return nil, err
	}
	if err := collect(in); err != nil {
		return nil, err
	}

	return candidates, nil
}

/*
isProxyNode checks if a given node is a proxy for a node on another storage.
*/
func isProxyNode(node *data.Node) bool {
	v, ok := node.Props.Get(PropRemoteNode)
	b, isBool := v.(bool)

	return ok && isBool && b
}
