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
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
findTask is a single traversal continuation on one shard.
*/
type findTask struct {
	shard int    // Shard to traverse on
	id    uint32 // Local id of the start node
	hops  int    // Remaining hop budget
}

/*
findOutcome is the result of a single traversal continuation.
*/
type findOutcome struct {
	shard  int               // Shard the traversal ran on
	nodes  []*data.Node      // Found neighbour nodes
	remote []graph.RemoteRef // References to nodes on other shards
}

/*
FindNeighbours returns all nodes which can be reached from a start node
within a given number of hops. The traversal crosses shard boundaries by
following proxy nodes to the owning shard. The result is merged and
deduplicated by external id, proxy nodes are never part of the result.
*/
func (r *Router) FindNeighbours(startExtID string, hops int,
	nodeFilter data.Properties, edgeFilter data.Properties) ([]*Node, error) {

	shard, id, err := r.parseExtID(startExtID)
	if err != nil {
		return nil, err
	}

	// All shard engines share the same fresh query id so their visited sets
	// belong to this one logical traversal

	queryID := uuid.New().String()

	defer func() {
		for _, client := range r.clients {
			client.FinishQuery(queryID)
		}
	}()

	visited := map[string]bool{startExtID: true}

	var res []*Node

	pending := []findTask{{shard, id, hops}}
	firstRound := true

	for len(pending) > 0 {
		outcomes := make([]*findOutcome, len(pending))

		var eg errgroup.Group

		for i, task := range pending {
			i, task := i, task
			tolerateMissing := !firstRound

			eg.Go(func() error {
				nodes, remote, err := r.clients[task.shard].FindNeighbours(
					task.id, task.hops, queryID, nodeFilter, edgeFilter)

				if err != nil {
					if tolerateMissing && isNotFound(err) {

						// The continuation node disappeared - skip it

						return nil
					}
					return err
				}

				outcomes[i] = &findOutcome{task.shard, nodes, remote}

				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			return nil, err
		}

		var next []findTask

		for _, outcome := range outcomes {
			if outcome == nil {
				continue
			}

			for _, node := range outcome.nodes {
				extID := formatExtID(outcome.shard, node.ID)

				if !visited[extID] {
					visited[extID] = true
					res = append(res, &Node{extID, stripInternalProps(node.Props)})
				}
			}

			// Follow remote references to the owning shard

			for _, ref := range outcome.remote {
				if visited[ref.ExtID] {
					continue
				}

				rshard, rid, err := r.parseExtID(ref.ExtID)
				if err != nil {
					LogDebug("Ignoring invalid remote reference: ", ref.ExtID)
					continue
				}

				node, err := r.clients[rshard].FetchNode(rid)
				if err != nil {
					if isNotFound(err) {
						visited[ref.ExtID] = true
						continue
					}
					return nil, err
				}

				visited[ref.ExtID] = true

				if len(nodeFilter) > 0 && !node.Props.Matches(nodeFilter) {
					continue
				}

				res = append(res, &Node{ref.ExtID, stripInternalProps(node.Props)})

				if ref.Hops > 0 {
					next = append(next, findTask{rshard, rid, ref.Hops})
				}
			}
		}

		pending = next
		firstRound = false
	}

	return res, nil
}
