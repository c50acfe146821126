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
Package graph contains the main API to the graph database.

Manager API

The main API is provided by a Manager object which can be created with the
NewGraphManager() constructor function. The manager provides CRUD
functionality for nodes and edges, property queries and the bounded-depth
neighbourhood traversal.

Traversal state

A neighbourhood traversal is identified by a query id. The visited set of a
traversal is kept per query id so repeated calls which belong to the same
logical traversal (e.g. a cross-shard fan-out) share their deduplication.
Query states are evicted after a TTL or when FinishQuery is called.

Proxy nodes

A proxy node is a local stand-in for a node which lives in another storage.
It is marked by the remote node properties and is never part of a user
visible traversal result - traversals report proxies as remote references
so a router can continue on the owning storage.

Events

Listeners can subscribe to graph events (node/edge created, updated,
deleted) with the Subscribe() function. Events are delivered best-effort -
a subscriber which does not keep up misses events.
*/
package graph

/*
Graph events
*/
const (
	EventNodeCreated = 0x01
	EventNodeUpdated = 0x02
	EventNodeDeleted = 0x03
	EventEdgeCreated = 0x04
	EventEdgeUpdated = 0x05
	EventEdgeDeleted = 0x06
)

/*
Property keys which mark a proxy node for a remote endpoint. The remote id
property holds the external id of the true node.
*/
const (
	PropRemoteNode   = "remote_node"
	PropRemoteNodeID = "remote_node_id"
)

/*
PropRemoteEdgeID marks an edge which is one half of a cross-storage edge.
The property holds the external id of the partner edge on the other storage.
*/
const PropRemoteEdgeID = "remote_edge_id"

/*
DefaultQueryTTL is the default time in seconds after which an abandoned
traversal query state is evicted.
*/
const DefaultQueryTTL = 120

/*
MaxQueryStates is the maximum number of concurrently tracked traversal
query states.
*/
const MaxQueryStates = 1000
