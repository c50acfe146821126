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
Package storage contains the disk storage engine of the graph database.

The engine owns three storage files:

Properties file

Starts with cur_node_addr (the next free write position) followed by framed
property records. Each record is rec_len (total byte count including itself),
num_props and the serialized property block. Property records are only ever
appended - replaced records become garbage which is never reclaimed.

Node id file

Starts with cur_node_id (the next free node id) followed by fixed size node
slots of 12 bytes: addr (offset of the node's property record in the
properties file, 0 if the node is deleted), edge_from (head of the outgoing
edge list) and edge_to (head of the incoming edge list). The slot for node id
k is at offset 4 + 12 * (k-1).

Edge file

Starts with cur_eid (the next free edge id) followed by fixed size edge
records of 28 bytes: from_nid (0 if the edge is deleted), to_nid, prev_1,
next_1 (doubly-linked list of edges sharing the source node), prev_2, next_2
(same for the destination node) and props_addr (offset of the edge's property
record, 0 if the edge has no properties). The record for edge id k is at
offset 4 + 28 * (k-1).

All values are stored in big-endian byte order. Ids are dense positive
integers and are never reused - deleted entries are tombstoned in place.
*/
package storage

import "devt.de/krotik/shardgraph/storage/file"

/*
Filename suffixes for the storage files of an engine
*/
const (
	SuffixProperties = ".props"
	SuffixNodeIDs    = ".nodeids"
	SuffixEdges      = ".edges"
)

/*
Header layout constants. Each storage file starts with a single 32 bit
header word.
*/
const (
	HeaderSize = file.SizeUnsignedInt

	InitialNodeAddr = uint32(HeaderSize)
	InitialNodeID   = int32(1)
	InitialEdgeID   = int32(1)
)

/*
Node slot layout constants
*/
const (
	NodeSlotSize = 3 * file.SizeUnsignedInt

	slotOffAddr     = 0
	slotOffEdgeFrom = 1 * file.SizeUnsignedInt
	slotOffEdgeTo   = 2 * file.SizeUnsignedInt
)

/*
Edge record layout constants
*/
const (
	EdgeRecordSize = 7 * file.SizeUnsignedInt

	edgeOffFromNID   = 0
	edgeOffToNID     = 1 * file.SizeUnsignedInt
	edgeOffPrev1     = 2 * file.SizeUnsignedInt
	edgeOffNext1     = 3 * file.SizeUnsignedInt
	edgeOffPrev2     = 4 * file.SizeUnsignedInt
	edgeOffNext2     = 5 * file.SizeUnsignedInt
	edgeOffPropsAddr = 6 * file.SizeUnsignedInt
)

/*
nodeSlotOffset returns the file offset of the slot for a given node id.
*/
func nodeSlotOffset(id uint32) uint64 {
	return uint64(HeaderSize) + uint64(NodeSlotSize)*uint64(id-1)
}

/*
edgeRecordOffset returns the file offset of the record for a given edge id.
*/
func edgeRecordOffset(id uint32) uint64 {
	return uint64(HeaderSize) + uint64(EdgeRecordSize)*uint64(id-1)
}
