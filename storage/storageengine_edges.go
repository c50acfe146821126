/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"fmt"

	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
)

/*
edgeRecord is the decoded fixed size edge record.
*/
type edgeRecord struct {
	fromNID   uint32 // Source node id (0 if the edge is deleted)
	toNID     uint32 // Destination node id
	prev1     uint32 // Previous edge sharing the source node
	next1     uint32 // Next edge sharing the source node
	prev2     uint32 // Previous edge sharing the destination node
	next2     uint32 // Next edge sharing the destination node
	propsAddr uint32 // Address of the property record (0 if no properties)
}

/*
CreateEdge stores a new edge between two existing nodes and returns its id.
The new edge becomes the head of the adjacency lists of both endpoints.
*/
func (dse *DiskStorageEngine) CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error) {

	// Both endpoints must exist

	if _, err := dse.nodeAddr(fromID); err != nil {
		return 0, err
	}
	if _, err := dse.nodeAddr(toID); err != nil {
		return 0, err
	}

	propsAddr := uint32(0)

	if len(props) > 0 {
		var err error

		if propsAddr, err = dse.appendPropertyRecord(props); err != nil {
			return 0, err
		}
	}

	id := uint32(dse.curEdgeID)

	fromSlot := nodeSlotOffset(fromID)
	toSlot := nodeSlotOffset(toID)

	// The current list heads become the next pointers of the new edge. The
	// edge_from and edge_to fields are separate words so a self-loop simply
	// reads both of them.

	oldFrom, err := dse.nodeids.ReadUInt32(fromSlot + slotOffEdgeFrom)
	if err != nil {
		return 0, dse.accessError("node ids", err)
	}

	oldTo, err := dse.nodeids.ReadUInt32(toSlot + slotOffEdgeTo)
	if err != nil {
		return 0, dse.accessError("node ids", err)
	}

	rec := make([]byte, 0, EdgeRecordSize)
	rec = appendUInt32(rec, fromID)
	rec = appendUInt32(rec, toID)
	rec = appendUInt32(rec, data.EdgeIDNone) // prev_1 - the new edge is the head
	rec = appendUInt32(rec, oldFrom)
	rec = appendUInt32(rec, data.EdgeIDNone) // prev_2
	rec = appendUInt32(rec, oldTo)
	rec = appendUInt32(rec, propsAddr)

	if err := dse.edges.WriteBytes(edgeRecordOffset(id), rec); err != nil {
		return 0, dse.accessError("edges", err)
	}

	// Link the new edge in as the head of both lists - a failure from here
	// on leaves the lists in a suspect state

	if oldFrom != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(oldFrom)+edgeOffPrev1, id); err != nil {
			return 0, dse.corruptionError("edges", err)
		}
	}

	if err := dse.nodeids.WriteUInt32(fromSlot+slotOffEdgeFrom, id); err != nil {
		return 0, dse.corruptionError("node ids", err)
	}

	if oldTo != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(oldTo)+edgeOffPrev2, id); err != nil {
			return 0, dse.corruptionError("edges", err)
		}
	}

	if err := dse.nodeids.WriteUInt32(toSlot+slotOffEdgeTo, id); err != nil {
		return 0, dse.corruptionError("node ids", err)
	}

	if err := dse.writeEdgeIDHeader(dse.curEdgeID + 1); err != nil {
		return 0, err
	}

	return id, nil
}

/*
FetchEdge retrieves an edge by its id. The endpoint node records are inlined
on request.
*/
func (dse *DiskStorageEngine) FetchEdge(id uint32, inlineFrom bool, inlineTo bool) (*data.Edge, error) {
	rec, err := dse.edgeRecord(id)
	if err != nil {
		return nil, err
	}

	props := data.Properties{}

	if rec.propsAddr != 0 {
		if props, err = dse.readPropertyRecord(rec.propsAddr); err != nil {
			return nil, err
		}
	}

	edge := &data.Edge{ID: id, FromID: rec.fromNID, ToID: rec.toNID, Props: props}

	if inlineFrom {
		if edge.From, err = dse.FetchNode(rec.fromNID); err != nil {
			return nil, err
		}
	}

	if inlineTo {
		if edge.To, err = dse.FetchNode(rec.toNID); err != nil {
			return nil, err
		}
	}

	return edge, nil
}

/*
UpdateEdge replaces the properties of an edge. A new property record is
appended and the edge record is repointed.
*/
func (dse *DiskStorageEngine) UpdateEdge(id uint32, props data.Properties) error {
	if _, err := dse.edgeRecord(id); err != nil {
		return err
	}

	propsAddr := uint32(0)

	if len(props) > 0 {
		var err error

		if propsAddr, err = dse.appendPropertyRecord(props); err != nil {
			return err
		}
	}

	if err := dse.edges.WriteUInt32(edgeRecordOffset(id)+edgeOffPropsAddr, propsAddr); err != nil {
		return dse.accessError("edges", err)
	}

	return nil
}

/*
RemoveEdge removes an edge. The edge is unlinked from the adjacency lists of
both endpoints and its record is tombstoned. Removing a removed or unknown
edge is not an error.
*/
func (dse *DiskStorageEngine) RemoveEdge(id uint32) error {
	if !dse.validEdgeID(id) {
		return nil
	}

	rec, err := dse.readEdgeRecord(id)
	if err != nil {
		return err
	}

	if rec.fromNID == data.NodeIDNone {
		return nil
	}

	// Unlink from the source side list

	if rec.prev1 != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(rec.prev1)+edgeOffNext1, rec.next1); err != nil {
			return dse.corruptionError("edges", err)
		}
	} else {
		if err := dse.nodeids.WriteUInt32(nodeSlotOffset(rec.fromNID)+slotOffEdgeFrom, rec.next1); err != nil {
			return dse.corruptionError("node ids", err)
		}
	}

	if rec.next1 != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(rec.next1)+edgeOffPrev1, rec.prev1); err != nil {
			return dse.corruptionError("edges", err)
		}
	}

	// Unlink from the destination side list

	if rec.prev2 != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(rec.prev2)+edgeOffNext2, rec.next2); err != nil {
			return dse.corruptionError("edges", err)
		}
	} else {
		if err := dse.nodeids.WriteUInt32(nodeSlotOffset(rec.toNID)+slotOffEdgeTo, rec.next2); err != nil {
			return dse.corruptionError("node ids", err)
		}
	}

	if rec.next2 != data.EdgeIDNone {
		if err := dse.edges.WriteUInt32(edgeRecordOffset(rec.next2)+edgeOffPrev2, rec.prev2); err != nil {
			return dse.corruptionError("edges", err)
		}
	}

	// Tombstone the edge record

	if err := dse.edges.WriteUInt32(edgeRecordOffset(id)+edgeOffFromNID, data.NodeIDNone); err != nil {
		return dse.corruptionError("edges", err)
	}

	return nil
}

/*
EdgesFrom returns a cursor over the ids of all edges starting at a given
node, newest first.
*/
func (dse *DiskStorageEngine) EdgesFrom(nodeID uint32) (*IDCursor, error) {
	return dse.adjacencyCursor(nodeID, slotOffEdgeFrom, edgeOffNext1)
}

/*
EdgesTo returns a cursor over the ids of all edges ending at a given node,
newest first.
*/
func (dse *DiskStorageEngine) EdgesTo(nodeID uint32) (*IDCursor, error) {
	return dse.adjacencyCursor(nodeID, slotOffEdgeTo, edgeOffNext2)
}

/*
adjacencyCursor creates a cursor which walks an adjacency list from the slot
head of a given node following a next pointer field.
*/
func (dse *DiskStorageEngine) adjacencyCursor(nodeID uint32, headOff uint64, nextOff uint64) (*IDCursor, error) {
	if _, err := dse.nodeAddr(nodeID); err != nil {
		return nil, err
	}

	head, err := dse.nodeids.ReadUInt32(nodeSlotOffset(nodeID) + headOff)
	if err != nil {
		return nil, dse.accessError("node ids", err)
	}

	fetch := func(cur uint32) (uint32, error) {
		if cur == data.EdgeIDNone {
			return head, nil
		}

		next, err := dse.edges.ReadUInt32(edgeRecordOffset(cur) + nextOff)
		if err != nil {
			return 0, dse.accessError("edges", err)
		}
		return next, nil
	}

	return newIDCursor(fetch), nil
}

/*
EdgeIDs returns a cursor over all live edge ids.
*/
func (dse *DiskStorageEngine) EdgeIDs() *IDCursor {
	fetch := func(cur uint32) (uint32, error) {
		for id := cur + 1; id < uint32(dse.curEdgeID); id++ {
			fromNID, err := dse.edges.ReadUInt32(edgeRecordOffset(id) + edgeOffFromNID)
			if err != nil {
				return 0, dse.accessError("edges", err)
			}
			if fromNID != data.NodeIDNone {
				return id, nil
			}
		}
		return 0, nil
	}

	return newIDCursor(fetch)
}

// Internal helper functions
// =========================

/*
validEdgeID checks if a given edge id is in the allocated id range.
*/
func (dse *DiskStorageEngine) validEdgeID(id uint32) bool {
	return id != data.EdgeIDNone && id < uint32(dse.curEdgeID)
}

/*
readEdgeRecord reads the fixed size record of a given edge.
*/
func (dse *DiskStorageEngine) readEdgeRecord(id uint32) (*edgeRecord, error) {
	buf, err := dse.edges.ReadBytes(edgeRecordOffset(id), EdgeRecordSize)
	if err != nil {
		return nil, dse.accessError("edges", err)
	}

	readWord := func(off int) uint32 {
		return (uint32(buf[off+0]) << 24) |
			(uint32(buf[off+1]) << 16) |
			(uint32(buf[off+2]) << 8) |
			(uint32(buf[off+3]) << 0)
	}

	return &edgeRecord{
		fromNID:   readWord(edgeOffFromNID),
		toNID:     readWord(edgeOffToNID),
		prev1:     readWord(edgeOffPrev1),
		next1:     readWord(edgeOffNext1),
		prev2:     readWord(edgeOffPrev2),
		next2:     readWord(edgeOffNext2),
		propsAddr: readWord(edgeOffPropsAddr),
	}, nil
}

/*
edgeRecord reads the record of a given edge. A not found error is returned
for unknown or removed edges.
*/
func (dse *DiskStorageEngine) edgeRecord(id uint32) (*edgeRecord, error) {
	if !dse.validEdgeID(id) {
		return nil, &util.GraphError{
			Type:   util.ErrNotFound,
			Detail: fmt.Sprintf("Unknown edge id: %v", id),
		}
	}

	rec, err := dse.readEdgeRecord(id)
	if err != nil {
		return nil, err
	}

	if rec.fromNID == data.NodeIDNone {
		return nil, &util.GraphError{
			Type:   util.ErrNotFound,
			Detail: fmt.Sprintf("Edge %v was removed", id),
		}
	}

	return rec, nil
}
