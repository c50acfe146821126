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
	"devt.de/krotik/shardgraph/storage/file"
)

/*
Engine models the storage backend for a graph manager.
*/
type Engine interface {

	/*
		Name returns the name of the storage engine.
	*/
	Name() string

	/*
		CreateNode stores a new node with the given properties and returns
		its id.
	*/
	CreateNode(props data.Properties) (uint32, error)

	/*
		FetchNode retrieves a node by its id.
	*/
	FetchNode(id uint32) (*data.Node, error)

	/*
		UpdateNode replaces the properties of a node. The node id is
		preserved - a new property record is appended and the node slot is
		repointed.
	*/
	UpdateNode(id uint32, props data.Properties) error

	/*
		RemoveNode removes a node and all edges attached to it. Removing a
		removed or unknown node is not an error.
	*/
	RemoveNode(id uint32) error

	/*
		CreateEdge stores a new edge between two existing nodes and returns
		its id.
	*/
	CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error)

	/*
		FetchEdge retrieves an edge by its id. The endpoint node records are
		inlined on request.
	*/
	FetchEdge(id uint32, inlineFrom bool, inlineTo bool) (*data.Edge, error)

	/*
		UpdateEdge replaces the properties of an edge.
	*/
	UpdateEdge(id uint32, props data.Properties) error

	/*
		RemoveEdge removes an edge. Removing a removed or unknown edge is
		not an error.
	*/
	RemoveEdge(id uint32) error

	/*
		EdgesFrom returns a cursor over the ids of all edges starting at a
		given node, newest first.
	*/
	EdgesFrom(nodeID uint32) (*IDCursor, error)

	/*
		EdgesTo returns a cursor over the ids of all edges ending at a given
		node, newest first.
	*/
	EdgesTo(nodeID uint32) (*IDCursor, error)

	/*
		NodeIDs returns a cursor over all live node ids.
	*/
	NodeIDs() *IDCursor

	/*
		EdgeIDs returns a cursor over all live edge ids.
	*/
	EdgeIDs() *IDCursor

	/*
		Flush writes all pending changes to disk.
	*/
	Flush() error

	/*
		Close flushes and closes the storage engine.
	*/
	Close() error
}

/*
DiskStorageEngine data structure
*/
type DiskStorageEngine struct {
	name    string            // Name of the storage engine (file stem)
	props   *file.StorageFile // Properties file
	nodeids *file.StorageFile // Node id file
	edges   *file.StorageFile // Edge file

	curNodeAddr uint32 // Next free write position in the properties file
	curNodeID   int32  // Next free node id
	curEdgeID   int32  // Next free edge id
}

/*
NewDiskStorageEngine creates a new disk storage engine or opens an existing
one. The name is used as the common stem of the three storage files.
*/
func NewDiskStorageEngine(name string) (*DiskStorageEngine, error) {
	dse := &DiskStorageEngine{name: name}

	open := func(suffix string, seed func(sf *file.StorageFile) error) (*file.StorageFile, error) {
		sf, created, err := file.NewStorageFile(name + suffix)
		if err != nil {
			return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
		}

		if created {
			if err := seed(sf); err != nil {
				sf.Close()
				return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
			}
		}

		return sf, nil
	}

	var err error

	if dse.props, err = open(SuffixProperties, func(sf *file.StorageFile) error {
		return sf.WriteUInt32(0, InitialNodeAddr)
	}); err != nil {
		return nil, err
	}

	if dse.nodeids, err = open(SuffixNodeIDs, func(sf *file.StorageFile) error {
		return sf.WriteInt32(0, InitialNodeID)
	}); err != nil {
		dse.props.Close()
		return nil, err
	}

	if dse.edges, err = open(SuffixEdges, func(sf *file.StorageFile) error {
		return sf.WriteInt32(0, InitialEdgeID)
	}); err != nil {
		dse.props.Close()
		dse.nodeids.Close()
		return nil, err
	}

	// Load and validate the header counters

	if err := dse.loadHeaders(); err != nil {
		dse.props.Close()
		dse.nodeids.Close()
		dse.edges.Close()
		return nil, err
	}

	return dse, nil
}

/*
loadHeaders reads the three header counters and checks them for plausibility.
*/
func (dse *DiskStorageEngine) loadHeaders() error {
	var err error

	if dse.curNodeAddr, err = dse.props.ReadUInt32(0); err != nil {
		return dse.corruptionError("properties header", err)
	}

	if dse.curNodeID, err = dse.nodeids.ReadInt32(0); err != nil {
		return dse.corruptionError("node id header", err)
	}

	if dse.curEdgeID, err = dse.edges.ReadInt32(0); err != nil {
		return dse.corruptionError("edge header", err)
	}

	if dse.curNodeAddr < InitialNodeAddr || dse.curNodeID < InitialNodeID ||
		dse.curEdgeID < InitialEdgeID {

		return &util.GraphError{
			Type: util.ErrCorruption,
			Detail: fmt.Sprintf("Implausible header counters: addr=%v nid=%v eid=%v",
				dse.curNodeAddr, dse.curNodeID, dse.curEdgeID),
		}
	}

	return nil
}

/*
Name returns the name of the storage engine.
*/
func (dse *DiskStorageEngine) Name() string {
	return dse.name
}

/*
CreateNode stores a new node with the given properties and returns its id.
*/
func (dse *DiskStorageEngine) CreateNode(props data.Properties) (uint32, error) {
	rec, err := data.EncodeRecord(props)
	if err != nil {
		return 0, err
	}

	id := uint32(dse.curNodeID)
	addr := dse.curNodeAddr

	if err := dse.props.WriteBytes(uint64(addr), rec); err != nil {
		return 0, dse.accessError("properties", err)
	}

	// Write the new node slot

	slot := make([]byte, 0, NodeSlotSize)
	slot = appendUInt32(slot, addr)
	slot = appendUInt32(slot, data.EdgeIDNone)
	slot = appendUInt32(slot, data.EdgeIDNone)

	if err := dse.nodeids.WriteBytes(nodeSlotOffset(id), slot); err != nil {
		return 0, dse.accessError("node ids", err)
	}

	// Advance the counters - the node becomes visible only now

	if err := dse.writeNodeAddrHeader(addr + uint32(len(rec))); err != nil {
		return 0, err
	}

	if err := dse.writeNodeIDHeader(dse.curNodeID + 1); err != nil {
		return 0, err
	}

	return id, nil
}

/*
FetchNode retrieves a node by its id.
*/
func (dse *DiskStorageEngine) FetchNode(id uint32) (*data.Node, error) {
	addr, err := dse.nodeAddr(id)
	if err != nil {
		return nil, err
	}

	props, err := dse.readPropertyRecord(addr)
	if err != nil {
		return nil, err
	}

	return &data.Node{ID: id, Props: props}, nil
}

/*
UpdateNode replaces the properties of a node. A new property record is always
appended - the old record becomes garbage. The node id is preserved.
*/
func (dse *DiskStorageEngine) UpdateNode(id uint32, props data.Properties) error {
	if _, err := dse.nodeAddr(id); err != nil {
		return err
	}

	addr, err := dse.appendPropertyRecord(props)
	if err != nil {
		return err
	}

	if err := dse.nodeids.WriteUInt32(nodeSlotOffset(id)+slotOffAddr, addr); err != nil {
		return dse.accessError("node ids", err)
	}

	return nil
}

/*
RemoveNode removes a node and all edges attached to it. Removing a removed
or unknown node is not an error.
*/
func (dse *DiskStorageEngine) RemoveNode(id uint32) error {
	if !dse.validNodeID(id) {
		return nil
	}

	slotOff := nodeSlotOffset(id)

	addr, err := dse.nodeids.ReadUInt32(slotOff + slotOffAddr)
	if err != nil {
		return dse.accessError("node ids", err)
	} else if addr == 0 {
		return nil
	}

	// Remove all outgoing and then all incoming edges - the removal relinks
	// the slot head so the list is re-read from the slot on every step

	for _, headOff := range []uint64{slotOffEdgeFrom, slotOffEdgeTo} {
		last := data.EdgeIDNone

		for {
			eid, err := dse.nodeids.ReadUInt32(slotOff + headOff)
			if err != nil {
				return dse.accessError("node ids", err)
			} else if eid == data.EdgeIDNone {
				break
			}

			if eid == last {
				return &util.GraphError{
					Type:   util.ErrCorruption,
					Detail: fmt.Sprintf("Edge %v is not unlinking from node %v", eid, id),
				}
			}
			last = eid

			if err := dse.RemoveEdge(eid); err != nil {
				return err
			}
		}
	}

	// Tombstone the node slot

	slot := make([]byte, NodeSlotSize)

	if err := dse.nodeids.WriteBytes(slotOff, slot); err != nil {
		return dse.corruptionError("node ids", err)
	}

	return nil
}

/*
NodeIDs returns a cursor over all live node ids.
*/
func (dse *DiskStorageEngine) NodeIDs() *IDCursor {
	fetch := func(cur uint32) (uint32, error) {
		for id := cur + 1; id < uint32(dse.curNodeID); id++ {
			addr, err := dse.nodeids.ReadUInt32(nodeSlotOffset(id) + slotOffAddr)
			if err != nil {
				return 0, dse.accessError("node ids", err)
			}
			if addr != 0 {
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
validNodeID checks if a given node id is in the allocated id range.
*/
func (dse *DiskStorageEngine) validNodeID(id uint32) bool {
	return id != data.NodeIDNone && id < uint32(dse.curNodeID)
}

/*
nodeAddr returns the property record address of a given node. A not found
error is returned for unknown or removed nodes.
*/
func (dse *DiskStorageEngine) nodeAddr(id uint32) (uint32, error) {
	if !dse.validNodeID(id) {
		return 0, &util.GraphError{
			Type:   util.ErrNotFound,
			Detail: fmt.Sprintf("Unknown node id: %v", id),
		}
	}

	addr, err := dse.nodeids.ReadUInt32(nodeSlotOffset(id) + slotOffAddr)
	if err != nil {
		return 0, dse.accessError("node ids", err)
	}

	if addr == 0 {
		return 0, &util.GraphError{
			Type:   util.ErrNotFound,
			Detail: fmt.Sprintf("Node %v was removed", id),
		}
	}

	return addr, nil
}

/*
appendPropertyRecord appends a framed property record to the properties file
and advances the write position. The record address is returned.
*/
func (dse *DiskStorageEngine) appendPropertyRecord(props data.Properties) (uint32, error) {
	rec, err := data.EncodeRecord(props)
	if err != nil {
		return 0, err
	}

	addr := dse.curNodeAddr

	if err := dse.props.WriteBytes(uint64(addr), rec); err != nil {
		return 0, dse.accessError("properties", err)
	}

	if err := dse.writeNodeAddrHeader(addr + uint32(len(rec))); err != nil {
		return 0, err
	}

	return addr, nil
}

/*
readPropertyRecord reads and decodes a framed property record at a given
address in the properties file.
*/
func (dse *DiskStorageEngine) readPropertyRecord(addr uint32) (data.Properties, error) {
	if addr < InitialNodeAddr || addr >= dse.curNodeAddr {
		return nil, &util.GraphError{
			Type:   util.ErrCorruption,
			Detail: fmt.Sprintf("Property record address %v outside of written area", addr),
		}
	}

	recLen, err := dse.props.ReadUInt32(uint64(addr))
	if err != nil {
		return nil, dse.corruptionError("properties", err)
	}

	if recLen < 2*file.SizeUnsignedInt || addr+recLen > dse.curNodeAddr {
		return nil, &util.GraphError{
			Type:   util.ErrCorruption,
			Detail: fmt.Sprintf("Implausible property record length %v at address %v", recLen, addr),
		}
	}

	rec, err := dse.props.ReadBytes(uint64(addr), int(recLen))
	if err != nil {
		return nil, dse.corruptionError("properties", err)
	}

	return data.DecodeRecord(rec)
}

/*
writeNodeAddrHeader updates the properties file header (write-through).
*/
func (dse *DiskStorageEngine) writeNodeAddrHeader(addr uint32) error {
	if err := dse.props.WriteUInt32(0, addr); err != nil {
		return dse.corruptionError("properties header", err)
	}
	dse.curNodeAddr = addr
	return nil
}

/*
writeNodeIDHeader updates the node id file header (write-through).
*/
func (dse *DiskStorageEngine) writeNodeIDHeader(id int32) error {
	if err := dse.nodeids.WriteInt32(0, id); err != nil {
		return dse.corruptionError("node id header", err)
	}
	dse.curNodeID = id
	return nil
}

/*
writeEdgeIDHeader updates the edge file header (write-through).
*/
func (dse *DiskStorageEngine) writeEdgeIDHeader(id int32) error {
	if err := dse.edges.WriteInt32(0, id); err != nil {
		return dse.corruptionError("edge header", err)
	}
	dse.curEdgeID = id
	return nil
}

/*
accessError wraps a low level error of a storage file access. Short reads
are reported as corruption.
*/
func (dse *DiskStorageEngine) accessError(component string, err error) error {
	if err == file.ErrShortRead {
		return dse.corruptionError(component, err)
	}

	return &util.GraphError{
		Type:   util.ErrAccessComponent,
		Detail: fmt.Sprintf("%v - %v: %v", dse.name, component, err.Error()),
	}
}

/*
corruptionError wraps a low level error which leaves the storage in a
suspect state.
*/
func (dse *DiskStorageEngine) corruptionError(component string, err error) error {
	return &util.GraphError{
		Type:   util.ErrCorruption,
		Detail: fmt.Sprintf("%v - %v: %v", dse.name, component, err.Error()),
	}
}

/*
Flush writes all pending changes to disk.
*/
func (dse *DiskStorageEngine) Flush() error {
	for _, sf := range []*file.StorageFile{dse.props, dse.nodeids, dse.edges} {
		if err := sf.Flush(); err != nil {
			return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
		}
	}
	return nil
}

/*
Close flushes and closes the storage engine.
*/
func (dse *DiskStorageEngine) Close() error {
	var errs []string

	for _, sf := range []*file.StorageFile{dse.props, dse.nodeids, dse.edges} {
		if err := sf.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return &util.GraphError{
			Type:   util.ErrClosing,
			Detail: fmt.Sprintf("%v", errs),
		}
	}

	return nil
}

/*
appendUInt32 appends a 32-bit unsigned integer in big-endian byte order.
*/
func appendUInt32(dest []byte, value uint32) []byte {
	return append(dest,
		byte(value>>24),
		byte(value>>16),
		byte(value>>8),
		byte(value>>0))
}
