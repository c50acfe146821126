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
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/storage"
)

/*
CreateEdge stores a new edge between two existing nodes and returns its id.
*/
func (gm *Manager) CreateEdge(fromID uint32, props data.Properties, toID uint32) (uint32, error) {
	if err := checkProperties(props); err != nil {
		return 0, err
	}

	gm.mutex.Lock()
	id, err := gm.se.CreateEdge(fromID, props, toID)
	gm.mutex.Unlock()

	if err != nil {
		return 0, err
	}

	gm.publishEvent(EventEdgeCreated, id)

	return id, nil
}

/*
FetchEdge fetches a single edge by its id. The endpoint node records are
inlined on request.
*/
func (gm *Manager) FetchEdge(id uint32, inlineFrom bool, inlineTo bool) (*data.Edge, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	return gm.se.FetchEdge(id, inlineFrom, inlineTo)
}

/*
UpdateEdge replaces the properties of an edge.
*/
func (gm *Manager) UpdateEdge(id uint32, props data.Properties) error {
	if err := checkProperties(props); err != nil {
		return err
	}

	gm.mutex.Lock()
	err := gm.se.UpdateEdge(id, props)
	gm.mutex.Unlock()

	if err != nil {
		return err
	}

	gm.publishEvent(EventEdgeUpdated, id)

	return nil
}

/*
RemoveEdge removes an edge. Removing a removed or unknown edge is not an
error.
*/
func (gm *Manager) RemoveEdge(id uint32) error {
	gm.mutex.Lock()
	err := gm.se.RemoveEdge(id)
	gm.mutex.Unlock()

	if err != nil {
		return err
	}

	gm.publishEvent(EventEdgeDeleted, id)

	return nil
}

/*
EdgesFrom returns all edges starting at a given node, newest first. A
non-empty filter restricts the result to edges whose properties are a
superset of the filter.
*/
func (gm *Manager) EdgesFrom(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	it, err := gm.se.EdgesFrom(nodeID)
	if err != nil {
		return nil, err
	}

	return gm.collectEdges(it, filter)
}

/*
EdgesTo returns all edges ending at a given node, newest first. A non-empty
filter restricts the result to edges whose properties are a superset of the
filter.
*/
func (gm *Manager) EdgesTo(nodeID uint32, filter data.Properties) ([]*data.Edge, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	it, err := gm.se.EdgesTo(nodeID)
	if err != nil {
		return nil, err
	}

	return gm.collectEdges(it, filter)
}

/*
EdgesByProperties returns all edges whose property list is a superset of a
given query list.
*/
func (gm *Manager) EdgesByProperties(query data.Properties) ([]*data.Edge, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	return gm.collectEdges(gm.se.EdgeIDs(), query)
}

/*
collectEdges materializes a cursor of edge ids into edge records applying a
property filter.
*/
func (gm *Manager) collectEdges(it *storage.IDCursor, filter data.Properties) ([]*data.Edge, error) {
	var edges []*data.Edge

	for it.HasNext() {
		id := it.Next()

		edge, err := gm.se.FetchEdge(id, false, false)
		if err != nil {
			return nil, err
		}

		if len(filter) == 0 || edge.Props.Matches(filter) {
			edges = append(edges, edge)
		}
	}

	if it.LastError != nil {
		return nil, it.LastError
	}

	return edges, nil
}
