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
)

/*
CreateNode stores a new node with the given properties and returns its id.
*/
func (gm *Manager) CreateNode(props data.Properties) (uint32, error) {
	if err := checkProperties(props); err != nil {
		return 0, err
	}

	gm.mutex.Lock()
	id, err := gm.se.CreateNode(props)
	gm.mutex.Unlock()

	if err != nil {
		return 0, err
	}

	gm.publishEvent(EventNodeCreated, id)

	return id, nil
}

/*
FetchNode fetches a single node by its id.
*/
func (gm *Manager) FetchNode(id uint32) (*data.Node, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	return gm.se.FetchNode(id)
}

/*
UpdateNode replaces the properties of a node. The node id is preserved.
*/
func (gm *Manager) UpdateNode(id uint32, props data.Properties) error {
	if err := checkProperties(props); err != nil {
		return err
	}

	gm.mutex.Lock()
	err := gm.se.UpdateNode(id, props)
	gm.mutex.Unlock()

	if err != nil {
		return err
	}

	gm.publishEvent(EventNodeUpdated, id)

	return nil
}

/*
RemoveNode removes a node and all edges attached to it. Removing a removed
or unknown node is not an error.
*/
func (gm *Manager) RemoveNode(id uint32) error {
	gm.mutex.Lock()
	err := gm.se.RemoveNode(id)
	gm.mutex.Unlock()

	if err != nil {
		return err
	}

	gm.publishEvent(EventNodeDeleted, id)

	return nil
}

/*
NodesByProperties returns all nodes whose property list is a superset of a
given query list.
*/
func (gm *Manager) NodesByProperties(query data.Properties) ([]*data.Node, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	var nodes []*data.Node

	it := gm.se.NodeIDs()

	for it.HasNext() {
		id := it.Next()

		node, err := gm.se.FetchNode(id)
		if err != nil {
			return nil, err
		}

		if node.Props.Matches(query) {
			nodes = append(nodes, node)
		}
	}

	if it.LastError != nil {
		return nil, it.LastError
	}

	return nodes, nil
}
