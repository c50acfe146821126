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

	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/graph/data"
)

/*
CreateEdge stores a new edge and returns its external id. If the endpoints
live on different shards the edge is materialized on both shards - each half
connects the local endpoint to a proxy node for the remote endpoint and the
halves reference each other.
*/
func (r *Router) CreateEdge(fromExtID string, props data.Properties, toExtID string) (string, error) {
	fromShard, fromID, err := r.parseExtID(fromExtID)
	if err != nil {
		return "", err
	}

	toShard, toID, err := r.parseExtID(toExtID)
	if err != nil {
		return "", err
	}

	if fromShard == toShard {
		id, err := r.clients[fromShard].CreateEdge(fromID, props, toID)
		if err != nil {
			return "", err
		}
		return formatExtID(fromShard, id), nil
	}

	// Cross-shard edge - build the from side half first

	fromClient := r.clients[fromShard]
	toClient := r.clients[toShard]

	// The remote endpoint must exist before anything is materialized

	if _, err := toClient.FetchNode(toID); err != nil {
		return "", err
	}

	proxyTo, err := fromClient.CreateNode(proxyProps(toExtID))
	if err != nil {
		return "", err
	}

	edge1, err := fromClient.CreateEdge(fromID, props, proxyTo)
	if err != nil {
		if uerr := fromClient.RemoveNode(proxyTo); uerr != nil {
			LogInfo("Could not clean up proxy node ", proxyTo, ": ", uerr)
		}
		return "", err
	}

	ext1 := formatExtID(fromShard, edge1)

	// Mirror half on the to shard

	undoFromSide := func() error {
		if err := fromClient.RemoveEdge(edge1); err != nil {
			return err
		}
		return fromClient.RemoveNode(proxyTo)
	}

	proxyFrom, err := toClient.CreateNode(proxyProps(fromExtID))
	if err != nil {
		if uerr := undoFromSide(); uerr != nil {
			return "", r.partiallyApplied("create edge", ext1, uerr)
		}
		return "", err
	}

	edge2, err := toClient.CreateEdge(proxyFrom, withPartner(props, ext1), toID)
	if err != nil {
		if uerr := toClient.RemoveNode(proxyFrom); uerr != nil {
			return "", r.partiallyApplied("create edge", ext1, uerr)
		}
		if uerr := undoFromSide(); uerr != nil {
			return "", r.partiallyApplied("create edge", ext1, uerr)
		}
		return "", err
	}

	ext2 := formatExtID(toShard, edge2)

	// Cross-reference the from side half

	if err := fromClient.UpdateEdge(edge1, withPartner(props, ext2)); err != nil {
		undoToSide := func() error {
			if uerr := toClient.RemoveEdge(edge2); uerr != nil {
				return uerr
			}
			return toClient.RemoveNode(proxyFrom)
		}

		if uerr := undoToSide(); uerr != nil {
			return "", r.partiallyApplied("create edge", ext1, uerr)
		}
		if uerr := undoFromSide(); uerr != nil {
			return "", r.partiallyApplied("create edge", ext1, uerr)
		}
		return "", err
	}

	return ext1, nil
}

/*
FetchEdge fetches a single edge by its external id. Proxy endpoints are
resolved to the external ids of the real nodes.
*/
func (r *Router) FetchEdge(extID string) (*Edge, error) {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return nil, err
	}

	edge, err := r.clients[shard].FetchEdge(id)
	if err != nil {
		return nil, err
	}

	return r.buildExtEdge(shard, edge)
}

/*
UpdateEdge replaces the properties of an edge. Both halves of a cross-shard
edge are updated.
*/
func (r *Router) UpdateEdge(extID string, props data.Properties) error {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return err
	}

	edge, err := r.clients[shard].FetchEdge(id)
	if err != nil {
		return err
	}

	partnerExt, hasPartner := partnerExtID(edge)

	if !hasPartner {
		return r.clients[shard].UpdateEdge(id, props)
	}

	pshard, pid, err := r.parseExtID(partnerExt)
	if err != nil {
		return err
	}

	if err := r.clients[shard].UpdateEdge(id, withPartner(props, partnerExt)); err != nil {
		return err
	}

	if err := r.clients[pshard].UpdateEdge(pid, withPartner(props, extID)); err != nil {
		return r.partiallyApplied("update edge", extID, err)
	}

	return nil
}

/*
RemoveEdge removes an edge. Both halves of a cross-shard edge and their
proxy nodes are removed. Removing an already removed edge fails with a not
found error.
*/
func (r *Router) RemoveEdge(extID string) error {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return err
	}

	edge, err := r.clients[shard].FetchEdge(id)
	if err != nil {
		return err
	}

	partnerExt, hasPartner := partnerExtID(edge)

	if err := r.removeEdgeHalf(shard, id, edge); err != nil {
		return r.partiallyApplied("remove edge", extID, err)
	}

	if !hasPartner {
		return nil
	}

	// Remove the partner half - a missing partner is fine, it may have been
	// cleaned up by a compensation run already

	pshard, pid, err := r.parseExtID(partnerExt)
	if err != nil {
		return r.partiallyApplied("remove edge", extID, err)
	}

	pedge, err := r.clients[pshard].FetchEdge(pid)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return r.partiallyApplied("remove edge", extID, err)
	}

	if err := r.removeEdgeHalf(pshard, pid, pedge); err != nil {

		// Compensation - try the partner removal once more

		if pedge, ferr := r.clients[pshard].FetchEdge(pid); ferr == nil {
			if rerr := r.removeEdgeHalf(pshard, pid, pedge); rerr == nil {
				return nil
			}
		}

		return r.partiallyApplied("remove edge", extID, err)
	}

	return nil
}

/*
EdgesFrom returns all edges starting at a given node, newest first.
*/
func (r *Router) EdgesFrom(extID string, filter data.Properties) ([]*Edge, error) {
	return r.adjacentEdges(extID, filter, true)
}

/*
EdgesTo returns all edges ending at a given node, newest first.
*/
func (r *Router) EdgesTo(extID string, filter data.Properties) ([]*Edge, error) {
	return r.adjacentEdges(extID, filter, false)
}

/*
adjacentEdges queries the adjacency of a given node in one direction.
*/
func (r *Router) adjacentEdges(extID string, filter data.Properties, out bool) ([]*Edge, error) {
	shard, id, err := r.parseExtID(extID)
	if err != nil {
		return nil, err
	}

	var edges []*data.Edge

	if out {
		edges, err = r.clients[shard].EdgesFrom(id, filter)
	} else {
		edges, err = r.clients[shard].EdgesTo(id, filter)
	}

	if err != nil {
		return nil, err
	}

	res := make([]*Edge, 0, len(edges))

	for _, edge := range edges {
		ext, err := r.buildExtEdge(shard, edge)
		if err != nil {
			return nil, err
		}
		res = append(res, ext)
	}

	return res, nil
}

// Internal helper functions
// =========================

/*
proxyProps builds the property list of a proxy node for a given external id.
*/
func proxyProps(extID string) data.Properties {
	return data.Properties{
		{Key: graph.PropRemoteNode, Value: true},
		{Key: graph.PropRemoteNodeID, Value: extID},
	}
}

/*
withPartner returns a copy of a property list with the partner edge
reference set.
*/
func withPartner(props data.Properties, partnerExtID string) data.Properties {
	res := make(data.Properties, len(props), len(props)+1)
	copy(res, props)

	return res.Set(graph.PropRemoteEdgeID, partnerExtID)
}

/*
partnerExtID extracts the partner edge reference of a cross-shard edge half.
*/
func partnerExtID(edge *data.Edge) (string, bool) {
	v, ok := edge.Props.Get(graph.PropRemoteEdgeID)
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

/*
removeEdgeHalf removes a single edge and any proxy nodes it is attached to.
*/
func (r *Router) removeEdgeHalf(shard int, id uint32, edge *data.Edge) error {
	if err := r.clients[shard].RemoveEdge(id); err != nil {
		return err
	}

	for _, endpoint := range []*data.Node{edge.From, edge.To} {
		if endpoint != nil && isProxy(endpoint) {
			if err := r.clients[shard].RemoveNode(endpoint.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

/*
buildExtEdge converts an edge of a given shard into its external form. Proxy
endpoints are resolved to the external ids of the real nodes. The canonical
external id of a cross-shard edge is the id of its from side half.
*/
func (r *Router) buildExtEdge(shard int, edge *data.Edge) (*Edge, error) {
	fromNode, err := r.fetchEndpoint(shard, edge.FromID, edge.From)
	if err != nil {
		return nil, err
	}

	toNode, err := r.fetchEndpoint(shard, edge.ToID, edge.To)
	if err != nil {
		return nil, err
	}

	extID := formatExtID(shard, edge.ID)

	// The mirror half of a cross-shard edge starts at a proxy node - its
	// canonical id is the id of the from side half on the other shard

	if fromNode != nil && isProxy(fromNode) {
		if partner, ok := partnerExtID(edge); ok {
			extID = partner
		}
	}

	return &Edge{
		ID:     extID,
		FromID: endpointExtID(shard, edge.FromID, fromNode),
		ToID:   endpointExtID(shard, edge.ToID, toNode),
		Props:  stripInternalProps(edge.Props),
	}, nil
}

/*
fetchEndpoint returns an endpoint node record using the inlined record if
available. A removed endpoint yields nil.
*/
func (r *Router) fetchEndpoint(shard int, nodeID uint32, inlined *data.Node) (*data.Node, error) {
	if inlined != nil {
		return inlined, nil
	}

	node, err := r.clients[shard].FetchNode(nodeID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return node, nil
}

/*
endpointExtID resolves the external id of an edge endpoint. Proxy nodes
resolve to the external id of the real remote node.
*/
func endpointExtID(shard int, nodeID uint32, node *data.Node) string {
	if node != nil && isProxy(node) {
		if v, ok := node.Props.Get(graph.PropRemoteNodeID); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}

	return formatExtID(shard, nodeID)
}

/*
partiallyApplied creates a partially applied error.
*/
func (r *Router) partiallyApplied(op string, extID string, err error) error {
	LogInfo("Cluster operation ", op, " on ", extID, " is partially applied: ", err)

	return &Error{
		Type:   ErrPartiallyApplied,
		Detail: fmt.Sprintf("%v %v: %v", op, extID, err.Error()),
	}
}
