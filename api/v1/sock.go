/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"net/http"

	"github.com/gorilla/websocket"

	"devt.de/krotik/shardgraph/api"
	"devt.de/krotik/shardgraph/graph"
)

/*
EndpointSock is the sock endpoint URL (rooted) for websocket operations.
*/
const EndpointSock = api.APIRoot + APIv1 + "/sock"

/*
sockUpgrader can upgrade normal requests to websocket communications
*/
var sockUpgrader = websocket.Upgrader{
	Subprotocols:    []string{"graph-sock"},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

/*
eventNames maps graph event kinds to their wire names.
*/
var eventNames = map[int]string{
	graph.EventNodeCreated: "node-created",
	graph.EventNodeUpdated: "node-updated",
	graph.EventNodeDeleted: "node-deleted",
	graph.EventEdgeCreated: "edge-created",
	graph.EventEdgeUpdated: "edge-updated",
	graph.EventEdgeDeleted: "edge-deleted",
}

/*
Handler object for websocket operations.
*/
type sockEndpoint struct {
	*api.DefaultEndpointHandler
	gm *graph.Manager
}

/*
HandleGET upgrades the connection to a websocket and streams graph events
until the client disconnects.
*/
func (se *sockEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	// Update the incoming connection to a websocket
	// If the upgrade fails then the client gets an HTTP error response.

	conn, err := sockUpgrader.Upgrade(w, r, nil)
	if err != nil {
		w.Write([]byte(err.Error()))
		return
	}

	events := make(chan graph.GraphEvent, 64)

	se.gm.Subscribe(events)

	defer func() {
		se.gm.Unsubscribe(events)
		conn.Close()
	}()

	// Discard everything the client sends - a read error ends the stream

	done := make(chan struct{})

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			err := conn.WriteJSON(map[string]interface{}{
				"event": eventNames[event.Kind],
				"id":    event.ID,
			})

			if err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
