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
	"sync"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/shardgraph/graph/data"
	"devt.de/krotik/shardgraph/graph/util"
	"devt.de/krotik/shardgraph/storage"
)

/*
GraphEvent is a single graph modification event.
*/
type GraphEvent struct {
	Kind int    // One of the Event* constants
	ID   uint32 // Id of the affected node or edge
}

/*
Manager is the main API to a graph database.
*/
type Manager struct {
	se          storage.Engine     // Underlying storage engine
	mutex       *sync.RWMutex      // Mutex to serialize engine access
	queryStates *datautil.MapCache // Traversal states by query id

	subscribersLock *sync.Mutex         // Mutex to access the subscriber list
	subscribers     []chan<- GraphEvent // Event subscribers
}

/*
NewGraphManager creates a new Manager instance for a given storage engine.
The queryTTL parameter is the time in seconds after which abandoned
traversal states are evicted (0 uses the default).
*/
func NewGraphManager(se storage.Engine, queryTTL int64) *Manager {
	if queryTTL <= 0 {
		queryTTL = DefaultQueryTTL
	}

	return &Manager{
		se:              se,
		mutex:           &sync.RWMutex{},
		queryStates:     datautil.NewMapCache(MaxQueryStates, queryTTL),
		subscribersLock: &sync.Mutex{},
		subscribers:     nil,
	}
}

/*
Name returns the name of the underlying storage engine.
*/
func (gm *Manager) Name() string {
	return gm.se.Name()
}

/*
Flush writes all pending changes to the storage.
*/
func (gm *Manager) Flush() error {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return gm.se.Flush()
}

/*
Close flushes and closes the underlying storage engine.
*/
func (gm *Manager) Close() error {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return gm.se.Close()
}

// Events
// ======

/*
Subscribe registers a channel which receives all graph events. Events are
delivered best-effort - if the channel is not ready to receive the event is
dropped.
*/
func (gm *Manager) Subscribe(ch chan<- GraphEvent) {
	gm.subscribersLock.Lock()
	defer gm.subscribersLock.Unlock()

	gm.subscribers = append(gm.subscribers, ch)
}

/*
Unsubscribe removes a previously registered event channel.
*/
func (gm *Manager) Unsubscribe(ch chan<- GraphEvent) {
	gm.subscribersLock.Lock()
	defer gm.subscribersLock.Unlock()

	for i, s := range gm.subscribers {
		if s == ch {
			gm.subscribers = append(gm.subscribers[:i], gm.subscribers[i+1:]...)
			return
		}
	}
}

/*
publishEvent delivers an event to all subscribers.
*/
func (gm *Manager) publishEvent(kind int, id uint32) {
	gm.subscribersLock.Lock()
	defer gm.subscribersLock.Unlock()

	for _, s := range gm.subscribers {
		select {
		case s <- GraphEvent{kind, id}:
		default:
		}
	}
}

// Property validation
// ===================

/*
checkProperties checks if a given property list can be stored through the
user API. Unsigned int values are reserved for internal fields.
*/
func checkProperties(props data.Properties) error {
	for _, p := range props {
		desc, err := data.ValueDesc(p.Value)
		if err != nil {
			return err
		}

		if desc == data.TypeUint {
			return &util.GraphError{
				Type:   util.ErrInvalidData,
				Detail: fmt.Sprintf("Unsigned int values are reserved for internal use (key: %v)", p.Key),
			}
		}
	}

	return nil
}
