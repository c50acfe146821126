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

/*
IDCursor is a lazy cursor over a finite sequence of entity ids. It is
produced by adjacency walks and table scans and cannot be restarted. An id
of 0 marks the end of the sequence.
*/
type IDCursor struct {
	nextID    uint32                       // Prefetched next id (0 if exhausted)
	fetch     func(uint32) (uint32, error) // Function to fetch the follow-up id
	LastError error                        // Last encountered error
}

/*
newIDCursor creates a new cursor. The fetch function returns the id which
follows a given id or 0 at the end of the sequence. The first id of a table
scan cursor is fetched immediately, adjacency cursors seed nextID with the
list head.
*/
func newIDCursor(fetch func(uint32) (uint32, error)) *IDCursor {
	c := &IDCursor{0, fetch, nil}

	first, err := fetch(0)
	if err != nil {
		c.LastError = err
		return c
	}

	c.nextID = first

	return c
}

/*
HasNext returns if the cursor has a next id.
*/
func (c *IDCursor) HasNext() bool {
	return c.nextID != 0
}

/*
Next returns the next id. Sets the LastError attribute if an error occurs.
*/
func (c *IDCursor) Next() uint32 {
	id := c.nextID

	if id == 0 {
		return 0
	}

	next, err := c.fetch(id)
	if err != nil {
		c.LastError = err
		c.nextID = 0
		return id
	}

	c.nextID = next

	return id
}

/*
Error returns the last encountered error.
*/
func (c *IDCursor) Error() error {
	return c.LastError
}
