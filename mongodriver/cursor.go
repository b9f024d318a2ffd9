// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongodriver

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ikmak/mongoika/driver"
)

// Cursor implements driver.Cursor over a *mongo.Cursor. HasNext fetches one document ahead and keeps it until
// Next is called. A Cursor opened by Collection.Find takes turns with other operations on the Session.
type Cursor struct {
	cur     *mongo.Cursor
	session *Session

	next     bson.Raw
	buffered bool
	done     bool
}

var _ driver.Cursor = (*Cursor)(nil)

// NewCursor returns a Cursor reading cur.
func NewCursor(cur *mongo.Cursor) *Cursor {
	return &Cursor{cur: cur}
}

// HasNext implements the driver.Cursor interface.
func (c *Cursor) HasNext(ctx context.Context) (bool, error) {
	if c.buffered {
		return true, nil
	}
	if c.done {
		return false, nil
	}

	_, release := c.session.acquire(ctx)
	defer release()

	if c.cur.Next(ctx) {
		// Current is only valid until the next call to Next.
		c.next = append(bson.Raw(nil), c.cur.Current...)
		c.buffered = true
		return true, nil
	}
	c.done = true
	return false, c.cur.Err()
}

// Next implements the driver.Cursor interface.
func (c *Cursor) Next(ctx context.Context) (bson.Raw, error) {
	ok, err := c.HasNext(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, driver.ErrExhausted
	}

	doc := c.next
	c.next, c.buffered = nil, false
	return doc, nil
}

// Close implements the driver.Cursor interface.
func (c *Cursor) Close(ctx context.Context) error {
	_, release := c.session.acquire(ctx)
	defer release()
	return c.cur.Close(ctx)
}
