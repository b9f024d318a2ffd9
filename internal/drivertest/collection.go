// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package drivertest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/driver"
)

// Collection implements the driver.Collection interface over a fixed slice of documents. Skip and Limit are
// honored by both Find and Count; the filter is ignored.
type Collection struct {
	FindErr  error
	CountErr error
	// Prepare is applied to every cursor before Find returns it.
	Prepare func(*Cursor)
	// CountHook runs before Count answers, without the Collection locked. Its error is returned by Count.
	CountHook func(context.Context) error
	Log     *Log

	name    string
	docs    []bson.Raw
	mu      sync.Mutex
	finds   int
	counts  int
	cursors []*Cursor
}

var _ driver.Collection = (*Collection)(nil)

// NewCollection returns a Collection named name holding docs and writing to log. A nil log allocates a new
// one.
func NewCollection(name string, docs []bson.Raw, log *Log) *Collection {
	if log == nil {
		log = &Log{}
	}
	return &Collection{name: name, docs: docs, Log: log}
}

// Name implements the driver.Collection interface.
func (c *Collection) Name() string { return c.name }

// Find implements the driver.Collection interface.
func (c *Collection) Find(_ context.Context, p driver.Parameters) (driver.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finds++
	c.Log.Append("find")
	if c.FindErr != nil {
		return nil, c.FindErr
	}

	cur := NewCursor(c.selected(p))
	cur.Log = c.Log
	if c.Prepare != nil {
		c.Prepare(cur)
	}
	c.cursors = append(c.cursors, cur)
	return cur, nil
}

// Count implements the driver.Collection interface.
func (c *Collection) Count(ctx context.Context, p driver.Parameters) (int64, error) {
	c.mu.Lock()
	c.counts++
	c.Log.Append("count")
	hook := c.CountHook
	c.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CountErr != nil {
		return 0, c.CountErr
	}
	return int64(len(c.selected(p))), nil
}

func (c *Collection) selected(p driver.Parameters) []bson.Raw {
	docs := c.docs
	if p.Skip > 0 {
		if p.Skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[p.Skip:]
	}
	if p.Limit > 0 && p.Limit < int64(len(docs)) {
		docs = docs[:p.Limit]
	}
	return docs
}

// Finds returns the number of Find calls.
func (c *Collection) Finds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finds
}

// Counts returns the number of Count calls.
func (c *Collection) Counts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Cursors returns the cursors opened so far.
func (c *Collection) Cursors() []*Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Cursor(nil), c.cursors...)
}

// Pulls returns the number of Next calls over every cursor opened so far.
func (c *Collection) Pulls() int {
	total := 0
	for _, cur := range c.Cursors() {
		total += cur.Pulls()
	}
	return total
}
