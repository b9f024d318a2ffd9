// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package drivertest

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/driver"
)

// Documents returns n documents of the form {_id: i, n: "doc-i"}.
func Documents(n int) []bson.Raw {
	docs := make([]bson.Raw, 0, n)
	for i := 0; i < n; i++ {
		raw, err := bson.Marshal(bson.D{{Key: "_id", Value: int32(i)}, {Key: "n", Value: fmt.Sprintf("doc-%d", i)}})
		if err != nil {
			panic(err)
		}
		docs = append(docs, raw)
	}
	return docs
}

// Cursor implements the driver.Cursor interface over a slice of documents. FailAt makes the pull of the
// document at that position return Err instead.
type Cursor struct {
	FailAt   int
	Err      error
	CloseErr error
	Log      *Log

	mu       sync.Mutex
	docs     []bson.Raw
	pos      int
	pulls    int
	hasNexts int
	closes   int
}

var _ driver.Cursor = (*Cursor)(nil)

// NewCursor returns a Cursor over docs.
func NewCursor(docs []bson.Raw) *Cursor {
	return &Cursor{docs: docs, FailAt: -1, Log: &Log{}}
}

// HasNext implements the driver.Cursor interface.
func (c *Cursor) HasNext(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hasNexts++
	if c.pos == c.FailAt && c.Err != nil {
		return false, c.Err
	}
	return c.pos < len(c.docs), nil
}

// Next implements the driver.Cursor interface.
func (c *Cursor) Next(context.Context) (bson.Raw, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pulls++
	c.Log.Append("next")
	if c.pos == c.FailAt && c.Err != nil {
		return nil, c.Err
	}
	if c.pos >= len(c.docs) {
		return nil, driver.ErrExhausted
	}
	doc := c.docs[c.pos]
	c.pos++
	return doc, nil
}

// Close implements the driver.Cursor interface.
func (c *Cursor) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++
	c.Log.Append("close")
	return c.CloseErr
}

// Pulls returns the number of Next calls.
func (c *Cursor) Pulls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulls
}

// HasNexts returns the number of HasNext calls.
func (c *Cursor) HasNexts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasNexts
}

// Closes returns the number of Close calls.
func (c *Cursor) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
