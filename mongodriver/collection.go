// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongodriver

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ikmak/mongoika/driver"
)

// Collection implements driver.Collection over a *mongo.Collection. Operations run in the session of the
// Session it was built with whenever that Session is pinned. Callers that need the session to stay pinned for
// the whole operation hold a lease on it, as query.Sequence does.
type Collection struct {
	coll    *mongo.Collection
	session *Session
}

var _ driver.Collection = (*Collection)(nil)

// NewCollection returns a Collection reading coll. session may be nil.
func NewCollection(coll *mongo.Collection, session *Session) *Collection {
	return &Collection{coll: coll, session: session}
}

// Name implements the driver.Collection interface.
func (c *Collection) Name() string {
	return c.coll.Name()
}

// Find implements the driver.Collection interface.
func (c *Collection) Find(ctx context.Context, p driver.Parameters) (driver.Cursor, error) {
	sctx, done := c.session.acquire(ctx)
	cur, err := c.coll.Find(sctx, p.FilterDocument(), findOptions(p))
	done()
	if err != nil {
		return nil, errors.WithMessagef(err, "find on %s", c.coll.Name())
	}

	wrapped := NewCursor(cur)
	wrapped.session = c.session
	return wrapped, nil
}

// Count implements the driver.Collection interface.
func (c *Collection) Count(ctx context.Context, p driver.Parameters) (int64, error) {
	sctx, done := c.session.acquire(ctx)
	n, err := c.coll.CountDocuments(sctx, p.FilterDocument(), countOptions(p))
	done()
	if err != nil {
		return 0, errors.WithMessagef(err, "count on %s", c.coll.Name())
	}
	return n, nil
}

func findOptions(p driver.Parameters) *options.FindOptions {
	fo := options.Find()
	if p.Projection != nil {
		fo.SetProjection(p.Projection)
	}
	if p.Sort != nil {
		fo.SetSort(p.Sort)
	}
	if p.Hint != nil {
		fo.SetHint(p.Hint)
	}
	if p.Skip > 0 {
		fo.SetSkip(p.Skip)
	}
	if p.Limit > 0 {
		fo.SetLimit(p.Limit)
	}
	if p.BatchSize > 0 {
		fo.SetBatchSize(p.BatchSize)
	}
	return fo
}

func countOptions(p driver.Parameters) *options.CountOptions {
	co := options.Count()
	if p.Hint != nil {
		co.SetHint(p.Hint)
	}
	if p.Skip > 0 {
		co.SetSkip(p.Skip)
	}
	if p.Limit > 0 {
		co.SetLimit(p.Limit)
	}
	return co
}
