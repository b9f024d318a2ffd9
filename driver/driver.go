// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package driver defines the surface mongoika consumes from a database driver: a streaming cursor, a
// connection handle that can be pinned, and a collection that can open cursors and count documents.
//
// The mongodriver package implements these interfaces over go.mongodb.org/mongo-driver.
package driver // import "github.com/ikmak/mongoika/driver"

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Cursor is a streaming iterator over query results. A Cursor is owned by one goroutine at a time.
type Cursor interface {
	// HasNext reports whether a call to Next will produce a document. It may block on network I/O.
	HasNext(context.Context) (bool, error)

	// Next returns the next document. Calling Next past the end returns an error wrapping ErrExhausted.
	Next(context.Context) (bson.Raw, error)

	// Close releases the server-side cursor.
	Close(context.Context) error
}

// Handle is a logical database session that can be pinned so that a multi-step read sees consistent data.
// BeginPinned and EndPinned are called in balanced pairs, and only by a pin.Counter.
type Handle interface {
	BeginPinned(context.Context) error
	EndPinned(context.Context) error
}

// Collection opens cursors over a collection and answers authoritative counts for the same parameters.
type Collection interface {
	// Name returns the namespace of the collection, used for logging and monitoring.
	Name() string

	// Find opens a cursor over the documents selected by p.
	Find(ctx context.Context, p Parameters) (Cursor, error)

	// Count returns the server-side count of the documents selected by p without transferring them.
	Count(ctx context.Context, p Parameters) (int64, error)
}
