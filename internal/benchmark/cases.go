// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/cursor"
	"github.com/ikmak/mongoika/driver"
	"github.com/ikmak/mongoika/internal/drivertest"
	"github.com/ikmak/mongoika/pin"
	"github.com/ikmak/mongoika/query"
)

var corpus = drivertest.Documents(thousand)

func corpusSize() int {
	size := 0
	for _, doc := range corpus {
		size += len(doc)
	}
	return size
}

type fixture struct {
	counter *pin.Counter
	coll    *drivertest.Collection
	params  driver.Parameters
}

func newFixture() *fixture {
	log := &drivertest.Log{}
	return &fixture{
		counter: pin.NewCounter(drivertest.NewHandle(log)),
		coll:    drivertest.NewCollection("corpus", corpus, log),
		params:  driver.NewParameters(bson.D{}),
	}
}

func (f *fixture) sequence() *query.Sequence {
	return query.New(f.coll, f.params, f.counter)
}

// CountBeforeRealization counts fresh sequences, each answered by one remote count.
func CountBeforeRealization(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		n, err := f.sequence().Count(ctx)
		if err != nil {
			return err
		}
		if n != int64(len(corpus)) {
			return fmt.Errorf("counted %d documents, expected %d", n, len(corpus))
		}
	}
	return nil
}

// CountAfterRealization counts one realized sequence repeatedly.
func CountAfterRealization(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	seq := f.sequence()
	if _, err := seq.Slice(ctx); err != nil {
		return err
	}
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		if _, err := seq.Count(ctx); err != nil {
			return err
		}
	}
	if f.coll.Counts() != 0 {
		return fmt.Errorf("realized sequence issued %d remote counts", f.coll.Counts())
	}
	return nil
}

// FullRealization reads every document of a fresh sequence.
func FullRealization(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		docs, err := f.sequence().Slice(ctx)
		if err != nil {
			return err
		}
		if len(docs) != len(corpus) {
			return fmt.Errorf("realized %d documents, expected %d", len(docs), len(corpus))
		}
	}
	return nil
}

// MemoizedReads reads positions of a realized sequence.
func MemoizedReads(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	seq := f.sequence()
	if _, err := seq.Slice(ctx); err != nil {
		return err
	}
	pulls := f.coll.Pulls()
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		if _, err := seq.Nth(ctx, i%len(corpus)); err != nil {
			return err
		}
	}
	if f.coll.Pulls() != pulls {
		return fmt.Errorf("memoized reads pulled %d more documents", f.coll.Pulls()-pulls)
	}
	return nil
}

// NestedLeases takes and releases two nested leases, pinning and unpinning the handle each time.
func NestedLeases(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		outer, err := f.counter.NewLease(ctx)
		if err != nil {
			return err
		}
		inner, err := f.counter.NewLease(ctx)
		if err != nil {
			return err
		}
		if err := inner.Release(ctx); err != nil {
			return err
		}
		if err := outer.Release(ctx); err != nil {
			return err
		}
	}
	if f.counter.Pinned() {
		return fmt.Errorf("handle still pinned after %d iterations", iters)
	}
	return nil
}

// LeasedCursorDrain drains leased cursors over the corpus.
func LeasedCursorDrain(ctx context.Context, tm TimerManager, iters int) error {
	f := newFixture()
	tm.ResetTimer()

	for i := 0; i < iters; i++ {
		tm.StopTimer()
		cur := drivertest.NewCursor(corpus)
		tm.StartTimer()

		lease, err := f.counter.NewLease(ctx)
		if err != nil {
			return err
		}
		docs, err := cursor.New(cur, lease).All(ctx)
		if err != nil {
			return err
		}
		if len(docs) != len(corpus) {
			return fmt.Errorf("drained %d documents, expected %d", len(docs), len(corpus))
		}
	}
	return nil
}
