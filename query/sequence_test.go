// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package query

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/ikmak/mongoika/driver"
	"github.com/ikmak/mongoika/event"
	"github.com/ikmak/mongoika/internal/drivertest"
	"github.com/ikmak/mongoika/lazy"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/pin"
)

type fixture struct {
	log     *drivertest.Log
	handle  *drivertest.Handle
	counter *pin.Counter
	coll    *drivertest.Collection
}

func newFixture(n int) *fixture {
	log := &drivertest.Log{}
	h := drivertest.NewHandle(log)
	return &fixture{
		log:     log,
		handle:  h,
		counter: pin.NewCounter(h, options.Counter().SetLeakCleanup(false)),
		coll:    drivertest.NewCollection("people", drivertest.Documents(n), log),
	}
}

func (f *fixture) sequence(opts ...*options.SequenceOptions) *Sequence {
	return New(f.coll, driver.NewParameters(bson.D{}), f.counter, opts...)
}

func TestSequence(t *testing.T) {
	ctx := context.Background()

	t.Run("count before and after realization", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()

		_, ok, err := s.First(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, 1, f.coll.Counts())
		assert.Equal(t, 1, s.Len())
		assert.False(t, s.Realized())

		docs, err := s.Slice(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 3)
		assert.True(t, s.Realized())

		n, err = s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, 1, f.coll.Counts())
	})
	t.Run("count before any read pulls nothing", func(t *testing.T) {
		f := newFixture(5)
		s := f.sequence()

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		assert.Equal(t, 1, f.coll.Counts())
		assert.Equal(t, 0, f.coll.Finds())
		assert.Equal(t, 0, f.coll.Pulls())
		assert.Equal(t, lazy.NotStarted, s.State())
		assert.Equal(t, []string{"begin", "count", "end"}, f.log.Entries())
		assert.False(t, f.counter.Pinned())
	})
	t.Run("count holds a lease while it runs", func(t *testing.T) {
		f := newFixture(2)
		var pinned bool
		f.coll.CountHook = func(context.Context) error {
			pinned = f.handle.Pinned()
			return nil
		}

		_, err := f.sequence().Count(ctx)
		require.NoError(t, err)
		assert.True(t, pinned)
		assert.Equal(t, 0, f.counter.Active())
	})
	t.Run("count without a counter", func(t *testing.T) {
		f := newFixture(2)
		s := New(f.coll, driver.NewParameters(nil), nil)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, []string{"count"}, f.log.Entries())
	})
	t.Run("count pin failure", func(t *testing.T) {
		f := newFixture(2)
		want := errors.New("no session")
		f.handle.BeginErr = want

		_, err := f.sequence().Count(ctx)
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 0, f.coll.Counts())
	})
	t.Run("count after close", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()
		require.NoError(t, s.Close(ctx))

		_, err := s.Count(ctx)
		assert.ErrorIs(t, err, ErrSequenceClosed)
		assert.Equal(t, 0, f.coll.Counts())

		realized := f.sequence()
		_, err = realized.Slice(ctx)
		require.NoError(t, err)
		require.NoError(t, realized.Close(ctx))
		n, err := realized.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
	t.Run("count honors skip and limit", func(t *testing.T) {
		f := newFixture(10)
		s := New(f.coll, driver.NewParameters(nil).SetSkip(2).SetLimit(5).SetSort(bson.D{{Key: "_id", Value: 1}}), f.counter)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		docs, err := s.Slice(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 5)
		assert.Equal(t, drivertest.Documents(3)[2], docs[0])
	})
	t.Run("memoized reads do not pull again", func(t *testing.T) {
		f := newFixture(4)
		s := f.sequence()

		first, err := s.Nth(ctx, 2)
		require.NoError(t, err)
		pulls := f.coll.Pulls()
		assert.Equal(t, 3, pulls)

		second, err := s.Nth(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, pulls, f.coll.Pulls())
	})
	t.Run("cursor opens once under one pin", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()

		for _, err := range s.All(ctx) {
			require.NoError(t, err)
		}
		_, err := s.Slice(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, f.coll.Finds())
		assert.Equal(t, 1, f.handle.Begins())
		assert.Equal(t, 1, f.handle.Ends())
		assert.False(t, f.counter.Pinned())
		assert.Equal(t, []string{"begin", "find", "next", "next", "next", "close", "end"}, f.log.Entries())
	})
	t.Run("pin held while partially read", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()

		_, _, err := s.First(ctx)
		require.NoError(t, err)
		assert.True(t, f.counter.Pinned())
		assert.Equal(t, 1, f.counter.Active())

		require.NoError(t, s.Close(ctx))
		assert.False(t, f.counter.Pinned())
		assert.Equal(t, 1, f.handle.Ends())
	})
	t.Run("reads after close", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()
		first, _, err := s.First(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Close(ctx))
		require.NoError(t, s.Close(ctx))

		again, ok, err := s.First(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, first, again)

		_, err = s.Nth(ctx, 1)
		assert.ErrorIs(t, err, ErrSequenceClosed)
		_, err = s.Slice(ctx)
		assert.ErrorIs(t, err, ErrSequenceClosed)
	})
	t.Run("close before open", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()

		require.NoError(t, s.Close(ctx))
		assert.Equal(t, 0, f.coll.Finds())
		assert.Equal(t, 0, f.handle.Begins())

		_, _, err := s.First(ctx)
		assert.ErrorIs(t, err, ErrSequenceClosed)
	})
	t.Run("find failure releases the lease", func(t *testing.T) {
		f := newFixture(3)
		want := errors.New("find failed")
		f.coll.FindErr = want
		s := f.sequence()

		_, _, err := s.First(ctx)
		assert.ErrorIs(t, err, want)
		assert.False(t, f.counter.Pinned())
		assert.Equal(t, 1, f.handle.Begins())
		assert.Equal(t, 1, f.handle.Ends())

		f.coll.FindErr = nil
		doc, ok, err := s.First(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, drivertest.Documents(1)[0], doc)
	})
	t.Run("pin failure", func(t *testing.T) {
		f := newFixture(3)
		want := errors.New("no session")
		f.handle.BeginErr = want
		s := f.sequence()

		_, _, err := s.First(ctx)
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 0, f.coll.Finds())
		assert.Equal(t, 0, f.counter.Active())
	})
	t.Run("failure mid traversal keeps earlier documents", func(t *testing.T) {
		f := newFixture(4)
		want := errors.New("connection reset")
		f.coll.Prepare = func(c *drivertest.Cursor) {
			c.FailAt, c.Err = 2, want
		}
		s := f.sequence()

		var got int
		var failure error
		for _, err := range s.All(ctx) {
			if err != nil {
				failure = err
				break
			}
			got++
		}
		assert.Equal(t, 2, got)
		assert.ErrorIs(t, failure, want)
		assert.False(t, f.counter.Pinned())

		doc, err := s.Nth(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, drivertest.Documents(2)[1], doc)

		_, err = s.Nth(ctx, 2)
		assert.ErrorIs(t, err, ErrSequenceClosed)
		assert.Equal(t, 1, f.coll.Finds())
	})
	t.Run("count failure", func(t *testing.T) {
		f := newFixture(3)
		want := errors.New("count failed")
		f.coll.CountErr = want
		s := f.sequence()

		_, err := s.Count(ctx)
		assert.Equal(t, want, err)
	})
	t.Run("driver errors are not rewrapped", func(t *testing.T) {
		f := newFixture(3)
		want := errors.New("find failed")
		f.coll.FindErr = want

		_, _, err := f.sequence().First(ctx)
		assert.Equal(t, want, err)
	})
	t.Run("rest shares documents", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence()

		rest := s.Rest()
		doc, ok, err := rest.First(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, drivertest.Documents(2)[1], doc)
		assert.Equal(t, 2, s.Len())

		docs, err := s.SubRange(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, drivertest.Documents(2), docs)
		assert.Equal(t, 2, f.coll.Pulls())
	})
	t.Run("empty result", func(t *testing.T) {
		f := newFixture(0)
		s := f.sequence()

		empty, err := s.Empty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)
		assert.True(t, s.Realized())
		assert.False(t, f.counter.Pinned())

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Equal(t, 0, f.coll.Counts())
	})
	t.Run("accessors", func(t *testing.T) {
		f := newFixture(1)
		p := driver.NewParameters(bson.D{{Key: "x", Value: 1}}).SetLimit(4)
		s := New(f.coll, p, f.counter)

		assert.Equal(t, driver.Collection(f.coll), s.Collection())
		assert.Equal(t, p, s.Parameters())
	})
}

func TestSequenceMeta(t *testing.T) {
	ctx := context.Background()

	t.Run("with meta shares documents", func(t *testing.T) {
		f := newFixture(3)
		s := f.sequence(options.Sequence().SetMeta(map[string]interface{}{"tag": "a"}))
		tagged := s.WithMeta(Meta{"tag": "b"})

		assert.Equal(t, Meta{"tag": "a"}, s.Meta())
		assert.Equal(t, Meta{"tag": "b"}, tagged.Meta())

		_, err := tagged.Slice(ctx)
		require.NoError(t, err)
		assert.True(t, s.Realized())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 1, f.coll.Finds())

		eq, err := s.Equal(ctx, tagged)
		require.NoError(t, err)
		assert.True(t, eq)
	})
	t.Run("meta is copied", func(t *testing.T) {
		f := newFixture(1)
		meta := Meta{"k": 1}
		s := f.sequence().WithMeta(meta)

		meta["k"] = 2
		got := s.Meta()
		got["k"] = 3
		assert.Equal(t, Meta{"k": 1}, s.Meta())
	})
	t.Run("nil meta", func(t *testing.T) {
		assert.Nil(t, newFixture(1).sequence().Meta())
	})
}

func TestSequenceEquality(t *testing.T) {
	ctx := context.Background()

	a := newFixture(3).sequence()
	b := newFixture(3).sequence()
	c := newFixture(2).sequence()

	eq, err := a.Equal(ctx, b)
	require.NoError(t, err)
	assert.True(t, eq)
	assert.True(t, a.Realized())
	assert.True(t, b.Realized())

	eq, err = a.Equal(ctx, c)
	require.NoError(t, err)
	assert.False(t, eq)

	ha, err := a.Hash(ctx)
	require.NoError(t, err)
	hb, err := b.Hash(ctx)
	require.NoError(t, err)
	hc, err := c.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
}

func TestSequenceDecode(t *testing.T) {
	ctx := context.Background()
	type person struct {
		ID   int32  `bson:"_id"`
		Name string `bson:"n"`
	}

	t.Run("decode one", func(t *testing.T) {
		s := newFixture(3).sequence()

		var p person
		require.NoError(t, s.Decode(ctx, 1, &p))
		assert.Equal(t, person{ID: 1, Name: "doc-1"}, p)
	})
	t.Run("decode all", func(t *testing.T) {
		s := newFixture(2).sequence()

		var people []person
		require.NoError(t, s.DecodeAll(ctx, &people))
		assert.Equal(t, []person{{ID: 0, Name: "doc-0"}, {ID: 1, Name: "doc-1"}}, people)
	})
	t.Run("decode all rejects non slice", func(t *testing.T) {
		s := newFixture(1).sequence()

		var p person
		assert.Error(t, s.DecodeAll(ctx, &p))
		assert.Equal(t, lazy.NotStarted, s.State())
	})
	t.Run("decode past the end", func(t *testing.T) {
		s := newFixture(1).sequence()

		var p person
		assert.ErrorIs(t, s.Decode(ctx, 4, &p), lazy.ErrIndexOutOfRange)
	})
}

func TestSequenceMonitor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	var mu sync.Mutex
	var got []event.SequenceEvent
	monitor := &event.SequenceMonitor{Event: func(evt *event.SequenceEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, *evt)
	}}
	s := f.sequence(options.Sequence().SetMonitor(monitor))

	_, err := s.Count(ctx)
	require.NoError(t, err)
	_, err = s.Slice(ctx)
	require.NoError(t, err)
	_, err = s.Count(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 5)
	assert.Equal(t, event.CountServed, got[0].Type)
	assert.Equal(t, event.CountSourceRemote, got[0].Source)
	assert.Equal(t, int64(2), got[0].Count)
	assert.Equal(t, event.SequenceOpened, got[1].Type)
	assert.Equal(t, event.SequenceRealized, got[2].Type)
	assert.Equal(t, 2, got[2].Realized)
	assert.Equal(t, event.CountServed, got[3].Type)
	assert.Equal(t, event.CountSourceCache, got[3].Source)
	assert.Equal(t, event.SequenceClosed, got[4].Type)
	for _, evt := range got {
		assert.Equal(t, "people", evt.Collection)
	}
}

func TestSequenceConcurrentCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(50)
	s := f.sequence()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			n, err := s.Count(ctx)
			if err == nil && n != 50 {
				return errors.New("wrong count")
			}
			return err
		})
		g.Go(func() error {
			_, err := s.Slice(ctx)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, f.coll.Counts(), 8)
	assert.Equal(t, 50, f.coll.Pulls())
	assert.Equal(t, 1, f.coll.Finds())
}

func TestSequenceAbandoned(t *testing.T) {
	log := &drivertest.Log{}
	h := drivertest.NewHandle(log)
	counter := pin.NewCounter(h)
	coll := drivertest.NewCollection("people", drivertest.Documents(3), log)

	func() {
		s := New(coll, driver.NewParameters(nil), counter)
		_, _, err := s.First(context.Background())
		require.NoError(t, err)
	}()
	require.True(t, counter.Pinned())

	require.Eventually(t, func() bool {
		runtime.GC()
		return !counter.Pinned()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.Ends())
	assert.Equal(t, 1, coll.Cursors()[0].Closes())
}

func TestSequenceCountCancellation(t *testing.T) {
	t.Run("a cancelled caller does not fail the others", func(t *testing.T) {
		f := newFixture(3)
		release := make(chan struct{})
		entered := make(chan struct{}, 4)
		f.coll.CountHook = func(ctx context.Context) error {
			entered <- struct{}{}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				return nil
			}
		}
		s := f.sequence()

		ctxA, cancelA := context.WithCancel(context.Background())
		defer cancelA()
		errA := make(chan error, 1)
		go func() {
			_, err := s.Count(ctxA)
			errA <- err
		}()
		<-entered

		type result struct {
			n   int64
			err error
		}
		resB := make(chan result, 1)
		go func() {
			n, err := s.Count(context.Background())
			resB <- result{n: n, err: err}
		}()

		cancelA()
		assert.ErrorIs(t, <-errA, context.Canceled)

		close(release)
		got := <-resB
		require.NoError(t, got.err)
		assert.Equal(t, int64(3), got.n)

		require.Eventually(t, func() bool {
			return !f.counter.Pinned()
		}, 5*time.Second, 10*time.Millisecond)
	})
	t.Run("the shared count stops once every caller is gone", func(t *testing.T) {
		f := newFixture(3)
		entered := make(chan struct{}, 1)
		stopped := make(chan error, 1)
		f.coll.CountHook = func(ctx context.Context) error {
			entered <- struct{}{}
			<-ctx.Done()
			stopped <- ctx.Err()
			return ctx.Err()
		}
		s := f.sequence()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-entered
			cancel()
		}()
		_, err := s.Count(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		select {
		case err := <-stopped:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("count query kept running after its only caller left")
		}
		require.Eventually(t, func() bool {
			return !f.counter.Pinned()
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestSequenceSearch(t *testing.T) {
	ctx := context.Background()
	docs := drivertest.Documents(5)

	t.Run("index of stops reading at the first match", func(t *testing.T) {
		f := newFixture(5)
		s := f.sequence()

		i, err := s.IndexOf(ctx, docs[1])
		require.NoError(t, err)
		assert.Equal(t, 1, i)
		assert.Equal(t, 2, f.coll.Pulls())
		assert.False(t, s.Realized())
	})
	t.Run("contains", func(t *testing.T) {
		f := newFixture(5)
		s := f.sequence()

		ok, err := s.Contains(ctx, docs[0])
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, f.coll.Pulls())

		ok, err = s.Contains(ctx, drivertest.Documents(6)[5])
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, s.Realized())
	})
	t.Run("last index of", func(t *testing.T) {
		f := newFixture(5)
		s := f.sequence()

		i, err := s.LastIndexOf(ctx, docs[3])
		require.NoError(t, err)
		assert.Equal(t, 3, i)
		assert.True(t, s.Realized())

		i, err = s.IndexOf(ctx, bson.Raw{})
		require.NoError(t, err)
		assert.Equal(t, -1, i)
	})
	t.Run("cons leaves the shared documents alone", func(t *testing.T) {
		f := newFixture(2)
		s := f.sequence()
		extra := drivertest.Documents(3)[2]

		c := s.Cons(extra)
		first, ok, err := c.First(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, extra, first)
		assert.Equal(t, 0, f.coll.Finds())

		all, err := c.Slice(ctx)
		require.NoError(t, err)
		assert.Equal(t, []bson.Raw{extra, docs[0], docs[1]}, all)

		got, err := s.Slice(ctx)
		require.NoError(t, err)
		assert.Equal(t, docs[:2], got)
		assert.Equal(t, 1, f.coll.Finds())
	})
}
