// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package cursor ties the lifetime of one pin.Lease to one streaming driver.Cursor.
package cursor // import "github.com/ikmak/mongoika/cursor"

import (
	"context"
	"errors"
	"runtime"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/atomic"

	"github.com/ikmak/mongoika/driver"
	"github.com/ikmak/mongoika/event"
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/internal/optionsutil"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/pin"
)

// ErrClosed is returned by any read on a LeasedCursor after it was closed, drained or failed.
var ErrClosed = errors.New("leased cursor is closed")

// LeasedCursor owns a driver.Cursor and, optionally, the lease that keeps its handle pinned. The lease is
// released when the cursor closes, which happens when HasNext reports the end, when a read fails, or when
// Close is called. A typical usage is:
//
//	lc := cursor.New(cur, lease)
//	defer lc.Close(ctx)
//
//	for {
//		ok, err := lc.HasNext(ctx)
//		if err != nil || !ok {
//			break
//		}
//		doc, err := lc.Next(ctx)
//		// do something with doc...
//	}
//
// A LeasedCursor is owned by one goroutine at a time. One that is dropped without being closed is closed by
// a runtime cleanup once it is garbage collected.
type LeasedCursor struct {
	state      *cursorState
	cleanup    runtime.Cleanup
	hasCleanup bool
}

type cursorState struct {
	cursor  driver.Cursor
	lease   *pin.Lease
	monitor *event.CursorMonitor
	logger  *logger.Logger

	closed atomic.Bool
	pulled int
}

// New returns a LeasedCursor owning c and lease. lease may be nil when the query needs no pin.
func New(c driver.Cursor, lease *pin.Lease, opts ...*options.CursorOptions) *LeasedCursor {
	co := options.MergeCursorOptions(opts...)

	state := &cursorState{
		cursor:  c,
		lease:   lease,
		monitor: co.Monitor,
		logger:  optionsutil.NewLogger(co.Logger),
	}
	lc := &LeasedCursor{state: state}
	if optionsutil.Bool(co.LeakCleanup, options.DefaultLeakCleanup) {
		lc.cleanup = runtime.AddCleanup(lc, closeCollected, state)
		lc.hasCleanup = true
	}
	return lc
}

// HasNext reports whether Next will produce a document. When the underlying cursor reports the end the
// LeasedCursor closes itself, so a drained cursor needs no explicit Close.
func (lc *LeasedCursor) HasNext(ctx context.Context) (bool, error) {
	s := lc.state
	if s.closed.Load() {
		return false, ErrClosed
	}

	ok, err := s.cursor.HasNext(ctx)
	if err != nil {
		return false, lc.fail(ctx, event.CursorFailed, err)
	}
	if !ok {
		s.publish(event.CursorExhausted, false, nil)
		s.logger.Print(logger.LevelDebug, logger.ComponentCursor, "cursor exhausted", logger.KeyCount, s.pulled)
		return false, lc.Close(ctx)
	}
	return true, nil
}

// Next returns the next document. Calling Next past the end closes the LeasedCursor and returns the
// driver.ErrExhausted error; any other driver error also closes it and is returned unchanged.
func (lc *LeasedCursor) Next(ctx context.Context) (bson.Raw, error) {
	s := lc.state
	if s.closed.Load() {
		return nil, ErrClosed
	}

	doc, err := s.cursor.Next(ctx)
	if err != nil {
		typ := event.CursorFailed
		if errors.Is(err, driver.ErrExhausted) {
			typ = event.CursorExhausted
		}
		return nil, lc.fail(ctx, typ, err)
	}

	s.pulled++
	s.publish(event.CursorPulled, false, nil)
	return doc, nil
}

// All drains the remaining documents. The LeasedCursor is closed when All returns.
func (lc *LeasedCursor) All(ctx context.Context) ([]bson.Raw, error) {
	var docs []bson.Raw
	for {
		ok, err := lc.HasNext(ctx)
		if err != nil {
			return docs, err
		}
		if !ok {
			return docs, nil
		}

		doc, err := lc.Next(ctx)
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}

// Close closes the underlying cursor and then releases the lease. The lease is released even if closing the
// cursor fails; the cursor's error is returned in preference to the lease's. Close is idempotent.
func (lc *LeasedCursor) Close(ctx context.Context) error {
	err := lc.state.close(ctx, false)
	if lc.hasCleanup {
		lc.cleanup.Stop()
	}
	return err
}

// Closed reports whether the LeasedCursor has been closed.
func (lc *LeasedCursor) Closed() bool {
	return lc.state.closed.Load()
}

// Pulled returns the number of documents produced so far.
func (lc *LeasedCursor) Pulled() int {
	return lc.state.pulled
}

// fail closes the cursor after a read error. The read error stays first so errors.Is finds it; a close
// error is joined behind it.
func (lc *LeasedCursor) fail(ctx context.Context, typ string, err error) error {
	s := lc.state
	s.publish(typ, false, err)
	if typ == event.CursorFailed {
		s.logger.Error(logger.ComponentCursor, err, "cursor read failed", logger.KeyCount, s.pulled)
	}

	if cerr := lc.Close(ctx); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

func (s *cursorState) close(ctx context.Context, collected bool) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	cerr := s.cursor.Close(ctx)
	lerr := s.lease.Release(ctx)

	s.publish(event.CursorClosed, collected, cerr)
	if collected {
		s.logger.Print(logger.LevelInfo, logger.ComponentCursor, "unclosed cursor collected",
			logger.KeyCount, s.pulled, logger.KeyFinalized, true)
	} else {
		s.logger.Print(logger.LevelDebug, logger.ComponentCursor, "cursor closed", logger.KeyCount, s.pulled)
	}

	if cerr != nil {
		return cerr
	}
	return lerr
}

func (s *cursorState) publish(typ string, collected bool, err error) {
	if s.monitor == nil || s.monitor.Event == nil {
		return
	}
	s.monitor.Event(&event.CursorEvent{
		Type:      typ,
		Pulled:    s.pulled,
		Finalized: collected,
		Failure:   err,
	})
}

func closeCollected(s *cursorState) {
	_ = s.close(context.Background(), true)
}
