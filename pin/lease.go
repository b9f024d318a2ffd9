// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package pin

import (
	"context"
	"runtime"

	"go.uber.org/atomic"
)

// Lease is one claim on a pinned handle. Release it exactly when the work it covers is finished; releasing more
// than once is a no-op.
//
// A Lease dropped without Release is released by a runtime cleanup once it is garbage collected. That is a leak
// backstop with no timing guarantee.
type Lease struct {
	state      *leaseState
	cleanup    runtime.Cleanup
	hasCleanup bool
}

// leaseState is everything the runtime cleanup needs. It must not point back at its Lease, or the Lease would
// never become unreachable.
type leaseState struct {
	counter  *Counter
	released atomic.Bool
}

// Release gives the claim back. Only the first call decrements the counter; when it was the last outstanding
// lease the handle is unpinned and any error doing so is returned. Release may be called from any goroutine.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}

	err := l.state.release(ctx, false)
	if l.hasCleanup {
		l.cleanup.Stop()
	}
	return err
}

// Released reports whether Release has been called.
func (l *Lease) Released() bool {
	return l == nil || l.state.released.Load()
}

func (s *leaseState) release(ctx context.Context, collected bool) error {
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}
	return s.counter.decrement(ctx, collected)
}

func releaseCollected(s *leaseState) {
	_ = s.release(context.Background(), true)
}
