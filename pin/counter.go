// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package pin keeps a driver.Handle pinned for as long as at least one Lease on it is outstanding.
//
// Nested logical operations on the same handle share one pin: the first lease begins it, the last release
// ends it. A typical usage is:
//
//	counter := pin.NewCounter(handle)
//	err := counter.Do(ctx, func(ctx context.Context) error {
//		// every read here sees the same pinned session
//		return nil
//	})
package pin // import "github.com/ikmak/mongoika/pin"

import (
	"context"
	"runtime"
	"sync"

	"github.com/ikmak/mongoika/driver"
	"github.com/ikmak/mongoika/event"
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/internal/optionsutil"
	"github.com/ikmak/mongoika/options"
)

// Counter is the nested reference counter of one driver.Handle. It is the only caller of the handle's
// BeginPinned and EndPinned. The zero value is not usable; create one with NewCounter per handle.
type Counter struct {
	handle  driver.Handle
	monitor *event.PinMonitor
	logger  *logger.Logger
	cleanup bool

	// mu serializes the 0↔1 transitions together with the handle calls they trigger.
	mu     sync.Mutex
	active int
}

// NewCounter returns a Counter for h.
func NewCounter(h driver.Handle, opts ...*options.CounterOptions) *Counter {
	co := options.MergeCounterOptions(opts...)

	return &Counter{
		handle:  h,
		monitor: co.Monitor,
		logger:  optionsutil.NewLogger(co.Logger),
		cleanup: optionsutil.Bool(co.LeakCleanup, options.DefaultLeakCleanup),
	}
}

// NewLease claims the handle. If no lease was outstanding the handle is pinned first; if that fails the error is
// returned and the counter is left unchanged.
func (c *Counter) NewLease(ctx context.Context) (*Lease, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == 0 {
		if err := c.handle.BeginPinned(ctx); err != nil {
			c.publish(event.PinStartFailed, false, err)
			c.logger.Error(logger.ComponentPin, err, "pin failed to start")
			return nil, err
		}
		c.publish(event.PinStarted, false, nil)
		c.logger.Print(logger.LevelInfo, logger.ComponentPin, "pin started")
	}
	c.active++
	c.publish(event.LeaseAcquired, false, nil)
	c.logger.Print(logger.LevelDebug, logger.ComponentPin, "lease acquired", logger.KeyActiveLeases, c.active)

	state := &leaseState{counter: c}
	lease := &Lease{state: state}
	if c.cleanup {
		lease.cleanup = runtime.AddCleanup(lease, releaseCollected, state)
		lease.hasCleanup = true
	}
	return lease, nil
}

// Do runs fn while holding a lease. The lease is released on every exit path, including a panic in fn. An
// error from fn takes precedence over an error ending the pin.
func (c *Counter) Do(ctx context.Context, fn func(context.Context) error) (err error) {
	lease, err := c.NewLease(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); err == nil {
			err = rerr
		}
	}()

	return fn(ctx)
}

// Active returns the number of outstanding leases.
func (c *Counter) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Pinned reports whether the handle is pinned, which is the case exactly when Active is non-zero.
func (c *Counter) Pinned() bool {
	return c.Active() > 0
}

func (c *Counter) decrement(ctx context.Context, collected bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active--
	c.publish(event.LeaseReleased, collected, nil)
	if collected {
		c.logger.Print(logger.LevelInfo, logger.ComponentPin, "unreleased lease collected",
			logger.KeyActiveLeases, c.active, logger.KeyFinalized, true)
	} else {
		c.logger.Print(logger.LevelDebug, logger.ComponentPin, "lease released", logger.KeyActiveLeases, c.active)
	}
	if c.active > 0 {
		return nil
	}

	// The lease is gone whether or not the handle accepts the unpin, so the count stays at zero.
	if err := c.handle.EndPinned(ctx); err != nil {
		c.publish(event.PinEndFailed, collected, err)
		c.logger.Error(logger.ComponentPin, err, "pin failed to end")
		return err
	}
	c.publish(event.PinEnded, collected, nil)
	c.logger.Print(logger.LevelInfo, logger.ComponentPin, "pin ended")
	return nil
}

func (c *Counter) publish(typ string, collected bool, err error) {
	if c.monitor == nil || c.monitor.Event == nil {
		return
	}
	c.monitor.Event(&event.PinEvent{
		Type:         typ,
		ActiveLeases: c.active,
		Finalized:    collected,
		Failure:      err,
	})
}
