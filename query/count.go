// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package query

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// countFlight lets concurrent callers share one remote count. The shared call does not run on any one
// caller's context: each caller waits on its own context, and the call is cancelled once every caller
// waiting on it has returned.
type countFlight struct {
	group singleflight.Group

	mu      sync.Mutex
	gen     int
	waiters int
	callCtx context.Context
	cancel  context.CancelFunc
}

func (cf *countFlight) do(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	key, callCtx := cf.join(ctx)
	defer cf.leave()

	ch := cf.group.DoChan(key, func() (interface{}, error) {
		return fn(callCtx)
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	}
}

// join registers a waiter. The first waiter of a generation starts a new call context, so a caller never
// joins a call that was cancelled because everyone else left.
func (cf *countFlight) join(ctx context.Context) (string, context.Context) {
	cf.mu.Lock()
	defer cf.mu.Unlock()

	if cf.waiters == 0 {
		cf.gen++
		cf.callCtx, cf.cancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	cf.waiters++
	return strconv.Itoa(cf.gen), cf.callCtx
}

func (cf *countFlight) leave() {
	cf.mu.Lock()
	defer cf.mu.Unlock()

	cf.waiters--
	if cf.waiters == 0 {
		cf.cancel()
	}
}
