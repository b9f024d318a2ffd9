// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package drivertest provides in-memory implementations of the driver interfaces that count every call, for
// use in tests and benchmarks.
package drivertest

import (
	"context"
	"errors"
	"sync"

	"github.com/ikmak/mongoika/driver"
)

// ErrUnbalanced is recorded when BeginPinned is called on a pinned Handle or EndPinned on an unpinned one.
var ErrUnbalanced = errors.New("unbalanced pin calls")

// Handle implements the driver.Handle interface. It records every call in Log, which may be shared with a
// Collection to check ordering between pins and pulls.
type Handle struct {
	BeginErr error
	EndErr   error
	Log      *Log

	mu        sync.Mutex
	pinned    bool
	begins    int
	ends      int
	violation error
}

var _ driver.Handle = (*Handle)(nil)

// NewHandle returns a Handle writing to log. A nil log allocates a new one.
func NewHandle(log *Log) *Handle {
	if log == nil {
		log = &Log{}
	}
	return &Handle{Log: log}
}

// BeginPinned implements the driver.Handle interface.
func (h *Handle) BeginPinned(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Log.Append("begin")
	if h.BeginErr != nil {
		return h.BeginErr
	}
	if h.pinned {
		h.violation = ErrUnbalanced
	}
	h.pinned = true
	h.begins++
	return nil
}

// EndPinned implements the driver.Handle interface.
func (h *Handle) EndPinned(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Log.Append("end")
	if !h.pinned {
		h.violation = ErrUnbalanced
	}
	h.pinned = false
	h.ends++
	return h.EndErr
}

// Pinned reports whether the handle is currently pinned.
func (h *Handle) Pinned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pinned
}

// Begins returns the number of successful BeginPinned calls.
func (h *Handle) Begins() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.begins
}

// Ends returns the number of EndPinned calls.
func (h *Handle) Ends() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ends
}

// Violation returns ErrUnbalanced if the handle ever saw an unbalanced call.
func (h *Handle) Violation() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.violation
}

// Log is an ordered, goroutine-safe record of driver calls.
type Log struct {
	mu      sync.Mutex
	entries []string
}

// Append records an entry.
func (l *Log) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}
