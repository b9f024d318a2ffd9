// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import "github.com/ikmak/mongoika/event"

// CursorOptions represents the possible options for leased cursors
type CursorOptions struct {
	Monitor *event.CursorMonitor // Receives pulls, exhaustion, failures and closes
	Logger  *LoggerOptions       // Logging configuration for the cursor component
	// LeakCleanup registers a runtime cleanup that closes a cursor dropped without being drained or closed.
	LeakCleanup *bool
}

// Cursor returns a pointer to a new CursorOptions
func Cursor() *CursorOptions {
	return &CursorOptions{}
}

// SetMonitor specifies a monitor for cursor events
func (co *CursorOptions) SetMonitor(m *event.CursorMonitor) *CursorOptions {
	co.Monitor = m
	return co
}

// SetLoggerOptions specifies the logging configuration
func (co *CursorOptions) SetLoggerOptions(lo *LoggerOptions) *CursorOptions {
	co.Logger = lo
	return co
}

// SetLeakCleanup enables or disables the garbage collection backstop for abandoned cursors
func (co *CursorOptions) SetLeakCleanup(b bool) *CursorOptions {
	co.LeakCleanup = &b
	return co
}

// MergeCursorOptions combines the argued CursorOptions into a single CursorOptions in a last-one-wins fashion
func MergeCursorOptions(opts ...*CursorOptions) *CursorOptions {
	cursorOpts := Cursor()
	for _, co := range opts {
		if co == nil {
			continue
		}
		if co.Monitor != nil {
			cursorOpts.Monitor = co.Monitor
		}
		if co.Logger != nil {
			cursorOpts.Logger = co.Logger
		}
		if co.LeakCleanup != nil {
			cursorOpts.LeakCleanup = co.LeakCleanup
		}
	}
	if cursorOpts.LeakCleanup == nil {
		cursorOpts.LeakCleanup = &DefaultLeakCleanup
	}

	return cursorOpts
}
