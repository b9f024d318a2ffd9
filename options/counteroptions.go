// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import "github.com/ikmak/mongoika/event"

// DefaultLeakCleanup is the default value for the LeakCleanup option.
var DefaultLeakCleanup = true

// CounterOptions represents the possible options for a pin counter.
type CounterOptions struct {
	Monitor *event.PinMonitor // Receives pin and lease transitions
	Logger  *LoggerOptions    // Logging configuration for the pin component
	// LeakCleanup registers a runtime cleanup on every lease so that a lease dropped without Release is still
	// released once it is garbage collected.
	LeakCleanup *bool
}

// Counter returns a pointer to a new CounterOptions
func Counter() *CounterOptions {
	return &CounterOptions{}
}

// SetMonitor specifies a monitor for pin and lease transitions
func (co *CounterOptions) SetMonitor(m *event.PinMonitor) *CounterOptions {
	co.Monitor = m
	return co
}

// SetLoggerOptions specifies the logging configuration
func (co *CounterOptions) SetLoggerOptions(lo *LoggerOptions) *CounterOptions {
	co.Logger = lo
	return co
}

// SetLeakCleanup enables or disables the garbage collection backstop for unreleased leases
func (co *CounterOptions) SetLeakCleanup(b bool) *CounterOptions {
	co.LeakCleanup = &b
	return co
}

// MergeCounterOptions combines the argued CounterOptions into a single CounterOptions in a last-one-wins fashion
func MergeCounterOptions(opts ...*CounterOptions) *CounterOptions {
	counterOpts := Counter()
	for _, co := range opts {
		if co == nil {
			continue
		}
		if co.Monitor != nil {
			counterOpts.Monitor = co.Monitor
		}
		if co.Logger != nil {
			counterOpts.Logger = co.Logger
		}
		if co.LeakCleanup != nil {
			counterOpts.LeakCleanup = co.LeakCleanup
		}
	}
	if counterOpts.LeakCleanup == nil {
		counterOpts.LeakCleanup = &DefaultLeakCleanup
	}

	return counterOpts
}
