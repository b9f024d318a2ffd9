// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package event // import "github.com/ikmak/mongoika/event"

// strings for pin monitoring types
const (
	PinStarted     = "PinStarted"
	PinStartFailed = "PinStartFailed"
	PinEnded       = "PinEnded"
	PinEndFailed   = "PinEndFailed"
	LeaseAcquired  = "LeaseAcquired"
	LeaseReleased  = "LeaseReleased"
)

// PinEvent contains all information summarizing a pin or lease transition. ActiveLeases is the counter value
// after the transition.
type PinEvent struct {
	Type         string `json:"type"`
	ActiveLeases int    `json:"activeLeases"`
	// Finalized is set when a lease was released by the leak backstop instead of by its owner.
	Finalized bool  `json:"finalized"`
	Failure   error `json:"-"`
}

// PinMonitor is a function that allows the user to gain access to pin and lease transitions. Event is called
// while the counter's lock is held and must not call back into the counter.
type PinMonitor struct {
	Event func(*PinEvent)
}

// strings for cursor monitoring types
const (
	CursorPulled    = "CursorPulled"
	CursorExhausted = "CursorExhausted"
	CursorFailed    = "CursorFailed"
	CursorClosed    = "CursorClosed"
)

// CursorEvent contains all information summarizing a leased cursor event.
type CursorEvent struct {
	Type string `json:"type"`
	// Pulled is the number of documents produced by the cursor so far.
	Pulled    int   `json:"pulled"`
	Finalized bool  `json:"finalized"`
	Failure   error `json:"-"`
}

// CursorMonitor is a function that allows the user to gain access to leased cursor events.
type CursorMonitor struct {
	Event func(*CursorEvent)
}

// strings for sequence monitoring types
const (
	SequenceOpened   = "SequenceOpened"
	SequenceRealized = "SequenceRealized"
	SequenceClosed   = "SequenceClosed"
	CountServed      = "CountServed"
	CountFailed      = "CountFailed"
)

// strings for the source of a served count
const (
	CountSourceCache  = "cache"
	CountSourceRemote = "remote"
)

// SequenceEvent contains all information summarizing a query sequence event.
type SequenceEvent struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	// Source is one of CountSourceCache or CountSourceRemote for count events.
	Source   string `json:"source,omitempty"`
	Count    int64  `json:"count"`
	Realized int    `json:"realized"`
	Failure  error  `json:"-"`
}

// SequenceMonitor is a function that allows the user to gain access to query sequence events.
type SequenceMonitor struct {
	Event func(*SequenceEvent)
}
