// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import (
	"github.com/ikmak/mongoika/event"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

// SequenceOptions represents the possible options for a query sequence
type SequenceOptions struct {
	Monitor       *event.SequenceMonitor // Receives opens, count decisions and closes
	CursorOptions *CursorOptions         // Applied to the leased cursor opened on first demand
	Logger        *LoggerOptions         // Logging configuration for the sequence component
	Registry      *bsoncodec.Registry    // Used by Decode and DecodeAll, bson.DefaultRegistry when nil
	Meta          map[string]interface{} // Initial metadata of the sequence
}

// Sequence returns a pointer to a new SequenceOptions
func Sequence() *SequenceOptions {
	return &SequenceOptions{}
}

// SetMonitor specifies a monitor for sequence events
func (so *SequenceOptions) SetMonitor(m *event.SequenceMonitor) *SequenceOptions {
	so.Monitor = m
	return so
}

// SetCursorOptions specifies the options of the leased cursor backing the sequence
func (so *SequenceOptions) SetCursorOptions(co *CursorOptions) *SequenceOptions {
	so.CursorOptions = co
	return so
}

// SetLoggerOptions specifies the logging configuration
func (so *SequenceOptions) SetLoggerOptions(lo *LoggerOptions) *SequenceOptions {
	so.Logger = lo
	return so
}

// SetRegistry specifies the registry used to decode documents
func (so *SequenceOptions) SetRegistry(r *bsoncodec.Registry) *SequenceOptions {
	so.Registry = r
	return so
}

// SetMeta specifies the initial metadata of the sequence
func (so *SequenceOptions) SetMeta(meta map[string]interface{}) *SequenceOptions {
	so.Meta = meta
	return so
}

// MergeSequenceOptions combines the argued SequenceOptions into a single SequenceOptions in a last-one-wins fashion
func MergeSequenceOptions(opts ...*SequenceOptions) *SequenceOptions {
	seqOpts := Sequence()
	for _, so := range opts {
		if so == nil {
			continue
		}
		if so.Monitor != nil {
			seqOpts.Monitor = so.Monitor
		}
		if so.CursorOptions != nil {
			seqOpts.CursorOptions = so.CursorOptions
		}
		if so.Logger != nil {
			seqOpts.Logger = so.Logger
		}
		if so.Registry != nil {
			seqOpts.Registry = so.Registry
		}
		if so.Meta != nil {
			seqOpts.Meta = so.Meta
		}
	}

	return seqOpts
}
