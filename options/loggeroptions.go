// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import (
	"github.com/ikmak/mongoika/internal/logger"
)

// LogLevel is an enumeration representing the supported log severity levels.
type LogLevel int

const (
	// LogLevelInfo enables logging of informational messages: pins starting and ending, sequences closing and
	// leases released by the leak backstop.
	LogLevelInfo LogLevel = LogLevel(logger.LevelInfo)

	// LogLevelDebug enables logging of debug messages. These logs can be voluminous. Example: every lease
	// acquired and every count decision.
	LogLevelDebug LogLevel = LogLevel(logger.LevelDebug)
)

// LogComponent is an enumeration representing the "components" which can be logged against. A LogLevel can be
// configured on a per-component basis.
type LogComponent int

const (
	// LogComponentAll enables logging for all components.
	LogComponentAll LogComponent = LogComponent(logger.ComponentAll)

	// LogComponentPin enables pin counter and lease logging.
	LogComponentPin LogComponent = LogComponent(logger.ComponentPin)

	// LogComponentCursor enables leased cursor logging.
	LogComponentCursor LogComponent = LogComponent(logger.ComponentCursor)

	// LogComponentSequence enables query sequence logging.
	LogComponentSequence LogComponent = LogComponent(logger.ComponentSequence)
)

// LogSink is an interface that can be implemented to provide a custom sink for logs. Any logr.LogSink satisfies
// it.
type LogSink interface {
	// Info logs a non-error message with the given key/value pairs. The level argument is provided for
	// optional logging.
	Info(level int, message string, keysAndValues ...interface{})

	// Error logs an error, with the given message and key/value pairs.
	Error(err error, message string, keysAndValues ...interface{})
}

// ComponentLevels maps components to their log level.
type ComponentLevels map[LogComponent]LogLevel

// LoggerOptions represent options used to configure logging.
type LoggerOptions struct {
	ComponentLevels ComponentLevels

	// Sink is the LogSink that will be used to log messages. If this is nil, messages go to the logrus standard
	// logger.
	Sink LogSink
}

// Logger creates a new LoggerOptions instance.
func Logger() *LoggerOptions {
	return &LoggerOptions{
		ComponentLevels: ComponentLevels{},
	}
}

// SetComponentLevel sets the LogLevel value for a LogComponent.
func (opts *LoggerOptions) SetComponentLevel(component LogComponent, level LogLevel) *LoggerOptions {
	if opts.ComponentLevels == nil {
		opts.ComponentLevels = ComponentLevels{}
	}
	opts.ComponentLevels[component] = level

	return opts
}

// SetSink sets the LogSink to use for logging.
func (opts *LoggerOptions) SetSink(sink LogSink) *LoggerOptions {
	opts.Sink = sink

	return opts
}
