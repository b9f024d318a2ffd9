// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package logger is the component/level logger shared by the pin, cursor and query packages. Messages are
// handed to a LogSink with the same shape as logr.LogSink, so any logr backend can receive them.
package logger

// LogSink represents a logging implementation. It is specifically designed to be a subset of go-logr/logr's
// LogSink interface.
type LogSink interface {
	// Info logs a non-error message with the given key/value pairs. The level argument is provided for
	// optional logging.
	Info(level int, msg string, keysAndValues ...interface{})

	// Error logs an error, with the given message and key/value pairs.
	Error(err error, msg string, keysAndValues ...interface{})
}

// Keys shared by every component.
const (
	KeyMessage      = "message"
	KeyComponent    = "component"
	KeyActiveLeases = "activeLeases"
	KeyCollection   = "collection"
	KeyParameters   = "parameters"
	KeyRealized     = "realized"
	KeyCount        = "count"
	KeySource       = "source"
	KeyFinalized    = "finalized"
)

// KeyValues is a list of alternating keys and values.
type KeyValues []interface{}

// Add adds a key/value pair to the list.
func (kvs *KeyValues) Add(key string, value interface{}) {
	*kvs = append(*kvs, key, value)
}

// Logger routes component messages to a LogSink when the component's level allows it. The zero value and a nil
// *Logger discard everything.
type Logger struct {
	ComponentLevels map[Component]Level
	Sink            LogSink
}

// New will construct a new logger with the given LogSink. If the given LogSink is nil, the logrus standard logger
// is used.
//
// The "componentLevels" parameter is variadic with the latest value taking precedence. Levels sourced from the
// environment are applied first.
func New(sink LogSink, componentLevels ...map[Component]Level) *Logger {
	if sink == nil {
		sink = NewLogrusSink(nil)
	}

	return &Logger{
		ComponentLevels: mergeComponentLevels(append(
			[]map[Component]Level{getEnvComponentLevels()},
			componentLevels...,
		)...),
		Sink: sink,
	}
}

// LevelComponentEnabled will return true if the given Level is enabled for the given Component. A level set for
// ComponentAll applies to components without their own setting.
func (logger *Logger) LevelComponentEnabled(level Level, component Component) bool {
	if logger == nil || logger.Sink == nil || level == LevelOff {
		return false
	}

	configured, ok := logger.ComponentLevels[component]
	if !ok {
		configured = logger.ComponentLevels[ComponentAll]
	}

	return configured >= level
}

// Print will synchronously print the given message to the configured LogSink. If the LogSink is nil or the level
// is not enabled for the component, then this method will do nothing.
func (logger *Logger) Print(level Level, component Component, msg string, keysAndValues ...interface{}) {
	if !logger.LevelComponentEnabled(level, component) {
		return
	}

	logger.Sink.Info(int(level)-DiffToInfo, msg, append(KeyValues{KeyComponent, component.String()}, keysAndValues...)...)
}

// Error logs an error for the given component. Errors are emitted whenever the component is not switched off.
func (logger *Logger) Error(component Component, err error, msg string, keysAndValues ...interface{}) {
	if !logger.LevelComponentEnabled(LevelInfo, component) {
		return
	}

	logger.Sink.Error(err, msg, append(KeyValues{KeyComponent, component.String()}, keysAndValues...)...)
}

func mergeComponentLevels(componentLevels ...map[Component]Level) map[Component]Level {
	merged := make(map[Component]Level)

	for _, levels := range componentLevels {
		for component, level := range levels {
			merged[component] = level
		}
	}

	return merged
}
