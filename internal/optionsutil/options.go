// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package optionsutil

import (
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/options"
)

// NewLogger builds the internal logger described by the given options. A nil LoggerOptions still yields a
// logger whose levels come from the MONGOIKA_LOG_* environment variables.
func NewLogger(lo *options.LoggerOptions) *logger.Logger {
	if lo == nil {
		return logger.New(nil)
	}

	levels := make(map[logger.Component]logger.Level, len(lo.ComponentLevels))
	for component, level := range lo.ComponentLevels {
		levels[logger.Component(component)] = logger.Level(level)
	}

	var sink logger.LogSink
	if lo.Sink != nil {
		sink = lo.Sink
	}

	return logger.New(sink, levels)
}

// Bool dereferences b, returning def when b is nil.
func Bool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
