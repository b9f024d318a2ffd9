// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"strings"
)

// DiffToInfo is the number of levels that come before the "Info" level. This ensures that "Info" is the 0th
// level passed to the sink.
const DiffToInfo = 1

// Level is an enumeration representing the supported log severity levels.
//
// The order of the logging levels is important. A sink is most likely a logr.LogSink, which defaults
// InfoLevel as 0. Any additions before LevelInfo need to also update DiffToInfo.
type Level int

const (
	// LevelOff suppresses logging.
	LevelOff Level = iota

	// LevelInfo enables logging of informational messages: pins starting and ending, sequences closing.
	LevelInfo

	// LevelDebug enables logging of debug messages: every lease, every cursor pull, every count decision.
	LevelDebug
)

// LevelLiteral are the accepted textual forms of a level. Syslog-style severities are folded onto the two
// levels that exist.
type LevelLiteral string

const (
	OffLevelLiteral       LevelLiteral = "off"
	EmergencyLevelLiteral LevelLiteral = "emergency"
	AlertLevelLiteral     LevelLiteral = "alert"
	CriticalLevelLiteral  LevelLiteral = "critical"
	ErrorLevelLiteral     LevelLiteral = "error"
	WarnLevelLiteral      LevelLiteral = "warn"
	NoticeLevelLiteral    LevelLiteral = "notice"
	InfoLevelLiteral      LevelLiteral = "info"
	DebugLevelLiteral     LevelLiteral = "debug"
	TraceLevelLiteral     LevelLiteral = "trace"
)

// Level will return the Level associated with the level literal. If the literal is not a valid level, then
// LevelOff is returned.
func (llevel LevelLiteral) Level() Level {
	switch llevel {
	case EmergencyLevelLiteral, AlertLevelLiteral, CriticalLevelLiteral,
		ErrorLevelLiteral, WarnLevelLiteral, NoticeLevelLiteral, InfoLevelLiteral:
		return LevelInfo
	case DebugLevelLiteral, TraceLevelLiteral:
		return LevelDebug
	default:
		return LevelOff
	}
}

func (llevel LevelLiteral) equalFold(str string) bool {
	return strings.EqualFold(string(llevel), str)
}

// AllLevelLiterals returns every accepted level literal.
func AllLevelLiterals() []LevelLiteral {
	return []LevelLiteral{
		OffLevelLiteral,
		EmergencyLevelLiteral,
		AlertLevelLiteral,
		CriticalLevelLiteral,
		ErrorLevelLiteral,
		WarnLevelLiteral,
		NoticeLevelLiteral,
		InfoLevelLiteral,
		DebugLevelLiteral,
		TraceLevelLiteral,
	}
}

// ParseLevel will check if the given string is a valid level literal. If it is, then it will return the
// Level. The default Level is LevelOff.
func ParseLevel(level string) Level {
	for _, llevel := range AllLevelLiterals() {
		if llevel.equalFold(level) {
			return llevel.Level()
		}
	}

	return LevelOff
}
