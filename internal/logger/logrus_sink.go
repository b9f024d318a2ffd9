// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
)

// NewLogrusSink returns a logr.LogSink backed by the given logrus logger. A nil logger selects
// logrus.StandardLogger with its level raised to debug so that the component levels decide what is printed.
func NewLogrusSink(l *logrus.Logger) logr.LogSink {
	if l == nil {
		l = logrus.StandardLogger()
		l.SetLevel(logrus.DebugLevel)
	}

	return logrusr.New(l).GetSink()
}
