// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"
)

type CaseDefinition struct {
	Bench   BenchCase
	Count   int
	Size    int
	Runtime time.Duration

	startAt time.Time
}

// trialTimer excludes the time between StopTimer and StartTimer from a trial.
type trialTimer struct {
	startAt time.Time
	elapsed time.Duration
	running bool
}

func (t *trialTimer) ResetTimer() {
	t.elapsed = 0
	if t.running {
		t.startAt = time.Now()
	}
}

func (t *trialTimer) StartTimer() {
	if !t.running {
		t.startAt = time.Now()
		t.running = true
	}
}

func (t *trialTimer) StopTimer() {
	if t.running {
		t.elapsed += time.Since(t.startAt)
		t.running = false
	}
}

// Run repeats the case until both its runtime and MinIterations trials are reached, or ctx is done.
// Progress lines are written to w.
func (c *CaseDefinition) Run(ctx context.Context, w io.Writer) *BenchResult {
	out := &BenchResult{
		DataSize:   c.Size,
		Name:       c.Name(),
		Operations: c.Count,
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, ExecutionTimeout)
	defer cancel()

	fmt.Fprintln(w, "=== RUN", out.Name)
	c.startAt = time.Now()
	for {
		if time.Since(c.startAt) > c.Runtime && out.Trials >= MinIterations {
			break
		}
		if ctx.Err() != nil {
			break
		}

		res := Result{
			Iterations: c.Count,
		}
		timer := &trialTimer{}
		timer.StartTimer()
		res.Error = c.Bench(ctx, timer, c.Count)
		timer.StopTimer()
		res.Duration = timer.elapsed

		if errors.Is(res.Error, context.Canceled) || errors.Is(res.Error, context.DeadlineExceeded) {
			break
		}

		out.Trials++
		out.Raw = append(out.Raw, res)
	}
	out.Duration = time.Since(c.startAt)
	if out.HasErrors() {
		fmt.Fprintf(w, "--- FAIL: %s (%s)\n", out.Name, out.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "--- PASS: %s (%s)\n", out.Name, out.Duration.Round(time.Millisecond))
	}

	return out
}

func (c *CaseDefinition) String() string {
	return fmt.Sprintf("name=%s, count=%d, runtime=%s timeout=%s",
		c.Name(), c.Count, c.Runtime, ExecutionTimeout)
}

func (c *CaseDefinition) Name() string { return getName(c.Bench) }

func getName(i interface{}) string {
	n := runtime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
	parts := strings.Split(n, ".")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}

	return n
}
