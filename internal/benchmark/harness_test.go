// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkCountBeforeRealization(b *testing.B) { WrapCase(CountBeforeRealization)(b) }
func BenchmarkCountAfterRealization(b *testing.B)  { WrapCase(CountAfterRealization)(b) }
func BenchmarkFullRealization(b *testing.B)        { WrapCase(FullRealization)(b) }
func BenchmarkMemoizedReads(b *testing.B)          { WrapCase(MemoizedReads)(b) }
func BenchmarkNestedLeases(b *testing.B)           { WrapCase(NestedLeases)(b) }
func BenchmarkLeasedCursorDrain(b *testing.B)      { WrapCase(LeasedCursorDrain)(b) }

func TestCases(t *testing.T) {
	ctx := context.Background()
	for _, bc := range getAllCases() {
		t.Run(bc.Name(), func(t *testing.T) {
			require.NoError(t, bc.Bench(ctx, &trialTimer{}, 3))
		})
	}
}

func TestCaseDefinition(t *testing.T) {
	t.Run("run", func(t *testing.T) {
		var out bytes.Buffer
		c := &CaseDefinition{Bench: NestedLeases, Count: 10, Size: -1, Runtime: time.Millisecond}

		res := c.Run(context.Background(), &out)
		assert.Equal(t, "NestedLeases", res.Name)
		assert.GreaterOrEqual(t, res.Trials, MinIterations)
		assert.Len(t, res.Raw, res.Trials)
		assert.False(t, res.HasErrors())
		assert.Contains(t, out.String(), "=== RUN NestedLeases")
		assert.Contains(t, out.String(), "--- PASS: NestedLeases")

		report, err := res.PerfFormat()
		require.NoError(t, err)
		require.Len(t, report, 1)
		assert.Equal(t, "NestedLeases-throughput", report[0].Info.TestName)
		assert.Len(t, report[0].Metrics, 5)
	})
	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := &CaseDefinition{Bench: NestedLeases, Count: 1, Runtime: time.Hour}

		res := c.Run(ctx, &bytes.Buffer{})
		assert.Equal(t, 0, res.Trials)
	})
	t.Run("failures", func(t *testing.T) {
		var out bytes.Buffer
		failing := func(context.Context, TimerManager, int) error { return errors.New("boom") }
		c := &CaseDefinition{Bench: failing, Count: 1, Runtime: time.Millisecond}

		res := c.Run(context.Background(), &out)
		assert.True(t, res.HasErrors())
		assert.Contains(t, out.String(), "--- FAIL")
		assert.Len(t, res.ErrReport(), res.Trials)

		_, err := res.PerfFormat()
		assert.Error(t, err)
	})
}

func TestBenchResult(t *testing.T) {
	res := &BenchResult{
		Name:       "case",
		Operations: 10,
		DataSize:   1000,
		Duration:   3 * time.Second,
		Raw: []Result{
			{Duration: time.Second},
			{Duration: 2 * time.Second},
			{Duration: 4 * time.Second},
			{Duration: time.Hour, Error: errors.New("ignored")},
		},
	}

	report, err := res.PerfFormat()
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, Metric{Name: "ops_per_second", Value: 5.0}, report[0].Metrics[1])
	assert.Equal(t, Metric{Name: "ops_per_second_min", Value: 2.5}, report[0].Metrics[2])
	assert.Equal(t, Metric{Name: "ops_per_second_max", Value: 10.0}, report[0].Metrics[3])
	assert.Equal(t, "case-MB-adjusted", report[1].Info.TestName)
	assert.Equal(t, Metric{Name: "ops_per_second", Value: 500.0}, report[1].Metrics[1])
	assert.Contains(t, res.String(), "name=case")
}
