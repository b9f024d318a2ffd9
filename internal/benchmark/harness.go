// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package benchmark measures pinning, cursor and sequence overhead against in-memory drivers, either as Go
// benchmarks or as timed trials summarized by BenchResult.
package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	ExecutionTimeout = 5 * time.Minute
	StandardRuntime  = time.Minute
	MinimumRuntime   = 10 * time.Second
	MinIterations    = 100

	ten         = 10
	hundred     = ten * ten
	thousand    = ten * hundred
	tenThousand = ten * thousand
)

// TimerManager is the part of *testing.B a case uses to keep setup out of the measurement.
type TimerManager interface {
	ResetTimer()
	StartTimer()
	StopTimer()
}

type BenchCase func(context.Context, TimerManager, int) error
type BenchFunction func(*testing.B)

func WrapCase(bench BenchCase) BenchFunction {
	name := getName(bench)
	return func(b *testing.B) {
		ctx := context.Background()
		b.ResetTimer()
		err := bench(ctx, b, b.N)
		require.NoError(b, err, "case='%s'", name)
	}
}

func getAllCases() []*CaseDefinition {
	return []*CaseDefinition{
		{
			Bench:   CountBeforeRealization,
			Count:   tenThousand,
			Size:    -1,
			Runtime: MinimumRuntime,
		},
		{
			Bench:   CountAfterRealization,
			Count:   tenThousand,
			Size:    -1,
			Runtime: MinimumRuntime,
		},
		{
			Bench:   FullRealization,
			Count:   hundred,
			Size:    corpusSize(),
			Runtime: StandardRuntime,
		},
		{
			Bench:   MemoizedReads,
			Count:   tenThousand,
			Size:    -1,
			Runtime: StandardRuntime,
		},
		{
			Bench:   NestedLeases,
			Count:   tenThousand,
			Size:    -1,
			Runtime: StandardRuntime,
		},
		{
			Bench:   LeasedCursorDrain,
			Count:   hundred,
			Size:    corpusSize(),
			Runtime: StandardRuntime,
		},
	}
}
