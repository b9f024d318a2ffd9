// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

type BenchResult struct {
	Name       string
	Trials     int
	Duration   time.Duration
	Raw        []Result
	DataSize   int
	Operations int
	hasErrors  *bool
}

type Metric struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Report is one entry of the perf report: the throughput of a case, or its data rate when the case has a
// data size.
type Report struct {
	Info    ReportInfo `json:"info"`
	Metrics []Metric   `json:"metrics"`
}

type ReportInfo struct {
	TestName string                 `json:"test_name"`
	Args     map[string]interface{} `json:"args"`
}

// PerfFormat summarizes the successful trials as operations per second at the median, fastest, slowest and
// 90th percentile trial.
func (r *BenchResult) PerfFormat() ([]Report, error) {
	timings := r.timings()

	median, err := stats.Median(timings)
	if err != nil {
		return nil, err
	}

	min, err := stats.Min(timings)
	if err != nil {
		return nil, err
	}

	max, err := stats.Max(timings)
	if err != nil {
		return nil, err
	}

	p90, err := stats.Percentile(timings, 90)
	if err != nil {
		return nil, err
	}

	// The fastest trial has the highest throughput.
	out := []Report{
		{
			Info: ReportInfo{TestName: r.Name + "-throughput", Args: map[string]interface{}{"threads": 1}},
			Metrics: []Metric{
				{Name: "seconds", Value: r.roundedRuntime().Seconds()},
				{Name: "ops_per_second", Value: r.getThroughput(median)},
				{Name: "ops_per_second_min", Value: r.getThroughput(max)},
				{Name: "ops_per_second_max", Value: r.getThroughput(min)},
				{Name: "ops_per_second_p90", Value: r.getThroughput(p90)},
			},
		},
	}

	if r.DataSize > 0 {
		out = append(out, Report{
			Info: ReportInfo{TestName: r.Name + "-MB-adjusted", Args: map[string]interface{}{"threads": 1}},
			Metrics: []Metric{
				{Name: "seconds", Value: r.roundedRuntime().Seconds()},
				{Name: "ops_per_second", Value: r.adjustResults(median)},
				{Name: "ops_per_second_min", Value: r.adjustResults(max)},
				{Name: "ops_per_second_max", Value: r.adjustResults(min)},
			},
		})
	}

	return out, nil
}

func (r *BenchResult) timings() []float64 {
	out := []float64{}
	for _, res := range r.Raw {
		if res.Error == nil {
			out = append(out, res.Duration.Seconds())
		}
	}
	return out
}

func (r *BenchResult) totalDuration() time.Duration {
	var out time.Duration
	for _, trial := range r.Raw {
		out += trial.Duration
	}
	return out
}

func (r *BenchResult) adjustResults(data float64) float64 { return float64(r.DataSize) / data }
func (r *BenchResult) getThroughput(data float64) float64 { return float64(r.Operations) / data }
func (r *BenchResult) roundedRuntime() time.Duration      { return roundDurationMS(r.Duration) }

func (r *BenchResult) String() string {
	return fmt.Sprintf("name=%s, trials=%d, secs=%s, measured=%s",
		r.Name, r.Trials, r.Duration, roundDurationMS(r.totalDuration()))
}

func (r *BenchResult) HasErrors() bool {
	if r.hasErrors == nil {
		var val bool
		for _, res := range r.Raw {
			if res.Error != nil {
				val = true
				break
			}
		}
		r.hasErrors = &val
	}

	return *r.hasErrors
}

// ErrReport returns the message of every failed trial.
func (r *BenchResult) ErrReport() []string {
	errs := []string{}
	for _, res := range r.Raw {
		if res.Error != nil {
			errs = append(errs, res.Error.Error())
		}
	}
	return errs
}

type Result struct {
	Duration   time.Duration
	Iterations int
	Error      error
}

func roundDurationMS(d time.Duration) time.Duration {
	rounded := d.Round(time.Millisecond)
	if rounded == 1<<63-1 {
		return 0
	}
	return rounded
}
