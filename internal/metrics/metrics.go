// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package metrics exposes pin, cursor and sequence events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ikmak/mongoika/event"
)

const namespace = "mongoika"

// Metrics holds the collectors fed by the monitors it builds.
type Metrics struct {
	activeLeases  prometheus.Gauge
	pinsStarted   prometheus.Counter
	pinsEnded     prometheus.Counter
	pinFailures   *prometheus.CounterVec
	leasesLeaked  prometheus.Counter
	cursorPulls   prometheus.Counter
	cursorCloses  *prometheus.CounterVec
	cursorErrors  prometheus.Counter
	counts        *prometheus.CounterVec
	countFailures prometheus.Counter
	realized      prometheus.Histogram
}

// New returns unregistered Metrics.
func New() *Metrics {
	return &Metrics{
		activeLeases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pin",
			Name:      "active_leases",
			Help:      "The number of leases currently held on pinned handles.",
		}),
		pinsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pin",
			Name:      "started_total",
			Help:      "The number of times a handle was pinned.",
		}),
		pinsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pin",
			Name:      "ended_total",
			Help:      "The number of times a handle was unpinned.",
		}),
		pinFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pin",
			Name:      "failures_total",
			Help:      "The number of pin transitions rejected by the handle.",
		}, []string{"transition"}),
		leasesLeaked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pin",
			Name:      "leases_collected_total",
			Help:      "The number of leases released by the garbage collector instead of their owner.",
		}),
		cursorPulls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cursor",
			Name:      "documents_pulled_total",
			Help:      "The number of documents read through leased cursors.",
		}),
		cursorCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cursor",
			Name:      "closed_total",
			Help:      "The number of leased cursors closed, by whether their owner or the garbage collector closed them.",
		}, []string{"by"}),
		cursorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cursor",
			Name:      "failures_total",
			Help:      "The number of leased cursor reads that failed.",
		}),
		counts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "counts_total",
			Help:      "The number of sequence counts served, by source.",
		}, []string{"source"}),
		countFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "count_failures_total",
			Help:      "The number of remote counts that failed.",
		}),
		realized: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "realized_documents",
			Help:      "The number of documents held by a sequence once it is fully read.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
		}),
	}
}

// Register registers every collector with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.activeLeases,
		m.pinsStarted,
		m.pinsEnded,
		m.pinFailures,
		m.leasesLeaked,
		m.cursorPulls,
		m.cursorCloses,
		m.cursorErrors,
		m.counts,
		m.countFailures,
		m.realized,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// PinMonitor returns a monitor recording pin events.
func (m *Metrics) PinMonitor() *event.PinMonitor {
	return &event.PinMonitor{Event: func(evt *event.PinEvent) {
		switch evt.Type {
		case event.LeaseAcquired, event.LeaseReleased:
			m.activeLeases.Set(float64(evt.ActiveLeases))
			if evt.Type == event.LeaseReleased && evt.Finalized {
				m.leasesLeaked.Inc()
			}
		case event.PinStarted:
			m.pinsStarted.Inc()
		case event.PinEnded:
			m.pinsEnded.Inc()
		case event.PinStartFailed:
			m.pinFailures.WithLabelValues("start").Inc()
		case event.PinEndFailed:
			m.pinFailures.WithLabelValues("end").Inc()
		}
	}}
}

// CursorMonitor returns a monitor recording cursor events.
func (m *Metrics) CursorMonitor() *event.CursorMonitor {
	return &event.CursorMonitor{Event: func(evt *event.CursorEvent) {
		switch evt.Type {
		case event.CursorPulled:
			m.cursorPulls.Inc()
		case event.CursorFailed:
			m.cursorErrors.Inc()
		case event.CursorClosed:
			by := "owner"
			if evt.Finalized {
				by = "collector"
			}
			m.cursorCloses.WithLabelValues(by).Inc()
		}
	}}
}

// SequenceMonitor returns a monitor recording sequence events.
func (m *Metrics) SequenceMonitor() *event.SequenceMonitor {
	return &event.SequenceMonitor{Event: func(evt *event.SequenceEvent) {
		switch evt.Type {
		case event.CountServed:
			m.counts.WithLabelValues(evt.Source).Inc()
		case event.CountFailed:
			m.countFailures.Inc()
		case event.SequenceRealized:
			m.realized.Observe(float64(evt.Realized))
		}
	}}
}
