// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package lazy provides Seq, a sequence whose elements are pulled from a source on first demand and memoized.
//
// Elements are pulled in order and at most once. A position that has been read returns the same element
// forever, regardless of what happens to the source afterwards.
package lazy // import "github.com/ikmak/mongoika/lazy"

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
)

// ErrClosed is returned when a read needs an element that was not pulled before the sequence was closed.
var ErrClosed = errors.New("lazy sequence is closed")

// ErrIndexOutOfRange is returned by Nth and SubRange for positions past the end of the sequence.
var ErrIndexOutOfRange = errors.New("index out of range")

// State is the realization state of a sequence. It only moves forward.
type State int

const (
	// NotStarted means nothing has been pulled.
	NotStarted State = iota
	// InProgress means at least one pull was attempted and the end has not been seen.
	InProgress
	// Realized means the source reported its end and every element is memoized.
	Realized
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case InProgress:
		return "in-progress"
	case Realized:
		return "realized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PullFunc produces the next element. It returns false when the source has no more elements.
type PullFunc[T any] func(context.Context) (T, bool, error)

// CloseFunc releases the source. It is called at most once, and only if the source was not drained.
type CloseFunc func(context.Context) error

// cache is the memoized state shared by a Seq and every view derived from it.
type cache[T any] struct {
	// mu is held across pulls, so a pull is never issued twice for the same position.
	mu     sync.Mutex
	pull   PullFunc[T]
	close  CloseFunc
	items  []T
	state  State
	closed bool
}

// Seq is a lazy, memoizing sequence. Views returned by Rest share the memoized elements of the Seq they came
// from. A Seq is safe for concurrent use.
type Seq[T any] struct {
	c      *cache[T]
	offset int
}

// New returns a Seq pulling from pull. close may be nil.
func New[T any](pull PullFunc[T], close CloseFunc) *Seq[T] {
	return &Seq[T]{c: &cache[T]{pull: pull, close: close}}
}

// FromSlice returns a realized Seq over items.
func FromSlice[T any](items []T) *Seq[T] {
	return &Seq[T]{c: &cache[T]{items: append([]T(nil), items...), state: Realized}}
}

// State returns the realization state.
func (s *Seq[T]) State() State {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.state
}

// Realized reports whether every element has been pulled.
func (s *Seq[T]) Realized() bool {
	return s.State() == Realized
}

// Len returns how many elements of s are memoized so far, without pulling.
func (s *Seq[T]) Len() int {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return max(len(s.c.items)-s.offset, 0)
}

// First returns the first element, or false if s is empty.
func (s *Seq[T]) First(ctx context.Context) (T, bool, error) {
	return s.at(ctx, 0)
}

// Rest returns the view of s without its first element. No element is pulled.
func (s *Seq[T]) Rest() *Seq[T] {
	return &Seq[T]{c: s.c, offset: s.offset + 1}
}

// Empty reports whether s has no elements. At most one element is pulled.
func (s *Seq[T]) Empty(ctx context.Context) (bool, error) {
	_, ok, err := s.at(ctx, 0)
	return !ok, err
}

// Nth returns the element at position i, pulling up to it if needed.
func (s *Seq[T]) Nth(ctx context.Context, i int) (T, error) {
	v, ok, err := s.at(ctx, i)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return v, nil
}

// SubRange returns the elements in [from, to). It fails if to is past the end of s.
func (s *Seq[T]) SubRange(ctx context.Context, from, to int) ([]T, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrIndexOutOfRange, from, to)
	}

	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if err := s.c.fill(ctx, s.offset+to); err != nil {
		return nil, err
	}
	if len(s.c.items) < s.offset+to {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrIndexOutOfRange, from, to)
	}
	return append([]T(nil), s.c.items[s.offset+from:s.offset+to]...), nil
}

// Count realizes s and returns its length.
func (s *Seq[T]) Count(ctx context.Context) (int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if err := s.c.fill(ctx, -1); err != nil {
		return 0, err
	}
	return max(len(s.c.items)-s.offset, 0), nil
}

// Slice realizes s and returns a copy of its elements.
func (s *Seq[T]) Slice(ctx context.Context) ([]T, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if err := s.c.fill(ctx, -1); err != nil {
		return nil, err
	}
	if s.offset >= len(s.c.items) {
		return []T{}, nil
	}
	return append([]T(nil), s.c.items[s.offset:]...), nil
}

// All returns an iterator over the elements of s, pulling as the loop advances. A failing pull is yielded once
// with the zero element and ends the iteration.
func (s *Seq[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := 0; ; i++ {
			v, ok, err := s.at(ctx, i)
			if err != nil {
				yield(v, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// IndexFunc returns the position of the first element satisfying f, or -1. Elements are pulled only up to
// the first match.
func (s *Seq[T]) IndexFunc(ctx context.Context, f func(T) bool) (int, error) {
	for i := 0; ; i++ {
		v, ok, err := s.at(ctx, i)
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
		if f(v) {
			return i, nil
		}
	}
}

// ContainsFunc reports whether some element satisfies f. Elements are pulled only up to the first match.
func (s *Seq[T]) ContainsFunc(ctx context.Context, f func(T) bool) (bool, error) {
	i, err := s.IndexFunc(ctx, f)
	return i >= 0, err
}

// LastIndexFunc realizes s and returns the position of the last element satisfying f, or -1.
func (s *Seq[T]) LastIndexFunc(ctx context.Context, f func(T) bool) (int, error) {
	items, err := s.Slice(ctx)
	if err != nil {
		return -1, err
	}
	for i := len(items) - 1; i >= 0; i-- {
		if f(items[i]) {
			return i, nil
		}
	}
	return -1, nil
}

// Cons returns a new Seq of v followed by the elements of s. The new Seq has its own memoized elements;
// elements of s are pulled through s as the new Seq needs them, and s never sees v.
func (s *Seq[T]) Cons(v T) *Seq[T] {
	next := -1
	return New(func(ctx context.Context) (T, bool, error) {
		if next < 0 {
			next = 0
			return v, true, nil
		}
		x, ok, err := s.at(ctx, next)
		if err != nil || !ok {
			return x, ok, err
		}
		next++
		return x, true, nil
	}, nil)
}

// EqualFunc realizes s and other and compares them element by element.
func (s *Seq[T]) EqualFunc(ctx context.Context, other *Seq[T], eq func(a, b T) bool) (bool, error) {
	a, err := s.Slice(ctx)
	if err != nil {
		return false, err
	}
	b, err := other.Slice(ctx)
	if err != nil {
		return false, err
	}
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false, nil
		}
	}
	return true, nil
}

// Close releases the source if it was not drained. Memoized elements stay readable; reads that need more
// elements fail with ErrClosed. Close is idempotent.
func (s *Seq[T]) Close(ctx context.Context) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.c.closed {
		return nil
	}
	s.c.closed = true
	if s.c.state == Realized || s.c.close == nil {
		return nil
	}
	return s.c.close(ctx)
}

// Closed reports whether Close has been called.
func (s *Seq[T]) Closed() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.closed
}

func (s *Seq[T]) at(ctx context.Context, i int) (T, bool, error) {
	var zero T
	if i < 0 {
		return zero, false, nil
	}

	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	pos := s.offset + i
	if err := s.c.fill(ctx, pos+1); err != nil {
		return zero, false, err
	}
	if pos >= len(s.c.items) {
		return zero, false, nil
	}
	return s.c.items[pos], true, nil
}

// fill pulls until n elements are memoized or the source ends. A negative n pulls everything. The caller
// holds c.mu.
func (c *cache[T]) fill(ctx context.Context, n int) error {
	for c.state != Realized && (n < 0 || len(c.items) < n) {
		if c.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		c.state = InProgress
		v, ok, err := c.pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			c.state = Realized
			return nil
		}
		c.items = append(c.items, v)
	}
	return nil
}
