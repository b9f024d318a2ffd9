// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mongodriver implements the driver interfaces over the MongoDB Go driver.
//
// A Session is the pinnable handle: while pinned, every Collection operation runs inside one causally
// consistent session, so a query sequence reads its own writes and never goes back in time. A mongo.Session
// must not be used by two goroutines at once, so operations on a pinned Session are serialized, and the
// session cannot end while one of them runs.
//
//	client, err := mongodriver.Connect(ctx, cfg, sink)
//	sess := mongodriver.NewSession(client)
//	counter := pin.NewCounter(sess)
//	coll := mongodriver.NewCollection(client.Database("shop").Collection("orders"), sess)
//	seq := query.New(coll, driver.NewParameters(bson.D{{"status", "A"}}), counter)
package mongodriver // import "github.com/ikmak/mongoika/mongodriver"

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ikmak/mongoika/driver"
)

// ErrNotPinned is returned by EndPinned when no session is active.
var ErrNotPinned = errors.New("no pinned session")

// ErrAlreadyPinned is returned by BeginPinned when a session is already active.
var ErrAlreadyPinned = errors.New("session already pinned")

// Session implements driver.Handle over a *mongo.Client. BeginPinned and EndPinned are expected to be
// called by a pin.Counter, which keeps them balanced.
type Session struct {
	client *mongo.Client
	opts   *options.SessionOptions

	// mu guards session and is held for the whole of every operation running in it.
	mu      sync.Mutex
	session mongo.Session
}

var _ driver.Handle = (*Session)(nil)

// NewSession returns a Session starting sessions on client. Causal consistency is always enabled.
func NewSession(client *mongo.Client, opts ...*options.SessionOptions) *Session {
	so := options.MergeSessionOptions(opts...)
	so.SetCausalConsistency(true)
	return &Session{client: client, opts: so}
}

// BeginPinned implements the driver.Handle interface.
func (s *Session) BeginPinned(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return ErrAlreadyPinned
	}
	sess, err := s.client.StartSession(s.opts)
	if err != nil {
		return err
	}
	s.session = sess
	return nil
}

// EndPinned implements the driver.Handle interface.
func (s *Session) EndPinned(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNotPinned
	}
	s.session.EndSession(ctx)
	s.session = nil
	return nil
}

// Pinned reports whether a session is active.
func (s *Session) Pinned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// acquire returns ctx bound to the active session and the function ending its use. Until that function is
// called, no other operation can use the session and EndPinned waits. When nothing is pinned, ctx is returned
// as is and nothing is held.
func (s *Session) acquire(ctx context.Context) (context.Context, func()) {
	if s == nil {
		return ctx, func() {}
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ctx, func() {}
	}
	return mongo.NewSessionContext(ctx, s.session), s.mu.Unlock
}
