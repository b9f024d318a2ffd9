// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package query provides Sequence, the lazy result of a find.
//
// A Sequence opens its cursor on first demand, memoizes every document it reads, and answers Count without a
// round trip once it has been fully read:
//
//	seq := query.New(coll, driver.NewParameters(bson.D{{"status", "A"}}), counter)
//	defer seq.Close(ctx)
//
//	n, err := seq.Count(ctx) // remote count, nothing is pulled
//	for doc, err := range seq.All(ctx) {
//		// do something with doc...
//	}
//	n, err = seq.Count(ctx) // served from the memoized documents
package query // import "github.com/ikmak/mongoika/query"

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"

	"github.com/ikmak/mongoika/driver"
	"github.com/ikmak/mongoika/event"
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/internal/optionsutil"
	"github.com/ikmak/mongoika/lazy"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/pin"
)

// ErrSequenceClosed is returned by reads that need documents a closed Sequence never pulled, including a
// Sequence whose cursor was closed by an earlier read failure.
var ErrSequenceClosed = lazy.ErrClosed

// Meta is the metadata attached to a Sequence. It never influences the documents.
type Meta map[string]interface{}

func (m Meta) clone() Meta {
	if m == nil {
		return nil
	}
	c := make(Meta, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Sequence is a lazily realized, memoizing sequence over the documents selected by a query. Values derived
// with WithMeta share the same memoized documents and the same cursor. A Sequence is safe for concurrent use.
type Sequence struct {
	shared *shared
	meta   Meta
}

// shared is everything WithMeta copies by reference.
type shared struct {
	coll     driver.Collection
	params   driver.Parameters
	counter  *pin.Counter
	docs     *lazy.Seq[bson.Raw]
	source   *source
	counts   countFlight
	monitor  *event.SequenceMonitor
	logger   *logger.Logger
	registry *bsoncodec.Registry
}

// New returns a Sequence over the documents of coll selected by params. Nothing is sent to the server until
// a document or a count is needed. counter may be nil, in which case the cursor holds no lease.
func New(coll driver.Collection, params driver.Parameters, counter *pin.Counter, opts ...*options.SequenceOptions) *Sequence {
	so := options.MergeSequenceOptions(opts...)

	sh := &shared{
		coll:     coll,
		params:   params,
		counter:  counter,
		monitor:  so.Monitor,
		logger:   optionsutil.NewLogger(so.Logger),
		registry: so.Registry,
	}
	if sh.registry == nil {
		sh.registry = bson.DefaultRegistry
	}
	sh.source = &source{shared: sh, cursorOpts: so.CursorOptions}
	sh.docs = lazy.New(sh.source.pull, sh.source.close)

	return &Sequence{shared: sh, meta: Meta(so.Meta).clone()}
}

// Collection returns the collection the Sequence reads from.
func (s *Sequence) Collection() driver.Collection {
	return s.shared.coll
}

// Parameters returns the query parameters of the Sequence.
func (s *Sequence) Parameters() driver.Parameters {
	return s.shared.params
}

// Meta returns a copy of the metadata.
func (s *Sequence) Meta() Meta {
	return s.meta.clone()
}

// WithMeta returns a Sequence with the given metadata that shares its documents with s.
func (s *Sequence) WithMeta(meta Meta) *Sequence {
	return &Sequence{shared: s.shared, meta: meta.clone()}
}

// State returns the realization state of the documents.
func (s *Sequence) State() lazy.State {
	return s.shared.docs.State()
}

// Realized reports whether every document has been read.
func (s *Sequence) Realized() bool {
	return s.shared.docs.Realized()
}

// Len returns how many documents have been read so far.
func (s *Sequence) Len() int {
	return s.shared.docs.Len()
}

// Count returns the number of documents. Once the Sequence is realized it is the number of memoized
// documents; before that it is a count query to the server, run under a lease when the Sequence has a
// counter, and no document is read. The two answers can differ if the collection changes in between.
// Concurrent callers share one count query, but each returns as soon as its own ctx is done. After Close,
// only a realized Sequence can be counted; otherwise Count returns ErrSequenceClosed.
func (s *Sequence) Count(ctx context.Context) (int64, error) {
	sh := s.shared
	if sh.docs.Realized() {
		n := int64(sh.docs.Len())
		sh.publish(event.CountServed, event.CountSourceCache, n, int(n), nil)
		sh.logger.Print(logger.LevelDebug, logger.ComponentSequence, "count served",
			logger.KeyCollection, sh.coll.Name(), logger.KeySource, event.CountSourceCache, logger.KeyCount, n)
		return n, nil
	}
	if sh.docs.Closed() {
		return 0, ErrSequenceClosed
	}

	n, err := sh.counts.do(ctx, sh.remoteCount)
	if err != nil {
		sh.publish(event.CountFailed, event.CountSourceRemote, 0, sh.docs.Len(), err)
		sh.logger.Error(logger.ComponentSequence, err, "count failed",
			logger.KeyCollection, sh.coll.Name(), logger.KeyParameters, sh.params.String())
		return 0, err
	}

	sh.publish(event.CountServed, event.CountSourceRemote, n, sh.docs.Len(), nil)
	sh.logger.Print(logger.LevelDebug, logger.ComponentSequence, "count served",
		logger.KeyCollection, sh.coll.Name(), logger.KeySource, event.CountSourceRemote, logger.KeyCount, n)
	return n, nil
}

// remoteCount asks the collection for the count, keeping the handle pinned for the whole query.
func (sh *shared) remoteCount(ctx context.Context) (int64, error) {
	if sh.counter == nil {
		return sh.coll.Count(ctx, sh.params.CountParameters())
	}

	lease, err := sh.counter.NewLease(ctx)
	if err != nil {
		return 0, err
	}
	n, err := sh.coll.Count(ctx, sh.params.CountParameters())
	if lerr := lease.Release(context.WithoutCancel(ctx)); lerr != nil {
		if err == nil {
			return 0, lerr
		}
		sh.logger.Error(logger.ComponentSequence, lerr, "releasing lease after failed count",
			logger.KeyCollection, sh.coll.Name())
	}
	return n, err
}

// First returns the first document, or false if there is none.
func (s *Sequence) First(ctx context.Context) (bson.Raw, bool, error) {
	return s.shared.docs.First(ctx)
}

// Rest returns the documents after the first one. The returned sequence shares memoized documents with s.
func (s *Sequence) Rest() *lazy.Seq[bson.Raw] {
	return s.shared.docs.Rest()
}

// Empty reports whether the query selects no document.
func (s *Sequence) Empty(ctx context.Context) (bool, error) {
	return s.shared.docs.Empty(ctx)
}

// Nth returns the document at position i.
func (s *Sequence) Nth(ctx context.Context, i int) (bson.Raw, error) {
	return s.shared.docs.Nth(ctx, i)
}

// SubRange returns the documents in [from, to).
func (s *Sequence) SubRange(ctx context.Context, from, to int) ([]bson.Raw, error) {
	return s.shared.docs.SubRange(ctx, from, to)
}

// Slice reads every document and returns them.
func (s *Sequence) Slice(ctx context.Context) ([]bson.Raw, error) {
	return s.shared.docs.Slice(ctx)
}

// All returns an iterator over the documents, reading from the server as the loop advances.
func (s *Sequence) All(ctx context.Context) iter.Seq2[bson.Raw, error] {
	return s.shared.docs.All(ctx)
}

// Contains reports whether doc is one of the documents, comparing raw bytes. Reading stops at the first match.
func (s *Sequence) Contains(ctx context.Context, doc bson.Raw) (bool, error) {
	return s.shared.docs.ContainsFunc(ctx, sameDocument(doc))
}

// IndexOf returns the position of the first document equal to doc, or -1. Reading stops at the first match.
func (s *Sequence) IndexOf(ctx context.Context, doc bson.Raw) (int, error) {
	return s.shared.docs.IndexFunc(ctx, sameDocument(doc))
}

// LastIndexOf returns the position of the last document equal to doc, or -1. Every document is read.
func (s *Sequence) LastIndexOf(ctx context.Context, doc bson.Raw) (int, error) {
	return s.shared.docs.LastIndexFunc(ctx, sameDocument(doc))
}

// Cons returns a sequence of doc followed by the documents of s. The documents of s are read only as the
// returned sequence needs them, and doc is never added to s.
func (s *Sequence) Cons(doc bson.Raw) *lazy.Seq[bson.Raw] {
	return s.shared.docs.Cons(doc)
}

func sameDocument(doc bson.Raw) func(bson.Raw) bool {
	return func(other bson.Raw) bool {
		return bytes.Equal(doc, other)
	}
}

// Decode unmarshals the document at position i into v.
func (s *Sequence) Decode(ctx context.Context, i int, v interface{}) error {
	doc, err := s.Nth(ctx, i)
	if err != nil {
		return err
	}
	return bson.UnmarshalWithRegistry(s.shared.registry, doc, v)
}

// DecodeAll reads every document and unmarshals them into results, which must be a pointer to a slice.
func (s *Sequence) DecodeAll(ctx context.Context, results interface{}) error {
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results argument must be a pointer to a slice, but was a %s", rv.Kind())
	}

	docs, err := s.Slice(ctx)
	if err != nil {
		return err
	}

	sliceVal := rv.Elem()
	elemType := sliceVal.Type().Elem()
	out := reflect.MakeSlice(sliceVal.Type(), 0, len(docs))
	for i, doc := range docs {
		elem := reflect.New(elemType)
		if err := bson.UnmarshalWithRegistry(s.shared.registry, doc, elem.Interface()); err != nil {
			return errors.WithMessagef(err, "decoding document %d", i)
		}
		out = reflect.Append(out, elem.Elem())
	}
	sliceVal.Set(out)
	return nil
}

// Equal reports whether s and other hold the same documents in the same order. Both are fully read.
func (s *Sequence) Equal(ctx context.Context, other *Sequence) (bool, error) {
	return s.shared.docs.EqualFunc(ctx, other.shared.docs, func(a, b bson.Raw) bool {
		return bytes.Equal(a, b)
	})
}

// Hash returns a hash of the documents, consistent with Equal. The Sequence is fully read.
func (s *Sequence) Hash(ctx context.Context) (uint64, error) {
	docs, err := s.Slice(ctx)
	if err != nil {
		return 0, err
	}

	d := xxhash.New()
	for _, doc := range docs {
		_, _ = d.Write(doc)
	}
	return d.Sum64(), nil
}

// Close closes the cursor if it is open, releasing its lease. Documents already read stay readable; reads
// needing more return ErrSequenceClosed. Close is idempotent and affects every Sequence sharing documents
// with s.
func (s *Sequence) Close(ctx context.Context) error {
	sh := s.shared
	if sh.docs.Closed() {
		return nil
	}
	err := sh.docs.Close(ctx)
	sh.publish(event.SequenceClosed, "", 0, sh.docs.Len(), err)
	sh.logger.Print(logger.LevelDebug, logger.ComponentSequence, "sequence closed",
		logger.KeyCollection, sh.coll.Name(), logger.KeyRealized, sh.docs.Len())
	return err
}

func (sh *shared) publish(typ, source string, count int64, realized int, err error) {
	if sh.monitor == nil || sh.monitor.Event == nil {
		return
	}
	sh.monitor.Event(&event.SequenceEvent{
		Type:       typ,
		Collection: sh.coll.Name(),
		Source:     source,
		Count:      count,
		Realized:   realized,
		Failure:    err,
	})
}
