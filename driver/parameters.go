// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Parameters describes a query. It is a value: the Set methods return a modified copy and leave the receiver
// untouched. Documents stored in it must not be mutated after they are set.
type Parameters struct {
	Filter     interface{}
	Projection interface{}
	Sort       interface{}
	Hint       interface{}
	Skip       int64
	Limit      int64
	BatchSize  int32
}

// NewParameters returns Parameters selecting the documents matched by filter. A nil filter matches every
// document.
func NewParameters(filter interface{}) Parameters {
	return Parameters{Filter: filter}
}

// SetFilter returns a copy of p with the given filter.
func (p Parameters) SetFilter(filter interface{}) Parameters {
	p.Filter = filter
	return p
}

// SetProjection returns a copy of p with the given projection.
func (p Parameters) SetProjection(projection interface{}) Parameters {
	p.Projection = projection
	return p
}

// SetSort returns a copy of p with the given sort specification.
func (p Parameters) SetSort(sort interface{}) Parameters {
	p.Sort = sort
	return p
}

// SetHint returns a copy of p with the given index hint.
func (p Parameters) SetHint(hint interface{}) Parameters {
	p.Hint = hint
	return p
}

// SetSkip returns a copy of p skipping the first n documents.
func (p Parameters) SetSkip(n int64) Parameters {
	p.Skip = n
	return p
}

// SetLimit returns a copy of p returning at most n documents. Zero means no limit.
func (p Parameters) SetLimit(n int64) Parameters {
	p.Limit = n
	return p
}

// SetBatchSize returns a copy of p requesting batches of n documents.
func (p Parameters) SetBatchSize(n int32) Parameters {
	p.BatchSize = n
	return p
}

// CountParameters returns the subset of p that affects how many documents match: projection, sort and batch
// size are dropped.
func (p Parameters) CountParameters() Parameters {
	return Parameters{
		Filter: p.Filter,
		Hint:   p.Hint,
		Skip:   p.Skip,
		Limit:  p.Limit,
	}
}

// FilterDocument returns the filter, substituting an empty document for nil.
func (p Parameters) FilterDocument() interface{} {
	if p.Filter == nil {
		return bson.D{}
	}
	return p.Filter
}

// String renders the parameters as relaxed extended JSON for logging.
func (p Parameters) String() string {
	doc := bson.D{{Key: "filter", Value: p.FilterDocument()}}
	if p.Projection != nil {
		doc = append(doc, bson.E{Key: "projection", Value: p.Projection})
	}
	if p.Sort != nil {
		doc = append(doc, bson.E{Key: "sort", Value: p.Sort})
	}
	if p.Hint != nil {
		doc = append(doc, bson.E{Key: "hint", Value: p.Hint})
	}
	if p.Skip != 0 {
		doc = append(doc, bson.E{Key: "skip", Value: p.Skip})
	}
	if p.Limit != 0 {
		doc = append(doc, bson.E{Key: "limit", Value: p.Limit})
	}
	if p.BatchSize != 0 {
		doc = append(doc, bson.E{Key: "batchSize", Value: p.BatchSize})
	}

	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Sprintf("%+v", doc)
	}
	return string(b)
}
