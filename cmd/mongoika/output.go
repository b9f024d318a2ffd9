// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/driver"
)

// queryFlags are the flags shared by commands that run a query.
type queryFlags struct {
	filter     string
	projection string
	sort       string
	hint       string
	skip       int64
	limit      int64
	batchSize  int32
}

func (qf *queryFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&qf.filter, "filter", "", "query filter as extended JSON")
	flags.StringVar(&qf.projection, "projection", "", "projection as extended JSON")
	flags.StringVar(&qf.sort, "sort", "", "sort specification as extended JSON")
	flags.StringVar(&qf.hint, "hint", "", "index name to use")
	flags.Int64Var(&qf.skip, "skip", 0, "number of documents to skip")
	flags.Int64Var(&qf.limit, "limit", 0, "maximum number of documents, 0 for no limit")
	flags.Int32Var(&qf.batchSize, "batch-size", 0, "documents per batch, 0 for the server default")
}

// parameters builds the query parameters. defaultBatch applies when no batch size was given.
func (qf *queryFlags) parameters(defaultBatch int32) (driver.Parameters, error) {
	filter, err := parseDocument("filter", qf.filter)
	if err != nil {
		return driver.Parameters{}, err
	}
	projection, err := parseDocument("projection", qf.projection)
	if err != nil {
		return driver.Parameters{}, err
	}
	sort, err := parseDocument("sort", qf.sort)
	if err != nil {
		return driver.Parameters{}, err
	}
	if qf.skip < 0 || qf.limit < 0 || qf.batchSize < 0 {
		return driver.Parameters{}, fmt.Errorf("skip, limit and batch size must not be negative")
	}

	p := driver.NewParameters(filter).SetSkip(qf.skip).SetLimit(qf.limit)
	if projection != nil {
		p = p.SetProjection(projection)
	}
	if sort != nil {
		p = p.SetSort(sort)
	}
	if qf.hint != "" {
		p = p.SetHint(qf.hint)
	}
	batch := qf.batchSize
	if batch == 0 {
		batch = defaultBatch
	}
	return p.SetBatchSize(batch), nil
}

// parseDocument parses relaxed or canonical extended JSON. An empty string yields nil.
func parseDocument(name, s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return doc, nil
}

// printer writes documents as extended JSON, one per line when compact.
type printer struct {
	w       io.Writer
	compact bool
}

func (p printer) document(doc bson.Raw) error {
	js, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return err
	}
	return p.json(js)
}

func (p printer) value(v interface{}) error {
	js, err := bson.MarshalExtJSON(v, false, false)
	if err != nil {
		return err
	}
	return p.json(js)
}

func (p printer) json(js []byte) error {
	if p.compact {
		js = append(pretty.Ugly(js), '\n')
	} else {
		js = pretty.Pretty(js)
	}
	_, err := p.w.Write(js)
	return err
}
