// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ikmak/mongoika/mongodriver"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/query"
)

func newFindCmd(a *app) *cobra.Command {
	var qf queryFlags
	var compact, withCount bool

	cmd := &cobra.Command{
		Use:   "find COLLECTION",
		Short: "Print the documents matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, err := qf.parameters(a.cfg.BatchSize)
			if err != nil {
				return err
			}
			if err := a.connect(ctx); err != nil {
				return err
			}

			coll := mongodriver.NewCollection(a.database().Collection(args[0]), a.session)
			seq := query.New(coll, params, a.counter, a.sequenceOptions())
			defer seq.Close(ctx)

			if withCount {
				n, err := seq.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d documents\n", n)
			}

			out := printer{w: cmd.OutOrStdout(), compact: compact}
			for doc, err := range seq.All(ctx) {
				if err != nil {
					return err
				}
				if err := out.document(doc); err != nil {
					return err
				}
			}
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().BoolVar(&compact, "compact", false, "print one document per line")
	cmd.Flags().BoolVar(&withCount, "count", false, "print the number of matching documents to stderr first")
	return cmd
}

func (a *app) sequenceOptions() *options.SequenceOptions {
	return options.Sequence().
		SetMonitor(a.metrics.SequenceMonitor()).
		SetLoggerOptions(a.loggerOptions()).
		SetCursorOptions(options.Cursor().
			SetMonitor(a.metrics.CursorMonitor()).
			SetLoggerOptions(a.loggerOptions()))
}
