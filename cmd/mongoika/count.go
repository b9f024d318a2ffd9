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
	"github.com/ikmak/mongoika/query"
)

func newCountCmd(a *app) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "count COLLECTION",
		Short: "Print the number of documents matching a query without reading them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, err := qf.parameters(0)
			if err != nil {
				return err
			}
			if err := a.connect(ctx); err != nil {
				return err
			}

			coll := mongodriver.NewCollection(a.database().Collection(args[0]), a.session)
			seq := query.New(coll, params, a.counter, a.sequenceOptions())
			defer seq.Close(ctx)

			n, err := seq.Count(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}

	qf.register(cmd)
	return cmd
}
