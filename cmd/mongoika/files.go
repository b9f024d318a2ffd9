// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ikmak/mongoika/mongodriver"
)

func newFilesCmd(a *app) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect a GridFS bucket",
	}
	cmd.PersistentFlags().StringVar(&bucket, "bucket", "", "bucket name, overrides the configuration")

	openFiles := func(cmd *cobra.Command) (*mongodriver.Files, error) {
		if err := a.connect(cmd.Context()); err != nil {
			return nil, err
		}
		name := a.cfg.Bucket
		if bucket != "" {
			name = bucket
		}
		return mongodriver.NewFiles(a.database(), a.session, mongooptions.GridFSBucket().SetName(name))
	}

	var filter string
	var compact bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the files of the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseDocument("filter", filter)
			if err != nil {
				return err
			}
			fs, err := openFiles(cmd)
			if err != nil {
				return err
			}

			files, err := fs.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := printer{w: cmd.OutOrStdout(), compact: compact}
			for _, file := range files {
				if err := out.value(file); err != nil {
					return err
				}
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&filter, "filter", "", "files filter as extended JSON")
	listCmd.Flags().BoolVar(&compact, "compact", false, "print one file per line")

	var output string
	getCmd := &cobra.Command{
		Use:   "get FILENAME",
		Short: "Write the content of the most recent file with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := openFiles(cmd)
			if err != nil {
				return err
			}

			files, err := fs.List(cmd.Context(), bson.D{{Key: "filename", Value: args[0]}})
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no file named %q", args[0])
			}
			latest := files[0]
			for _, f := range files[1:] {
				if f.UploadDate.After(latest.UploadDate) {
					latest = f
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				out, err := os.Create(output)
				if err != nil {
					return err
				}
				defer out.Close()
				w = out
			}
			_, err = latest.WriteTo(w)
			return err
		},
	}
	getCmd.Flags().StringVarP(&output, "output", "o", "", "write to this path instead of stdout")

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}
