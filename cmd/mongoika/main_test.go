// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/config"
	"github.com/ikmak/mongoika/internal/logger"
)

func TestQueryFlags(t *testing.T) {
	t.Run("all set", func(t *testing.T) {
		qf := queryFlags{
			filter:     `{"age": {"$gt": 30}}`,
			projection: `{"name": 1}`,
			sort:       `{"age": -1}`,
			hint:       "age_1",
			skip:       2,
			limit:      5,
			batchSize:  10,
		}

		p, err := qf.parameters(100)
		require.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "age", Value: bson.D{{Key: "$gt", Value: int32(30)}}}}, p.Filter)
		assert.Equal(t, bson.D{{Key: "name", Value: int32(1)}}, p.Projection)
		assert.Equal(t, bson.D{{Key: "age", Value: int32(-1)}}, p.Sort)
		assert.Equal(t, "age_1", p.Hint)
		assert.Equal(t, int64(2), p.Skip)
		assert.Equal(t, int64(5), p.Limit)
		assert.Equal(t, int32(10), p.BatchSize)
	})
	t.Run("defaults", func(t *testing.T) {
		var qf queryFlags

		p, err := qf.parameters(100)
		require.NoError(t, err)
		assert.Nil(t, p.Filter)
		assert.Nil(t, p.Projection)
		assert.Nil(t, p.Hint)
		assert.Equal(t, int32(100), p.BatchSize)
	})
	t.Run("invalid", func(t *testing.T) {
		testCases := []struct {
			name string
			qf   queryFlags
		}{
			{"filter", queryFlags{filter: "{nope"}},
			{"projection", queryFlags{projection: "[1]"}},
			{"sort", queryFlags{sort: "{"}},
			{"negative limit", queryFlags{limit: -1}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := tc.qf.parameters(0)
				assert.Error(t, err)
			})
		}
	})
}

func TestPrinter(t *testing.T) {
	doc, err := bson.Marshal(bson.D{{Key: "_id", Value: int32(1)}, {Key: "tags", Value: bson.A{"a", "b"}}})
	require.NoError(t, err)

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printer{w: &buf, compact: true}.document(doc))
		assert.Equal(t, "{\"_id\":1,\"tags\":[\"a\",\"b\"]}\n", buf.String())
	})
	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printer{w: &buf}.document(doc))
		assert.Equal(t, "{\n  \"_id\": 1,\n  \"tags\": [\"a\", \"b\"]\n}\n", buf.String())
	})
}

// runRoot executes the root command with a no-op subcommand, so only configuration and logging are set up.
func runRoot(t *testing.T, args ...string) (*app, error) {
	t.Helper()
	for _, key := range []string{
		config.EnvURI, config.EnvDatabase, config.EnvLogLevel, config.EnvLogFormat, config.EnvMetricsAddr,
	} {
		if v, ok := os.LookupEnv(key); ok {
			t.Setenv(key, v)
			require.NoError(t, os.Unsetenv(key))
		}
	}

	a := &app{}
	rootCmd := newRootCmd(a)
	rootCmd.AddCommand(&cobra.Command{Use: "noop", RunE: func(*cobra.Command, []string) error { return nil }})
	rootCmd.SetArgs(append(args, "noop"))
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	return a, rootCmd.Execute()
}

func TestRootCmd(t *testing.T) {
	t.Run("flags override the configuration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mongoika.toml")
		require.NoError(t, os.WriteFile(path, []byte("database = \"from-file\"\nlog_level = \"info\"\n"), 0o600))

		a, err := runRoot(t, "--config", path, "--database", "from-flag", "--log-level", "debug")
		require.NoError(t, err)
		assert.Equal(t, "from-flag", a.cfg.Database)
		assert.Equal(t, logger.LevelDebug, a.cfg.Level())
		assert.Nil(t, a.client)
		assert.Nil(t, a.server)
	})
	t.Run("invalid flag value", func(t *testing.T) {
		_, err := runRoot(t, "--log-format", "xml")
		assert.Error(t, err)
	})
	t.Run("logger options", func(t *testing.T) {
		a, err := runRoot(t, "--log-level", "debug", "--log-format", "json")
		require.NoError(t, err)

		lo := a.loggerOptions()
		assert.NotNil(t, lo.Sink)
		assert.Len(t, lo.ComponentLevels, 1)
	})
	t.Run("find rejects a bad filter before connecting", func(t *testing.T) {
		a := &app{}
		rootCmd := newRootCmd(a)
		rootCmd.SetArgs([]string{"find", "people", "--filter", "{bad"})
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetErr(&bytes.Buffer{})

		err := rootCmd.Execute()
		assert.ErrorContains(t, err, "invalid filter")
		assert.Nil(t, a.client)
	})
}
