// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParameters(t *testing.T) {
	t.Run("setters return copies", func(t *testing.T) {
		base := NewParameters(bson.D{{Key: "x", Value: 1}})
		limited := base.SetLimit(10).SetSkip(2).SetBatchSize(5)

		assert.Equal(t, int64(0), base.Limit, "expected base to be unchanged")
		assert.Equal(t, int64(10), limited.Limit)
		assert.Equal(t, int64(2), limited.Skip)
		assert.Equal(t, int32(5), limited.BatchSize)
	})
	t.Run("count parameters drop shape-only fields", func(t *testing.T) {
		p := NewParameters(bson.D{{Key: "x", Value: 1}}).
			SetProjection(bson.D{{Key: "_id", Value: 0}}).
			SetSort(bson.D{{Key: "x", Value: -1}}).
			SetBatchSize(100).
			SetSkip(3).
			SetLimit(7).
			SetHint("x_1")

		want := Parameters{
			Filter: bson.D{{Key: "x", Value: 1}},
			Hint:   "x_1",
			Skip:   3,
			Limit:  7,
		}
		if diff := cmp.Diff(want, p.CountParameters()); diff != "" {
			t.Errorf("count parameters mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("nil filter matches everything", func(t *testing.T) {
		assert.Equal(t, bson.D{}, NewParameters(nil).FilterDocument())
	})
	t.Run("string is extended json", func(t *testing.T) {
		p := NewParameters(bson.D{{Key: "x", Value: int32(1)}}).SetLimit(2)

		assert.Equal(t, `{"filter":{"x":1},"limit":2}`, p.String())
	})
}
