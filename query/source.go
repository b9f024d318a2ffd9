// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package query

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ikmak/mongoika/cursor"
	"github.com/ikmak/mongoika/event"
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/pin"
)

// source feeds the memoized documents of a Sequence from a leased cursor opened on the first pull. Calls are
// serialized by the lazy sequence.
type source struct {
	shared     *shared
	cursorOpts *options.CursorOptions
	cursor     *cursor.LeasedCursor
}

func (src *source) pull(ctx context.Context) (bson.Raw, bool, error) {
	if src.cursor == nil {
		if err := src.open(ctx); err != nil {
			return nil, false, err
		}
	}

	ok, err := src.cursor.HasNext(ctx)
	if err != nil {
		return nil, false, closedAsSequence(err)
	}
	if !ok {
		sh := src.shared
		sh.publish(event.SequenceRealized, "", int64(src.cursor.Pulled()), src.cursor.Pulled(), nil)
		sh.logger.Print(logger.LevelDebug, logger.ComponentSequence, "sequence realized",
			logger.KeyCollection, sh.coll.Name(), logger.KeyRealized, src.cursor.Pulled())
		return nil, false, nil
	}

	doc, err := src.cursor.Next(ctx)
	if err != nil {
		return nil, false, closedAsSequence(err)
	}
	return doc, true, nil
}

// closedAsSequence reports a cursor closed by an earlier failure as a closed sequence. Any other error is
// returned unchanged.
func closedAsSequence(err error) error {
	if errors.Is(err, cursor.ErrClosed) {
		return ErrSequenceClosed
	}
	return err
}

// open leases the pin and runs the find. A failed open leaves nothing held, so the next pull tries again.
func (src *source) open(ctx context.Context) error {
	sh := src.shared

	var lease *pin.Lease
	if sh.counter != nil {
		var err error
		if lease, err = sh.counter.NewLease(ctx); err != nil {
			return err
		}
	}

	cur, err := sh.coll.Find(ctx, sh.params)
	if err != nil {
		if lerr := lease.Release(ctx); lerr != nil {
			sh.logger.Error(logger.ComponentSequence, lerr, "releasing lease after failed find",
				logger.KeyCollection, sh.coll.Name())
		}
		return err
	}

	src.cursor = cursor.New(cur, lease, src.cursorOpts)
	sh.publish(event.SequenceOpened, "", 0, 0, nil)
	sh.logger.Print(logger.LevelDebug, logger.ComponentSequence, "sequence opened",
		logger.KeyCollection, sh.coll.Name(), logger.KeyParameters, sh.params.String())
	return nil
}

func (src *source) close(ctx context.Context) error {
	if src.cursor == nil {
		return nil
	}
	return src.cursor.Close(ctx)
}
