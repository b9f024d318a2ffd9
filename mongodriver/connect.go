// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongodriver

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ikmak/mongoika/config"
	"github.com/ikmak/mongoika/internal/logger"
)

// ClientOptions translates cfg into client options. sink, when not nil, receives the driver's own logs at
// the level configured in cfg.
func ClientOptions(cfg *config.Config, sink options.LogSink) *options.ClientOptions {
	co := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		co.SetAppName(cfg.AppName)
	}
	if len(cfg.Compressors) > 0 {
		co.SetCompressors(cfg.Compressors)
	}
	if cfg.TimeoutMS > 0 {
		co.SetTimeout(cfg.Timeout())
	}

	if sink != nil {
		level := options.LogLevelInfo
		if cfg.Level() == logger.LevelDebug {
			level = options.LogLevelDebug
		}
		lo := options.Logger().SetSink(sink)
		if cfg.Level() != logger.LevelOff {
			lo.SetComponentLevel(options.LogComponentAll, level)
		}
		co.SetLoggerOptions(lo)
	}
	return co
}

// Connect returns a client connected according to cfg.
func Connect(ctx context.Context, cfg *config.Config, sink options.LogSink) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, ClientOptions(cfg, sink))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	return client, nil
}
