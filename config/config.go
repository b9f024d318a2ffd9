// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package config loads the settings of the mongoika command.
//
// Settings are layered, each source overriding the previous one: built-in defaults, a TOML file, dotenv
// files, and finally the MONGOIKA_* variables of the process environment.
package config // import "github.com/ikmak/mongoika/config"

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/ikmak/mongoika/internal/logger"
)

// Environment variables read by Load.
const (
	EnvURI         = "MONGOIKA_URI"
	EnvDatabase    = "MONGOIKA_DATABASE"
	EnvAppName     = "MONGOIKA_APP_NAME"
	EnvCompressors = "MONGOIKA_COMPRESSORS"
	EnvTimeoutMS   = "MONGOIKA_TIMEOUT_MS"
	EnvBatchSize   = "MONGOIKA_BATCH_SIZE"
	EnvBucket      = "MONGOIKA_BUCKET"
	EnvLogLevel    = "MONGOIKA_LOG_LEVEL"
	EnvLogFormat   = "MONGOIKA_LOG_FORMAT"
	EnvMetricsAddr = "MONGOIKA_METRICS_ADDR"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the connection, logging and metrics settings.
type Config struct {
	URI         string   `toml:"uri"`
	Database    string   `toml:"database"`
	AppName     string   `toml:"app_name"`
	Compressors []string `toml:"compressors"`
	TimeoutMS   int64    `toml:"timeout_ms"`
	BatchSize   int32    `toml:"batch_size"`
	// Bucket is the GridFS bucket name used by the files command.
	Bucket      string `toml:"bucket"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	MetricsAddr string `toml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		URI:       "mongodb://localhost:27017",
		Database:  "test",
		AppName:   "mongoika",
		TimeoutMS: 30000,
		Bucket:    "fs",
		LogLevel:  string(logger.InfoLevelLiteral),
		LogFormat: FormatText,
	}
}

// Load builds a Config from the defaults, the TOML file at path and the dotenv files, then the process
// environment. An empty path skips the TOML layer. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}

	if len(envFiles) > 0 {
		dotenv, err := godotenv.Read(envFiles...)
		if err != nil {
			return nil, errors.Wrap(err, "reading env files")
		}
		if err := cfg.ApplyEnv(func(key string) (string, bool) {
			v, ok := dotenv[key]
			return v, ok
		}); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the settings present in lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str(EnvURI, &c.URI)
	str(EnvDatabase, &c.Database)
	str(EnvAppName, &c.AppName)
	str(EnvBucket, &c.Bucket)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	str(EnvMetricsAddr, &c.MetricsAddr)

	if v, ok := lookup(EnvCompressors); ok {
		c.Compressors = splitList(v)
	}
	if v, ok := lookup(EnvTimeoutMS); ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvTimeoutMS)
		}
		c.TimeoutMS = ms
	}
	if v, ok := lookup(EnvBatchSize); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvBatchSize)
		}
		c.BatchSize = int32(n)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.URI == "" {
		return errors.New("uri must be set")
	}
	if c.Database == "" {
		return errors.New("database must be set")
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must not be negative, got %d", c.TimeoutMS)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", c.BatchSize)
	}
	if !validLevel(c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Level returns the log level to apply to every component.
func (c *Config) Level() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}

func validLevel(s string) bool {
	for _, l := range logger.AllLevelLiterals() {
		if strings.EqualFold(string(l), s) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
