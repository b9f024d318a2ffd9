// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ikmak/mongoika/config"
	"github.com/ikmak/mongoika/internal/logger"
	"github.com/ikmak/mongoika/internal/metrics"
	"github.com/ikmak/mongoika/mongodriver"
	"github.com/ikmak/mongoika/options"
	"github.com/ikmak/mongoika/pin"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
	server  *http.Server

	client  *mongo.Client
	session *mongodriver.Session
	counter *pin.Counter
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "mongoika",
		Short:             "Lazy pinned queries for MongoDB",
		Long:              "Run queries whose results are read on demand inside one causally consistent session",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		return a.teardown(cmd.Context())
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a TOML configuration file")
	flags.StringSlice("env-file", nil, "dotenv files to load before the environment")
	flags.String("uri", "", "connection string, overrides the configuration")
	flags.String("database", "", "database name, overrides the configuration")
	flags.String("log-level", "", `log level ("off", "info", "debug")`)
	flags.String("log-format", "", `log format ("text", "json")`)
	flags.String("metrics-addr", "", "address serving Prometheus metrics, disabled when empty")

	rootCmd.AddCommand(newFindCmd(a), newCountCmd(a), newFilesCmd(a))
	return rootCmd
}

// setup loads the configuration, then applies flags explicitly set on the command line.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	envFiles, _ := flags.GetStringSlice("env-file")

	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return err
	}
	for name, dst := range map[string]*string{
		"uri":          &cfg.URI,
		"database":     &cfg.Database,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"metrics-addr": &cfg.MetricsAddr,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = newLogrus(cfg)
	a.log.SetOutput(cmd.ErrOrStderr())
	a.metrics = metrics.New()

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := a.metrics.Register(reg); err != nil {
			return err
		}
		a.server = newMetricsServer(cfg.MetricsAddr, reg)
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.WithError(err).Error("metrics server stopped")
			}
		}()
	}
	return nil
}

func newLogrus(cfg *config.Config) *logrus.Logger {
	l := logrus.New()
	if cfg.LogFormat == config.FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	switch cfg.Level() {
	case logger.LevelDebug:
		l.SetLevel(logrus.DebugLevel)
	case logger.LevelInfo:
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.ErrorLevel)
	}
	return l
}

// loggerOptions routes every component to the logrus logger at the configured level.
func (a *app) loggerOptions() *options.LoggerOptions {
	lo := options.Logger().SetSink(logger.NewLogrusSink(a.log))
	if level := a.cfg.Level(); level != logger.LevelOff {
		lo.SetComponentLevel(options.LogComponentAll, options.LogLevel(level))
	}
	return lo
}

// connect opens the client and the pin counter shared by the command's queries.
func (a *app) connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	client, err := mongodriver.Connect(ctx, a.cfg, logger.NewLogrusSink(a.log))
	if err != nil {
		return err
	}
	a.client = client
	a.session = mongodriver.NewSession(client)
	a.counter = pin.NewCounter(a.session, options.Counter().
		SetMonitor(a.metrics.PinMonitor()).
		SetLoggerOptions(a.loggerOptions()))
	return nil
}

func (a *app) database() *mongo.Database {
	return a.client.Database(a.cfg.Database)
}

func (a *app) teardown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Disconnect(ctx))
	}
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
