// Package app wires configuration, logging, storage and metrics into the
// services the command line and HTTP server run.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/tphakala/orderlens/internal/buildinfo"
	"github.com/tphakala/orderlens/internal/canonical"
	"github.com/tphakala/orderlens/internal/conf"
	"github.com/tphakala/orderlens/internal/datastore"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/httpclient"
	"github.com/tphakala/orderlens/internal/ingest"
	"github.com/tphakala/orderlens/internal/logger"
	"github.com/tphakala/orderlens/internal/observability"
	"github.com/tphakala/orderlens/internal/query"
)

// Context carries the process-wide collaborators shared by every command.
// Everything beyond settings is created lazily so commands that never touch
// the store do not open it.
type Context struct {
	ConfigFile string
	Settings   *conf.Settings
	Build      buildinfo.Info

	central *logger.CentralLogger
	log     logger.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	store *datastore.Store
}

// NewContext returns an empty Context; Setup must run before use.
func NewContext() *Context {
	return &Context{Build: buildinfo.Get()}
}

// Setup loads settings and starts logging and error telemetry.
func (c *Context) Setup(flags ...conf.FlagBinding) error {
	settings, err := conf.Load(c.ConfigFile, flags...)
	if err != nil {
		return err
	}
	return c.SetupWithSettings(settings)
}

// SetupWithSettings starts logging and error telemetry for already loaded settings.
func (c *Context) SetupWithSettings(settings *conf.Settings) error {
	c.Settings = settings

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.central = central
	c.log = central.Module("orderlens")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.metrics = metrics

	for _, note := range conf.Advisories(settings) {
		c.log.Warn(note)
	}

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, c.Build.Release()); err != nil {
			c.log.Warn("error telemetry disabled", logger.Error(err))
		} else {
			c.log.Info("error telemetry enabled")
		}
	}
	return nil
}

// Logger returns the root application logger.
func (c *Context) Logger() logger.Logger {
	if c.log == nil {
		return logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return c.log
}

// Metrics returns the Prometheus collectors.
func (c *Context) Metrics() *observability.Metrics {
	return c.metrics
}

// Store opens and migrates the database on first use.
func (c *Context) Store(ctx context.Context) (*datastore.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}

	store, err := datastore.Open(&c.Settings.Database, c.Logger())
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if c.metrics != nil {
		if sqlDB, err := store.DB().DB(); err == nil {
			if err := c.metrics.RegisterDatastore(sqlDB, store.Dialect()); err != nil {
				c.log.Warn("database pool metrics unavailable", logger.Error(err))
			}
		}
	}

	c.store = store
	return store, nil
}

// Resolver returns a canonical resolver over store.
func (c *Context) Resolver(store *datastore.Store) *canonical.Resolver {
	cfg := canonical.Config{
		ItemThreshold:     c.Settings.Resolver.ItemThreshold,
		CategoryThreshold: c.Settings.Resolver.CategoryThreshold,
		CacheTTL:          c.Settings.Resolver.CacheTTL,
	}
	if c.metrics != nil {
		cfg.Recorder = c.metrics.Canonical
	}
	return canonical.NewResolver(store.Canonical(), c.Logger(), cfg)
}

// QueryService returns the intent query service over store.
func (c *Context) QueryService(store *datastore.Store) (*query.Service, error) {
	compiler, err := query.NewCompiler(store.Dialect())
	if err != nil {
		return nil, err
	}

	qs := c.Settings.Query
	validator := query.NewValidator()
	validator.Locations = qs.Locations
	validator.FulfillmentMethods = qs.FulfillmentMethods
	validator.Providers = qs.Providers
	if qs.MaxLimit > 0 {
		validator.MaxLimit = qs.MaxLimit
	}

	cfg := query.ServiceConfig{Timeout: qs.Timeout}
	if c.metrics != nil {
		cfg.Recorder = c.metrics.Query
	}
	return query.NewService(validator, compiler, query.NewGormRunner(store.DB()), c.Logger(), cfg), nil
}

// Pipeline returns an ingestion pipeline writing to store.
func (c *Context) Pipeline(store *datastore.Store) *ingest.Pipeline {
	cfg := ingest.Config{Concurrency: c.Settings.Ingest.Concurrency}
	if c.metrics != nil {
		cfg.Recorder = c.metrics.Ingest
	}
	return ingest.NewPipeline(store, store.Orders(), c.Resolver(store), c.Logger(), cfg)
}

// HTTPClient returns a client for fetching remote exports.
func (c *Context) HTTPClient() *httpclient.Client {
	client := httpclient.New(&httpclient.Config{
		DefaultTimeout: c.Settings.Ingest.HTTPTimeout,
		UserAgent:      "OrderLens/" + c.Build.Version,
	})
	if c.metrics != nil {
		client.SetResponseHook(c.metrics.Ingest.ObserveFetch)
	}
	return client
}

// Close releases the store and flushes logs.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	if c.central != nil {
		errs = append(errs, c.central.Close())
	}
	return errors.Join(errs...)
}
