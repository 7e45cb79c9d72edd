package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/autoremote/internal/audit"
	"github.com/nerrad567/autoremote/internal/autoremote"
	"github.com/nerrad567/autoremote/internal/device"
	"github.com/nerrad567/autoremote/internal/hostinfo"
	"github.com/nerrad567/autoremote/internal/infrastructure/config"
	"github.com/nerrad567/autoremote/internal/infrastructure/database"
	"github.com/nerrad567/autoremote/internal/infrastructure/influxdb"
	"github.com/nerrad567/autoremote/internal/infrastructure/logging"
	"github.com/nerrad567/autoremote/internal/infrastructure/mqtt"
	"github.com/nerrad567/autoremote/internal/remote"
	"github.com/nerrad567/autoremote/internal/ui"
	"github.com/nerrad567/autoremote/migrations"
)

// configEnv names an alternative config file when --config is not given.
const configEnv = "AUTOREMOTE_CONFIG"

// app holds everything one command invocation needs.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	svc     *autoremote.Service
	history audit.Repository

	db      *database.DB
	broker  *mqtt.Client
	metrics *influxdb.Recorder
}

// loadConfig resolves the config file: --config, then $AUTOREMOTE_CONFIG,
// then the default location. Only the default may be missing.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath != "" {
		return config.Load(flagPath, false)
	}
	if envPath := os.Getenv(configEnv); envPath != "" {
		return config.Load(envPath, false)
	}
	return config.Load(config.DefaultPath(), true)
}

// openApp wires configuration, storage, the relay client, the activity
// history and the optional MQTT and InfluxDB sinks into a Service. Optional
// sink failures only warn.
func openApp(ctx context.Context, opts *rootOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	a := &app{
		cfg: cfg,
		log: logging.New(cfg.Logging, opts.build.Version),
	}

	a.db, err = database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening device store: %w", err)
	}
	if err := a.db.Migrate(ctx, migrations.FS); err != nil {
		a.close()
		return nil, fmt.Errorf("preparing device store: %w", err)
	}
	if err := a.db.HealthCheck(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("checking device store: %w", err)
	}
	a.logSchema(ctx)

	registry := device.NewRegistry(device.NewSQLiteRepository(a.db.DB))
	registry.SetLogger(a.log.With("component", "registry"))
	registry.SetUniqueKeys(cfg.Registry.UniqueKeys)

	client, err := remote.New(remote.Options{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		UserAgent: cfg.Remote.UserAgent + "/" + opts.build.Version,
		Logger:    a.log.With("component", "remote"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.history = audit.NewSQLiteRepository(a.db.DB)
	svcOpts := []autoremote.Option{
		autoremote.WithLogger(a.log),
		autoremote.WithPublisher(audit.NewPublisher(a.history)),
	}

	if cfg.MQTT.Enabled {
		a.broker, err = mqtt.Connect(cfg.MQTT)
		if err == nil {
			err = a.broker.HealthCheck(ctx)
		}
		if err != nil {
			ui.Warn(stderr, "event publishing disabled: "+err.Error())
			a.broker.Close() //nolint:errcheck // Nil-safe; the broker is not used
			a.broker = nil
		} else {
			svcOpts = append(svcOpts, autoremote.WithPublisher(mqtt.NewEventPublisher(a.broker)))
		}
	}

	a.metrics, err = influxdb.NewRecorder(ctx, cfg.InfluxDB, func(err error) {
		a.log.Warn("influxdb write failed", "error", err)
	})
	switch {
	case err == nil:
		svcOpts = append(svcOpts, autoremote.WithRecorder(a.metrics))
	case errors.Is(err, influxdb.ErrDisabled):
		a.log.Debug("call metrics off")
	default:
		ui.Warn(stderr, "call metrics disabled: "+err.Error())
	}

	a.svc = autoremote.New(registry, client, hostinfo.NewSystem(), svcOpts...)
	a.log.Debug("autoremote ready",
		"database", a.db.Path(),
		"relay", client.BaseURL(),
		"mqtt", a.broker != nil,
		"influxdb", a.metrics != nil,
	)
	return a, nil
}

// logSchema reports the applied schema versions at debug level.
func (a *app) logSchema(ctx context.Context) {
	applied, err := a.db.AppliedMigrations(ctx)
	if err != nil {
		a.log.Warn("reading schema versions", "error", err)
		return
	}
	versions := make([]string, len(applied))
	for i, m := range applied {
		versions[i] = m.Version
	}
	a.log.Debug("device store schema", "path", a.db.Path(), "migrations", versions)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.Close())
	}
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil && a.log != nil {
		a.log.Warn("shutdown", "error", err)
	}
}
