package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/config"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/netmon"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/repo"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncengine"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncqueue"
)

// app wires the full stack: config, logging, stores, queue, monitor,
// engine and repositories.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	blob    blob.Store
	local   *localstore.Store
	remote  remote.Store
	queue   *syncqueue.Queue
	monitor *netmon.Monitor
	engine  *syncengine.Engine
	repos   *repo.Repositories

	closers []func() error
}

// newApp builds the stack. withMetrics registers the prometheus
// collectors; only the daemon serves them.
func newApp(withMetrics bool) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagUser != "" {
		cfg.UserID = flagUser
	}

	logger := newLogger(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &app{cfg: cfg, log: logger}

	blobStore, err := blob.NewFileStore(cfg.BlobDir())
	if err != nil {
		return nil, err
	}
	a.blob = blobStore

	local, err := localstore.Open(localstore.Config{
		Path:   cfg.DatabasePath(),
		Blob:   blobStore,
		Logger: logger.With().Str("component", "localstore").Logger(),
	})
	if err != nil {
		return nil, err
	}
	a.local = local
	a.closers = append(a.closers, local.Close)

	if cfg.RemoteDSN != "" {
		pg, err := remote.OpenPostgres(cfg.RemoteDSN, cfg.RemoteTimeout)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.remote = pg
		a.closers = append(a.closers, pg.Close)
	} else {
		// No remote configured: run fully offline. Every mutation
		// queues until a DSN appears.
		logger.Warn().Msg("no remote DSN configured, running offline-only")
		offlineRemote := remote.NewFake()
		offlineRemote.SetOffline(true)
		a.remote = offlineRemote
	}

	a.queue = syncqueue.New(local, logger.With().Str("component", "syncqueue").Logger())

	monitor, err := netmon.New(netmon.Config{
		Prober:        a.remote,
		FlagPath:      cfg.FlagPath(),
		ProbeInterval: cfg.ProbeInterval,
		Logger:        logger.With().Str("component", "netmon").Logger(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.monitor = monitor

	var metrics *syncengine.Metrics
	if withMetrics {
		metrics = syncengine.NewMetrics(prometheus.DefaultRegisterer)
	}
	a.engine = syncengine.New(syncengine.Config{
		Queue:   a.queue,
		Remote:  a.remote,
		Logger:  logger.With().Str("component", "syncengine").Logger(),
		Metrics: metrics,
	})

	a.repos = repo.New(repo.Deps{
		Local:  local,
		Remote: a.remote,
		Queue:  a.queue,
		Net:    monitor,
		Logger: logger.With().Str("component", "repo").Logger(),
	})

	return a, nil
}

// Close releases resources in reverse construction order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("shutdown close failed")
		}
	}
	a.closers = nil
}

// requireUser returns the active user id or an error telling the
// operator how to set one.
func (a *app) requireUser() (string, error) {
	if a.cfg.UserID == "" {
		return "", fmt.Errorf("no active user: set user_id in config or pass --user")
	}
	return a.cfg.UserID, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
