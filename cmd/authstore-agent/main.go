package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authstore/internal/infra/buildinfo"
	"github.com/yndnr/authstore/internal/infra/confloader"
	"github.com/yndnr/authstore/internal/infra/shutdown"
	"github.com/yndnr/authstore/internal/server/config"
	"github.com/yndnr/authstore/internal/server/localserver"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "authstore-agent",
		Usage:   "Serve session credential storage on a local socket",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"AUTHSTORE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "socket",
				Usage: "Unix socket path (overrides agent.socket)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Data directory (overrides storage.data_dir)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("agent exited", "error", err)
		os.Exit(1)
	}
}

// flagOverrides maps explicitly set flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	for flag, key := range map[string]string{
		"socket":    "agent.socket",
		"data-dir":  "storage.data_dir",
		"log-level": "log.level",
	} {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := config.Load(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting authstore-agent",
		"version", buildinfo.Get().Version,
		"config", configFile,
		"platform", cfg.Platform)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.Global()
	}

	p, err := buildPipeline(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	srv := localserver.New(cfg.Agent.Socket, localserver.NewHandler(localserver.HandlerConfig{
		Storage:   p.storage,
		Logger:    log,
		Metrics:   metrics,
		RateLimit: cfg.Agent.RateLimit,
	}))
	if err := srv.Listen(); err != nil {
		p.Close()
		return fmt.Errorf("listen on %s: %w", cfg.Agent.Socket, err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Agent.ShutdownTimeout)

	// Hooks run newest first: server, watcher, then stores.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing credential stores")
		return p.Close()
	})

	if configFile != "" {
		watcher, err := watchLogLevel(configFile, overrides, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down local server")
		return srv.Shutdown(ctx)
	})

	go func() {
		log.Info("local server listening", "socket", srv.Path())
		if err := srv.Serve(); err != nil {
			log.Error("local server error", "error", err)
			shutdownHandler.Shutdown()
		}
	}()

	if err := shutdownHandler.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("agent stopped gracefully")
	return nil
}

// watchLogLevel re-reads the config file on change and applies log.level.
// Other settings require a restart.
func watchLogLevel(path string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, err := config.Load(path, overrides)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.Start()
	return watcher, nil
}

var errPassphraseRequired = errors.New("secure_store.passphrase is required on native platforms")
