/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/hbd/pkg/api"
	"github.com/carverauto/hbd/pkg/cache"
	"github.com/carverauto/hbd/pkg/config"
	"github.com/carverauto/hbd/pkg/db"
	"github.com/carverauto/hbd/pkg/lifecycle"
	"github.com/carverauto/hbd/pkg/models"
	"github.com/carverauto/hbd/pkg/natsutil"
	"github.com/carverauto/hbd/pkg/registry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/hbd/hbd.json", "Path to hbd config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg models.HBDConfig

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return err
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return err
	}

	logImpl, err := lifecycle.CreateComponentLogger("hbd", cfg.Logging)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.Database, logImpl)
	if err != nil {
		return err
	}

	store := db.NewStore(pool, cfg.Database, logImpl)
	defer store.Close()

	heartbeatCache := cache.New()

	sweeper := cache.NewSweeper(heartbeatCache, cfg.Cache, logImpl)
	sweeper.Start(ctx)

	var events registry.DeviceEventPublisher

	if cfg.NATS != nil && cfg.NATS.URL != "" {
		publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, cfg.NATS)
		if err != nil {
			return err
		}
		defer nc.Close()

		events = publisher

		logImpl.Info().
			Str("url", cfg.NATS.URL).
			Str("stream", cfg.NATS.Stream).
			Msg("device lifecycle events enabled")
	}

	coordinator := registry.NewCoordinator(
		heartbeatCache,
		store,
		events,
		time.Duration(cfg.MaxStaleness),
		time.Duration(cfg.HBStalenessPeriod),
		logImpl,
	)

	server := api.NewAPIServer(&cfg, coordinator, heartbeatCache, logImpl)

	errCh := make(chan error, 1)

	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logImpl.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logImpl.Error().Err(err).Msg("shutdown did not complete cleanly")
		os.Exit(1)
	}

	return nil
}
