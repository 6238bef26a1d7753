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

// Package db implements the persistent device registry over Postgres.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
)

// ErrDeviceNotFound means the store was reachable but no row matched.
var ErrDeviceNotFound = errors.New("device not found")

const defaultQueryTimeout = 5 * time.Second

const (
	checkAuthorizationSQL = `
		SELECT device_id, authorized, squelched
		FROM devices
		WHERE mac_address = $1`

	recordHeartbeatSQL = `
		INSERT INTO devices (device_id, mac_address, local_ip_address, global_ip_address, last_heartbeat)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mac_address) DO UPDATE SET
			local_ip_address  = EXCLUDED.local_ip_address,
			global_ip_address = EXCLUDED.global_ip_address,
			last_heartbeat    = EXCLUDED.last_heartbeat`

	activateDeviceSQL = `
		INSERT INTO devices (device_id, mac_address, local_ip_address, global_ip_address, last_heartbeat, registered)
		VALUES ($1, $2, $3, $4, NOW(), TRUE)
		ON CONFLICT (mac_address) DO UPDATE SET
			local_ip_address  = EXCLUDED.local_ip_address,
			global_ip_address = EXCLUDED.global_ip_address,
			last_heartbeat    = NOW(),
			registered        = TRUE`
)

// Store is the pgx-backed implementation of Service.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       logger.Logger
}

// NewStore wraps an established pool. queryTimeout bounds every store call
// so one slow query cannot starve the pool.
func NewStore(pool *pgxpool.Pool, cfg *models.Database, log logger.Logger) *Store {
	timeout := defaultQueryTimeout
	if cfg != nil && cfg.QueryTimeout > 0 {
		timeout = time.Duration(cfg.QueryTimeout)
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Store{
		pool:         pool,
		queryTimeout: timeout,
		logger:       log,
	}
}

func (s *Store) CheckDeviceAuthorization(ctx context.Context, mac string) (models.AuthDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.AuthDecision{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	var (
		deviceID   uint32
		authorized bool
		squelched  bool
	)

	err = conn.QueryRow(ctx, checkAuthorizationSQL, models.CanonicalMAC(mac)).
		Scan(&deviceID, &authorized, &squelched)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuthDecision{}, ErrDeviceNotFound
		}

		return models.AuthDecision{}, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return models.AuthDecision{Authorized: authorized, Squelched: squelched}, nil
}

func (s *Store) RecordHeartbeat(ctx context.Context, deviceID uint32, mac, localIP, globalIP string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, recordHeartbeatSQL,
		deviceID, models.CanonicalMAC(mac), localIP, globalIP, now.UTC())
	if err != nil {
		return fmt.Errorf("%w: heartbeat for %s: %w", ErrFailedToUpsert, models.CanonicalMAC(mac), err)
	}

	return nil
}

func (s *Store) ActivateDevice(ctx context.Context, deviceID uint32, mac, localIP, globalIP string) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, activateDeviceSQL,
		deviceID, models.CanonicalMAC(mac), localIP, globalIP)
	if err != nil {
		return fmt.Errorf("%w: activation for %s: %w", ErrFailedToUpsert, models.CanonicalMAC(mac), err)
	}

	s.logger.Info().
		Uint32("device_id", deviceID).
		Str("mac", models.CanonicalMAC(mac)).
		Msg("device activated")

	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
