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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/hbd/pkg/logger"
)

type Duration time.Duration

var (
	errInvalidDuration       = errors.New("invalid duration")
	errMissingListenAddr     = errors.New("listen_addr is required")
	errMissingDatabase       = errors.New("database configuration is required")
	errInvalidStaleness      = errors.New("max_staleness must exceed hb_staleness_period")
	errMissingStalenessKnobs = errors.New("max_staleness and hb_staleness_period are required")
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// CORSConfig controls the CORS headers emitted by the API middleware.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// CacheConfig tunes the heartbeat cache's optional idle sweep. A zero
// MaxIdle disables eviction entirely.
type CacheConfig struct {
	MaxIdle       Duration `json:"max_idle,omitempty"`
	SweepInterval Duration `json:"sweep_interval,omitempty"`
}

// NATSConfig points the lifecycle event publisher at a JetStream stream.
// A nil NATSConfig disables event publishing.
type NATSConfig struct {
	URL     string `json:"url"`
	Stream  string `json:"stream"`
	Subject string `json:"subject_prefix,omitempty"`
}

// HBDConfig is the top-level configuration for the heartbeat daemon.
type HBDConfig struct {
	ListenAddr string         `json:"listen_addr"`
	APIKey     string         `json:"api_key,omitempty"`
	CORS       CORSConfig     `json:"cors,omitempty"`
	Database   *Database      `json:"database"`
	NATS       *NATSConfig    `json:"nats,omitempty"`
	Cache      CacheConfig    `json:"cache,omitempty"`
	Logging    *logger.Config `json:"logging,omitempty"`

	// MaxStaleness bounds how far the durable record may trail memory;
	// HBStalenessPeriod is the expected device heartbeat interval.
	MaxStaleness      Duration `json:"max_staleness"`
	HBStalenessPeriod Duration `json:"hb_staleness_period"`
}

func (c *HBDConfig) Validate() error {
	if c.ListenAddr == "" {
		return errMissingListenAddr
	}

	if c.Database == nil {
		return errMissingDatabase
	}

	if c.MaxStaleness <= 0 || c.HBStalenessPeriod <= 0 {
		return errMissingStalenessKnobs
	}

	if time.Duration(c.MaxStaleness) <= time.Duration(c.HBStalenessPeriod) {
		return errInvalidStaleness
	}

	return nil
}
