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

package cache

import (
	"context"
	"time"

	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
)

const defaultSweepInterval = time.Minute

// Sweeper evicts devices that have stopped heartbeating. A zero MaxIdle
// disables eviction; records then live until authorization revocation.
type Sweeper struct {
	cache    *HeartbeatCache
	maxIdle  time.Duration
	interval time.Duration
	logger   logger.Logger
}

func NewSweeper(c *HeartbeatCache, cfg models.CacheConfig, log logger.Logger) *Sweeper {
	interval := time.Duration(cfg.SweepInterval)
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Sweeper{
		cache:    c,
		maxIdle:  time.Duration(cfg.MaxIdle),
		interval: interval,
		logger:   log,
	}
}

// Start runs the sweep loop until ctx is canceled. It returns immediately
// when eviction is disabled.
func (s *Sweeper) Start(ctx context.Context) {
	if s.maxIdle <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.sweep()
				if removed > 0 {
					s.logger.Info().
						Int("removed", removed).
						Msg("swept idle devices from heartbeat cache")
				}
			}
		}
	}()
}

func (s *Sweeper) sweep() int {
	cutoff := s.cache.nowFn().Add(-s.maxIdle)
	removed := 0

	for i := range s.cache.shards {
		sh := &s.cache.shards[i]

		var stale []string

		sh.mu.RLock()
		for mac, record := range sh.devices {
			if record.LastHeartbeat.Before(cutoff) {
				stale = append(stale, mac)
			}
		}
		sh.mu.RUnlock()

		for _, mac := range stale {
			sh.mu.Lock()
			record, ok := sh.devices[mac]
			// A heartbeat may have landed between the scan and the
			// delete; only evict if still stale.
			if ok && record.LastHeartbeat.Before(cutoff) {
				delete(sh.devices, mac)
				removed++
			}
			sh.mu.Unlock()
		}
	}

	if removed > 0 {
		s.cache.count.Add(int64(-removed))
	}

	return removed
}
