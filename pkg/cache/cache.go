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

// Package cache holds the in-memory heartbeat state for the device fleet.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/hbd/pkg/models"
)

const shardCount = 64

// HeartbeatCache is a concurrent MAC -> DeviceRecord store. Reads return
// owned snapshots, never live references, so a reader can never observe a
// record mid-mutation. Concurrent upserts to the same key are
// last-write-wins by completion order; no merge is attempted.
type HeartbeatCache struct {
	shards [shardCount]shard
	// count is maintained alongside insert/remove so size reporting
	// never needs a full traversal. Approximate under races.
	count atomic.Int64
	nowFn func() time.Time
}

type shard struct {
	mu      sync.RWMutex
	devices map[string]models.DeviceRecord
}

// New returns an empty cache.
func New() *HeartbeatCache {
	c := &HeartbeatCache{nowFn: time.Now}
	for i := range c.shards {
		c.shards[i].devices = make(map[string]models.DeviceRecord)
	}

	return c
}

// SetNowFn overrides the clock, for tests.
func (c *HeartbeatCache) SetNowFn(now func() time.Time) {
	if now != nil {
		c.nowFn = now
	}
}

func (c *HeartbeatCache) shardFor(mac string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mac))

	return &c.shards[h.Sum32()%shardCount]
}

// Get returns an owned copy of the record for the canonical form of mac.
func (c *HeartbeatCache) Get(mac string) (models.DeviceRecord, bool) {
	key := models.CanonicalMAC(mac)
	s := c.shardFor(key)

	s.mu.RLock()
	record, ok := s.devices[key]
	s.mu.RUnlock()

	return record, ok
}

// Upsert atomically replaces or inserts the record keyed by its MAC.
func (c *HeartbeatCache) Upsert(record models.DeviceRecord) {
	key := models.CanonicalMAC(record.MAC)
	if key == "" {
		return
	}

	record.MAC = key
	s := c.shardFor(key)

	s.mu.Lock()
	_, existed := s.devices[key]
	s.devices[key] = record
	s.mu.Unlock()

	if !existed {
		c.count.Add(1)
	}
}

// Remove drops the record for mac, if present.
func (c *HeartbeatCache) Remove(mac string) {
	key := models.CanonicalMAC(mac)
	s := c.shardFor(key)

	s.mu.Lock()
	_, existed := s.devices[key]
	if existed {
		delete(s.devices, key)
	}
	s.mu.Unlock()

	if existed {
		c.count.Add(-1)
	}
}

// Len reports the approximate number of cached devices.
func (c *HeartbeatCache) Len() int {
	n := c.count.Load()
	if n < 0 {
		return 0
	}

	return int(n)
}
