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

package registry

import (
	"time"

	"github.com/carverauto/hbd/pkg/models"
)

// NeedsDurableWrite decides whether this heartbeat must touch the
// persistent store now. It keeps the durable record at most maxStaleness
// behind memory without writing on every heartbeat; identity and
// registration changes bypass the budget because they are correctness
// concerns, not freshness ones.
//
// A durable write is required when any of the following holds:
//  1. the device has never been seen (old is nil);
//  2. either observed IP address changed;
//  3. the device still needs activation (uninitialized);
//  4. there is unflushed progress and the staleness budget is about to be
//     exceeded: the durable record is older than maxStaleness-hbPeriod and
//     memory has advanced past it.
func NeedsDurableWrite(old *models.DeviceRecord, localIP, globalIP string, now time.Time, uninitialized bool, maxStaleness, hbPeriod time.Duration) bool {
	if old == nil {
		return true
	}

	if localIP != old.LocalIP || globalIP != old.GlobalIP {
		return true
	}

	if uninitialized {
		return true
	}

	budget := maxStaleness - hbPeriod
	if now.Sub(old.LastDurableWrite) > budget && old.LastHeartbeat.After(old.LastDurableWrite) {
		return true
	}

	return false
}
