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

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/hbd/pkg/db Service

package db

import (
	"context"
	"time"

	"github.com/carverauto/hbd/pkg/models"
)

// Service is the persistent device registry consumed by the heartbeat
// coordinator. All writes are idempotent upserts: two racing heartbeats for
// the same device may both write, and the duplicate must be harmless.
type Service interface {
	// CheckDeviceAuthorization looks up the authorization verdict for a
	// canonical MAC. A session that cannot be obtained at all is reported
	// as ErrStoreUnavailable; a reachable store with no matching row
	// returns ErrDeviceNotFound.
	CheckDeviceAuthorization(ctx context.Context, mac string) (models.AuthDecision, error)

	// RecordHeartbeat upserts the device's last-seen state.
	RecordHeartbeat(ctx context.Context, deviceID uint32, mac, localIP, globalIP string, now time.Time) error

	// ActivateDevice upserts the device and marks it registered (Ready).
	ActivateDevice(ctx context.Context, deviceID uint32, mac, localIP, globalIP string) error

	Close()
}
