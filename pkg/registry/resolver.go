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
	"context"
	"errors"

	"github.com/carverauto/hbd/pkg/cache"
	"github.com/carverauto/hbd/pkg/db"
	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
)

// Resolver decides whether a device is authorized to heartbeat. A cached
// record counts as an authorization verdict, so the store is only consulted
// for devices we have not seen. The resolver never mutates the cache; the
// coordinator caches positive verdicts through its record upsert.
type Resolver struct {
	cache  *cache.HeartbeatCache
	store  db.Service
	logger logger.Logger
}

func NewResolver(c *cache.HeartbeatCache, store db.Service, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Resolver{
		cache:  c,
		store:  store,
		logger: log,
	}
}

// Resolve returns the authorization verdict for mac. It fails closed: a
// reachable store that errors or has no matching device resolves to a
// squelched deny rather than an error, so internal failures are never
// exposed to devices. Only an unobtainable store session is an error
// (db.ErrStoreUnavailable), and the caller must surface it.
func (r *Resolver) Resolve(ctx context.Context, mac string) (models.AuthDecision, error) {
	if record, ok := r.cache.Get(mac); ok {
		return models.AuthDecision{Authorized: true, Squelched: record.Squelched}, nil
	}

	decision, err := r.store.CheckDeviceAuthorization(ctx, models.CanonicalMAC(mac))
	if err != nil {
		if errors.Is(err, db.ErrStoreUnavailable) {
			return models.AuthDecision{}, err
		}

		if !errors.Is(err, db.ErrDeviceNotFound) {
			r.logger.Warn().
				Err(err).
				Str("mac", models.CanonicalMAC(mac)).
				Msg("authorization query failed, denying")
		}

		return models.AuthDecision{Authorized: false, Squelched: true}, nil
	}

	return decision, nil
}
