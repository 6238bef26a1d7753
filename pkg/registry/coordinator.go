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

// Package registry coordinates heartbeat admission, authorization, and the
// lazy write-through of device state to the persistent store.
package registry

import (
	"context"
	"time"

	"github.com/carverauto/hbd/pkg/cache"
	"github.com/carverauto/hbd/pkg/db"
	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
	"github.com/carverauto/hbd/pkg/natsutil"
)

// Outcome classifies how a heartbeat was handled.
type Outcome int

const (
	// OutcomeAccepted means the heartbeat was admitted and the cache
	// updated; a durable write may or may not have happened.
	OutcomeAccepted Outcome = iota
	// OutcomeSquelched means the device is authorized but its heartbeats
	// are accepted silently without propagation.
	OutcomeSquelched
	// OutcomeDenied means authorization failed; any cached record was
	// flushed.
	OutcomeDenied
	// OutcomeUnavailable means the store session could not be obtained
	// and the caller must report service-unavailable.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeSquelched:
		return "squelched"
	case OutcomeDenied:
		return "denied"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// DeviceEventPublisher propagates device lifecycle changes. A nil publisher
// disables propagation.
type DeviceEventPublisher interface {
	PublishDeviceEvent(ctx context.Context, eventType string, data models.DeviceLifecycleEventData) error
}

// Coordinator runs one heartbeat end-to-end:
// authorization -> staleness evaluation -> conditional durable write ->
// cache upsert -> acknowledgment.
type Coordinator struct {
	cache        *cache.HeartbeatCache
	store        db.Service
	resolver     *Resolver
	events       DeviceEventPublisher
	maxStaleness time.Duration
	hbPeriod     time.Duration
	nowFn        func() time.Time
	logger       logger.Logger
}

func NewCoordinator(c *cache.HeartbeatCache, store db.Service, events DeviceEventPublisher, maxStaleness, hbPeriod time.Duration, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Coordinator{
		cache:        c,
		store:        store,
		resolver:     NewResolver(c, store, log),
		events:       events,
		maxStaleness: maxStaleness,
		hbPeriod:     hbPeriod,
		nowFn:        time.Now,
		logger:       log,
	}
}

// SetNowFn overrides the clock, for tests.
func (c *Coordinator) SetNowFn(now func() time.Time) {
	if now != nil {
		c.nowFn = now
	}
}

// ProcessHeartbeat handles one inbound heartbeat. Durable-write failures
// are swallowed: the device still gets a success acknowledgment and the
// staleness policy retries on its next heartbeat, which prevents devices
// from retry-storming the store. The only error returned is an
// unobtainable store session (OutcomeUnavailable).
func (c *Coordinator) ProcessHeartbeat(ctx context.Context, req models.HeartbeatRequest) (Outcome, error) {
	mac := models.CanonicalMAC(req.MAC)
	now := c.nowFn()

	decision, err := c.resolver.Resolve(ctx, mac)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("mac", mac).
			Msg("device store unavailable during authorization")

		return OutcomeUnavailable, err
	}

	if !decision.Authorized {
		c.revoke(ctx, mac, req, now)
		return OutcomeDenied, nil
	}

	if decision.Squelched {
		c.refreshSquelched(mac, req, now)
		return OutcomeSquelched, nil
	}

	c.accept(ctx, mac, req, now)

	return OutcomeAccepted, nil
}

// revoke flushes any cached record so the next heartbeat for this MAC
// re-queries the store instead of being served a stale allow.
func (c *Coordinator) revoke(ctx context.Context, mac string, req models.HeartbeatRequest, now time.Time) {
	record, existed := c.cache.Get(mac)
	if !existed {
		return
	}

	c.cache.Remove(mac)
	c.logger.Info().
		Str("mac", mac).
		Uint32("device_id", record.DeviceID).
		Msg("authorization revoked, cache entry flushed")

	c.publish(ctx, natsutil.TypeDeviceRevoked, models.DeviceLifecycleEventData{
		DeviceID:  record.DeviceID,
		MAC:       mac,
		LocalIP:   req.LocalIP,
		GlobalIP:  req.GlobalIP,
		Timestamp: now,
	})
}

// refreshSquelched advances the cached heartbeat timer without any durable
// write or propagation, so squelched devices do not re-query the store on
// every heartbeat.
func (c *Coordinator) refreshSquelched(mac string, req models.HeartbeatRequest, now time.Time) {
	record, ok := c.cache.Get(mac)
	if !ok {
		record = models.DeviceRecord{
			DeviceID:     req.DeviceID,
			MAC:          mac,
			LocalIP:      req.LocalIP,
			GlobalIP:     req.GlobalIP,
			Registration: models.RegistrationUninitialized,
			Squelched:    true,
		}
	}

	record.LastHeartbeat = now
	c.cache.Upsert(record)
}

func (c *Coordinator) accept(ctx context.Context, mac string, req models.HeartbeatRequest, now time.Time) {
	old, hasOld := c.cache.Get(mac)

	var oldRecord *models.DeviceRecord
	if hasOld {
		oldRecord = &old
	}

	// A record that already reached Ready masks the uninitialized flag:
	// replaying an activation heartbeat must not activate twice.
	uninitialized := req.Uninitialized &&
		(!hasOld || old.Registration != models.RegistrationReady)

	record := models.DeviceRecord{
		DeviceID:     req.DeviceID,
		MAC:          mac,
		LocalIP:      req.LocalIP,
		GlobalIP:     req.GlobalIP,
		Registration: models.RegistrationUninitialized,
	}
	if hasOld {
		record.Registration = old.Registration
		record.LastDurableWrite = old.LastDurableWrite
	}

	if NeedsDurableWrite(oldRecord, req.LocalIP, req.GlobalIP, now, uninitialized, c.maxStaleness, c.hbPeriod) {
		c.writeThrough(ctx, &record, oldRecord, req, uninitialized, now)
	}

	record.LastHeartbeat = now
	c.cache.Upsert(record)
}

// writeThrough issues the durable write best-effort. On failure the record's
// LastDurableWrite is left unchanged so the next heartbeat's staleness
// evaluation retries; no dedicated retry loop exists. Write operations are
// idempotent upserts, so two racing heartbeats that both decide to write are
// harmless.
func (c *Coordinator) writeThrough(ctx context.Context, record, old *models.DeviceRecord, req models.HeartbeatRequest, uninitialized bool, now time.Time) {
	var err error
	if uninitialized {
		err = c.store.ActivateDevice(ctx, req.DeviceID, record.MAC, req.LocalIP, req.GlobalIP)
	} else {
		err = c.store.RecordHeartbeat(ctx, req.DeviceID, record.MAC, req.LocalIP, req.GlobalIP, now)
	}

	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("mac", record.MAC).
			Uint32("device_id", req.DeviceID).
			Bool("activation", uninitialized).
			Msg("durable write failed, will retry on next heartbeat")

		return
	}

	record.LastDurableWrite = now
	if uninitialized {
		record.Registration = models.RegistrationReady
	}

	switch {
	case uninitialized:
		c.publish(ctx, natsutil.TypeDeviceActivated, models.DeviceLifecycleEventData{
			DeviceID:  req.DeviceID,
			MAC:       record.MAC,
			LocalIP:   req.LocalIP,
			GlobalIP:  req.GlobalIP,
			Timestamp: now,
		})
	case old != nil && (old.LocalIP != req.LocalIP || old.GlobalIP != req.GlobalIP):
		c.publish(ctx, natsutil.TypeDeviceIPChanged, models.DeviceLifecycleEventData{
			DeviceID:        req.DeviceID,
			MAC:             record.MAC,
			LocalIP:         req.LocalIP,
			GlobalIP:        req.GlobalIP,
			PreviousLocalIP: old.LocalIP,
			Timestamp:       now,
		})
	}
}

// publish is best-effort: propagation failures are logged and never affect
// the device's acknowledgment.
func (c *Coordinator) publish(ctx context.Context, eventType string, data models.DeviceLifecycleEventData) {
	if c.events == nil {
		return
	}

	if err := c.events.PublishDeviceEvent(ctx, eventType, data); err != nil {
		c.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("mac", data.MAC).
			Msg("failed to publish device lifecycle event")
	}
}
