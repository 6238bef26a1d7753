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

package natsutil

import (
	"testing"
	"time"

	"github.com/carverauto/hbd/pkg/models"
)

func TestNewDeviceEventEnvelope(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	data := models.DeviceLifecycleEventData{
		DeviceID:  7,
		MAC:       "AA:BB:CC:DD:EE:FF",
		LocalIP:   "10.0.0.5",
		GlobalIP:  "203.0.113.9",
		Timestamp: ts,
	}

	event := NewDeviceEvent(TypeDeviceActivated, "events.device", data)

	if event.SpecVersion != "1.0" {
		t.Fatalf("expected specversion 1.0, got %q", event.SpecVersion)
	}

	if event.Subject != "events.device.activated" {
		t.Fatalf("expected subject events.device.activated, got %q", event.Subject)
	}

	if event.Type != TypeDeviceActivated {
		t.Fatalf("unexpected type %q", event.Type)
	}

	if event.ID == "" {
		t.Fatal("expected a generated event ID")
	}

	if event.Time == nil || !event.Time.Equal(ts) {
		t.Fatalf("expected event time %v, got %v", ts, event.Time)
	}
}

func TestNewDeviceEventDefaultsSubjectPrefixAndTime(t *testing.T) {
	t.Parallel()

	before := time.Now()
	event := NewDeviceEvent(TypeDeviceIPChanged, "", models.DeviceLifecycleEventData{MAC: "AA:BB:CC:DD:EE:FF"})

	if event.Subject != "events.device.ip_changed" {
		t.Fatalf("expected default subject prefix, got %q", event.Subject)
	}

	if event.Time == nil || event.Time.Before(before) {
		t.Fatalf("expected event time to default to now, got %v", event.Time)
	}
}
