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
	"strings"
	"time"
)

// RegistrationState tracks whether a device has completed activation.
// It only moves forward: Uninitialized -> Ready.
type RegistrationState int32

const (
	RegistrationUninitialized RegistrationState = iota
	RegistrationReady
)

func (s RegistrationState) String() string {
	if s == RegistrationReady {
		return "ready"
	}

	return "uninitialized"
}

// DeviceRecord is the cached liveness and network-location state for one
// physical device, keyed by its canonical MAC address.
type DeviceRecord struct {
	DeviceID uint32 `json:"device_id"`
	MAC      string `json:"mac_address"`
	LocalIP  string `json:"local_ip_address"`
	GlobalIP string `json:"global_ip_address"`
	// LastHeartbeat advances on every accepted heartbeat.
	LastHeartbeat time.Time `json:"last_heartbeat"`
	// LastDurableWrite is zero until the first successful store write and
	// never leads LastHeartbeat.
	LastDurableWrite time.Time         `json:"last_durable_write,omitempty"`
	Registration     RegistrationState `json:"registration_state"`
	Squelched        bool              `json:"squelched"`
}

// HeartbeatRequest carries one inbound heartbeat after transport decoding.
// GlobalIP is server-observed, never client-supplied.
type HeartbeatRequest struct {
	DeviceID      uint32 `json:"device_id"`
	MAC           string `json:"mac_address"`
	LocalIP       string `json:"local_ip_address"`
	GlobalIP      string `json:"global_ip_address"`
	Timestamp     uint64 `json:"timestamp,omitempty"`
	LongPoll      bool   `json:"long_poll,omitempty"`
	Uninitialized bool   `json:"uninitialized,omitempty"`
}

// AuthDecision is the authorization verdict for one device.
type AuthDecision struct {
	Authorized bool `json:"authorized"`
	Squelched  bool `json:"squelched"`
}

// CanonicalMAC normalizes a MAC address for use as a cache/store key.
func CanonicalMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}
