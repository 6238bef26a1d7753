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

// Package natsutil publishes device lifecycle CloudEvents to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/hbd/pkg/models"
)

const (
	eventSource = "hbd/coordinator"

	defaultSubjectPrefix = "events.device"

	// Event types. Squelched devices never produce these: their
	// heartbeats are accepted silently and not propagated.
	TypeDeviceActivated = "com.carverauto.hbd.device.activated"
	TypeDeviceIPChanged = "com.carverauto.hbd.device.ip_changed"
	TypeDeviceRevoked   = "com.carverauto.hbd.device.revoked"
)

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js            jetstream.JetStream
	subjectPrefix string
}

// NewEventPublisher creates a new EventPublisher with the given subject
// prefix (e.g. "events.device").
func NewEventPublisher(js jetstream.JetStream, subjectPrefix string) *EventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	return &EventPublisher{
		js:            js,
		subjectPrefix: subjectPrefix,
	}
}

// PublishDeviceEvent publishes one device lifecycle event. The subject is
// the configured prefix plus the event type's last segment.
func (p *EventPublisher) PublishDeviceEvent(ctx context.Context, eventType string, data models.DeviceLifecycleEventData) error {
	event := NewDeviceEvent(eventType, p.subjectPrefix, data)

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal device event: %w", err)
	}

	_, err = p.js.Publish(ctx, event.Subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish device event: %w", err)
	}

	return nil
}

// NewDeviceEvent builds the CloudEvent envelope for a device lifecycle event.
func NewDeviceEvent(eventType, subjectPrefix string, data models.DeviceLifecycleEventData) models.CloudEvent {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	suffix := eventType
	if idx := strings.LastIndex(eventType, "."); idx >= 0 {
		suffix = eventType[idx+1:]
	}

	now := data.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	return models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         fmt.Sprintf("%s.%s", subjectPrefix, suffix),
		Time:            &now,
		Data:            data,
	}
}

// ConnectWithEventPublisher creates a NATS connection with JetStream and
// returns an EventPublisher bound to the configured stream, creating the
// stream when it does not exist yet.
func ConnectWithEventPublisher(ctx context.Context, cfg *models.NATSConfig, opts ...nats.Option) (*EventPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subjectPrefix := cfg.Subject
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	_, err = js.Stream(ctx, cfg.Stream)
	if err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     cfg.Stream,
			Subjects: []string{subjectPrefix + ".*"},
		}

		_, err = js.CreateOrUpdateStream(ctx, streamConfig)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
		}
	}

	return NewEventPublisher(js, subjectPrefix), nc, nil
}
