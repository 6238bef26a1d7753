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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/hbd/pkg/cache"
	"github.com/carverauto/hbd/pkg/db"
	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
	"github.com/carverauto/hbd/pkg/registry"
)

type fakeProcessor struct {
	outcome registry.Outcome
	err     error
	lastReq models.HeartbeatRequest
	calls   int
}

func (f *fakeProcessor) ProcessHeartbeat(_ context.Context, req models.HeartbeatRequest) (registry.Outcome, error) {
	f.calls++
	f.lastReq = req

	return f.outcome, f.err
}

func newTestServer(t *testing.T, processor HeartbeatProcessor, apiKey string) *APIServer {
	t.Helper()

	cfg := &models.HBDConfig{
		ListenAddr: ":0",
		APIKey:     apiKey,
	}

	return NewAPIServer(cfg, processor, cache.New(), logger.NewTestLogger())
}

func TestHeartbeatSuccess(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{outcome: registry.OutcomeAccepted}
	server := newTestServer(t, processor, "")

	req := httptest.NewRequest(http.MethodGet,
		"/hbd?ID=7&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5&timestamp=1749862684", nil)
	req.RemoteAddr = "198.51.100.4:39281"

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])

	assert.Equal(t, uint32(7), processor.lastReq.DeviceID)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", processor.lastReq.MAC)
	assert.Equal(t, "10.0.0.5", processor.lastReq.LocalIP)
	assert.Equal(t, "198.51.100.4", processor.lastReq.GlobalIP)
	assert.Equal(t, uint64(1749862684), processor.lastReq.Timestamp)
	assert.False(t, processor.lastReq.Uninitialized)
}

func TestHeartbeatUninitializedVariant(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{outcome: registry.OutcomeAccepted}
	server := newTestServer(t, processor, "")

	req := httptest.NewRequest(http.MethodGet,
		"/hbd/uninitialized?ID=7&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5&LP=1", nil)
	req.RemoteAddr = "198.51.100.4:39281"

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, processor.lastReq.Uninitialized)
	assert.True(t, processor.lastReq.LongPoll)
}

func TestHeartbeatGlobalIPFromForwardedHeader(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{outcome: registry.OutcomeAccepted}
	server := newTestServer(t, processor, "")

	req := httptest.NewRequest(http.MethodGet,
		"/hbd?ID=7&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5", nil)
	req.RemoteAddr = "10.1.2.3:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "203.0.113.9", processor.lastReq.GlobalIP)
}

func TestHeartbeatStoreUnavailable(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{
		outcome: registry.OutcomeUnavailable,
		err:     db.ErrStoreUnavailable,
	}
	server := newTestServer(t, processor, "")

	req := httptest.NewRequest(http.MethodGet,
		"/hbd?ID=7&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5", nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHeartbeatUniformSuccessForDeniedAndSquelched(t *testing.T) {
	t.Parallel()

	for _, outcome := range []registry.Outcome{registry.OutcomeDenied, registry.OutcomeSquelched} {
		processor := &fakeProcessor{outcome: outcome}
		server := newTestServer(t, processor, "")

		req := httptest.NewRequest(http.MethodGet,
			"/hbd?ID=7&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5", nil)

		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, outcome.String())
	}
}

func TestHeartbeatRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{name: "missing ID", query: "MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5"},
		{name: "non numeric ID", query: "ID=abc&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5"},
		{name: "ID overflows uint32", query: "ID=4294967296&MAC=aa:bb:cc:dd:ee:ff&IP=10.0.0.5"},
		{name: "missing MAC", query: "ID=7&IP=10.0.0.5"},
		{name: "missing IP", query: "ID=7&MAC=aa:bb:cc:dd:ee:ff"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			processor := &fakeProcessor{outcome: registry.OutcomeAccepted}
			server := newTestServer(t, processor, "")

			req := httptest.NewRequest(http.MethodGet, "/hbd?"+tc.query, nil)

			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, processor.calls, "malformed input must not reach the core")
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeProcessor{}, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])
}

func TestDeviceCountRequiresAPIKey(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeProcessor{}, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/devices/count", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/devices/count", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body["devices"])
}
