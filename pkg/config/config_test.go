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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/hbd/pkg/models"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hbd.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfigFile(t, `{
		"listen_addr": ":3000",
		"max_staleness": "5m",
		"hb_staleness_period": "30s",
		"database": {
			"host": "localhost",
			"port": 5432,
			"database": "devices",
			"username": "hbd",
			"query_timeout": "2s"
		},
		"cache": {
			"max_idle": "1h",
			"sweep_interval": "5m"
		}
	}`)

	var cfg models.HBDConfig

	err := NewConfig(nil).LoadAndValidate(t.Context(), path, &cfg)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.MaxStaleness))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.HBStalenessPeriod))
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "devices", cfg.Database.Database)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Database.QueryTimeout))
	assert.Equal(t, time.Hour, time.Duration(cfg.Cache.MaxIdle))
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("HBD_TEST_DB_PASSWORD", "hunter2")

	path := writeConfigFile(t, `{
		"listen_addr": ":3000",
		"max_staleness": "5m",
		"hb_staleness_period": "30s",
		"database": {
			"host": "localhost",
			"database": "devices",
			"username": "hbd",
			"password": "${HBD_TEST_DB_PASSWORD}"
		}
	}`)

	var cfg models.HBDConfig

	err := NewConfig(nil).LoadAndValidate(t.Context(), path, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestValidateRejectsBadStalenessKnobs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing knobs",
			body: `{"listen_addr": ":3000", "database": {"host": "x", "database": "d"}}`,
		},
		{
			name: "staleness not above period",
			body: `{
				"listen_addr": ":3000",
				"max_staleness": "30s",
				"hb_staleness_period": "30s",
				"database": {"host": "x", "database": "d"}
			}`,
		},
		{
			name: "missing database",
			body: `{"listen_addr": ":3000", "max_staleness": "5m", "hb_staleness_period": "30s"}`,
		},
		{
			name: "missing listen addr",
			body: `{"max_staleness": "5m", "hb_staleness_period": "30s", "database": {"host": "x", "database": "d"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.body)

			var cfg models.HBDConfig

			err := NewConfig(nil).LoadAndValidate(t.Context(), path, &cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg models.HBDConfig

	err := NewConfig(nil).LoadAndValidate(t.Context(), "/does/not/exist.json", &cfg)
	assert.Error(t, err)
}
