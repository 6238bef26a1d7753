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

// Database describes the Postgres cluster backing the device registry.
type Database struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Database        string `json:"database"`
	Username        string `json:"username"`
	Password        string `json:"password,omitempty"`
	SSLMode         string `json:"ssl_mode,omitempty"`
	ApplicationName string `json:"application_name,omitempty"`

	MaxConnections    int32    `json:"max_connections,omitempty"`
	MinConnections    int32    `json:"min_connections,omitempty"`
	MaxConnLifetime   Duration `json:"max_conn_lifetime,omitempty"`
	HealthCheckPeriod Duration `json:"health_check_period,omitempty"`
	StatementTimeout  Duration `json:"statement_timeout,omitempty"`

	// QueryTimeout bounds every store call so a slow cluster cannot
	// starve the connection pool.
	QueryTimeout Duration `json:"query_timeout,omitempty"`

	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`

	TLS *DatabaseTLS `json:"tls,omitempty"`
}

// DatabaseTLS holds mTLS material for the database connection.
type DatabaseTLS struct {
	CertFile           string `json:"cert_file,omitempty"`
	KeyFile            string `json:"key_file,omitempty"`
	CAFile             string `json:"ca_file,omitempty"`
	ServerName         string `json:"server_name,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
}
