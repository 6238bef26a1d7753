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

package db

import "errors"

var (

	// Infrastructure errors. ErrStoreUnavailable means a session could not
	// be obtained at all and the request must surface service-unavailable.

	ErrStoreUnavailable = errors.New("device store unavailable")

	// Operation errors.

	ErrFailedToQuery  = errors.New("failed to query")
	ErrFailedToUpsert = errors.New("failed to upsert")

	// Configuration errors.

	ErrNoDatabaseConfig    = errors.New("database configuration is nil")
	ErrIncompleteTLSConfig = errors.New("cert_file, key_file, and ca_file are required")
	ErrInvalidCACert       = errors.New("unable to append CA certificate")
)
