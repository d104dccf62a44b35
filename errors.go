// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import "errors"

var (
	// ErrMixedServerConfig is returned when an explicit homeserver URL is
	// configured together with a discovery document or a server name.
	// This is an operator error, not a precedence choice, and the session
	// fallback does not apply to it.
	ErrMixedServerConfig = errors.New("invalid configuration: a homeserver URL can't be combined with a server name or discovery document")
	// ErrNoServerConfig is returned when none of the three static server
	// options is set.
	ErrNoServerConfig = errors.New("invalid configuration: no homeserver URL, server name or discovery document")
	// ErrDiscoveryFailed wraps failures to fetch or validate the discovery
	// result. Recoverable via the session fallback when a session exists.
	ErrDiscoveryFailed = errors.New("homeserver discovery failed")
	// ErrNoDefaultServer is returned by the metadata overlay when the remote
	// server list contains no entry flagged as default. A default is never
	// invented client-side.
	ErrNoDefaultServer = errors.New("server list has no entry flagged as default")
	// ErrMetadataFetchFailed wraps failures to fetch the branding metadata
	// or server list through the proxy. Fatal to the bootstrap: the UI must
	// not render with a half-populated brand configuration.
	ErrMetadataFetchFailed = errors.New("failed to fetch app metadata")
)
