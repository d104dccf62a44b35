// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"fmt"
	"strings"

	"maunium.net/go/mautrix"
)

// ValidatedServerConfig is the resolved, trusted server identity produced by
// the resolver (or the session fallback). It is created once per page load
// and never mutated afterwards.
type ValidatedServerConfig struct {
	// HomeserverURL is the normalized homeserver base URL without a
	// trailing slash.
	HomeserverURL string
	// HomeserverName is the server name shown to the user. Falls back to
	// the URL host when resolution didn't go through a server name.
	HomeserverName string
	// HomeserverNameIsDifferent is set when the display name doesn't match
	// the host of the base URL.
	HomeserverNameIsDifferent bool
	// IdentityServerURL is optional.
	IdentityServerURL string
	// IsDefault marks the config as the operator default rather than a
	// user-picked server.
	IsDefault bool
}

// BuildValidatedServerConfig validates a discovery result, whichever path
// produced it, into the final server configuration. The validation is
// syntactic: base URLs must parse and a homeserver base URL must be present,
// but the servers don't have to be reachable at this point.
func BuildValidatedServerConfig(serverName string, discovery *mautrix.ClientWellKnown) (*ValidatedServerConfig, error) {
	if discovery == nil || discovery.Homeserver.BaseURL == "" {
		return nil, fmt.Errorf("%w: discovery result has no homeserver base URL", ErrDiscoveryFailed)
	}
	hsURL, err := mautrix.ParseAndNormalizeBaseURL(discovery.Homeserver.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid homeserver base URL: %v", ErrDiscoveryFailed, err)
	}
	var isURL string
	if discovery.IdentityServer.BaseURL != "" {
		parsedIS, err := mautrix.ParseAndNormalizeBaseURL(discovery.IdentityServer.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid identity server base URL: %v", ErrDiscoveryFailed, err)
		}
		isURL = strings.TrimSuffix(parsedIS.String(), "/")
	}
	name := serverName
	if name == "" {
		name = hsURL.Host
	}
	return &ValidatedServerConfig{
		HomeserverURL:             strings.TrimSuffix(hsURL.String(), "/"),
		HomeserverName:            name,
		HomeserverNameIsDifferent: name != hsURL.Host,
		IdentityServerURL:         isURL,
	}, nil
}
