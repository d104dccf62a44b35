// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"maunium.net/go/mautrix"
)

// Resolve reconciles the static server options into a validated server
// configuration.
//
// An explicit homeserver URL bypasses remote discovery entirely: a discovery
// document is synthesized from it (plus the identity server URL if set). A
// server name triggers .well-known discovery by name; if that comes back
// without a homeserver base URL and a discovery document is also available,
// the document is used instead. Exactly one discovery path is taken per
// call, with no retries beyond that single documented fallback.
func Resolve(ctx context.Context, opts RawServerOptions) (*ValidatedServerConfig, error) {
	wkConfig := opts.DiscoveryConfig
	if opts.HomeserverURL != "" {
		if wkConfig != nil || opts.ServerName != "" {
			return nil, ErrMixedServerConfig
		}
		wkConfig = &mautrix.ClientWellKnown{
			Homeserver: mautrix.HomeserverInfo{BaseURL: opts.HomeserverURL},
		}
		if opts.IdentityServerURL != "" {
			wkConfig.IdentityServer.BaseURL = opts.IdentityServerURL
		}
	}
	if wkConfig == nil && opts.ServerName == "" {
		return nil, ErrNoServerConfig
	}

	discovery := wkConfig
	if opts.ServerName != "" {
		resp, err := mautrix.DiscoverClientAPI(ctx, opts.ServerName)
		if resp == nil || resp.Homeserver.BaseURL == "" {
			if wkConfig == nil {
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrDiscoveryFailed, err)
				}
				return nil, fmt.Errorf("%w: no .well-known client config found for %q", ErrDiscoveryFailed, opts.ServerName)
			}
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("server_name", opts.ServerName).
				Msg("Discovery by server name returned no homeserver URL, retrying with static discovery document")
			discovery = wkConfig
		} else {
			discovery = resp
		}
	}

	return BuildValidatedServerConfig(opts.ServerName, discovery)
}

// ResolveFromSession builds a validated server configuration directly from
// previously stored session credentials. It is only applicable when a prior
// login left both a homeserver URL and a user ID behind; otherwise the
// original discovery error is returned unchanged, because a user who never
// logged in has no session to fall back to.
//
// The stored URLs were validated when the session was created, so no remote
// discovery is re-run here.
func ResolveFromSession(vars StoredSessionVars, discoveryErr error) (*ValidatedServerConfig, error) {
	if vars.HomeserverURL == "" || vars.UserID == "" {
		return nil, discoveryErr
	}
	var serverName string
	if _, homeserver, err := vars.UserID.Parse(); err == nil {
		serverName = homeserver
	}
	wkConfig := &mautrix.ClientWellKnown{
		Homeserver: mautrix.HomeserverInfo{BaseURL: vars.HomeserverURL},
	}
	if vars.IdentityServerURL != "" {
		wkConfig.IdentityServer.BaseURL = vars.IdentityServerURL
	}
	return BuildValidatedServerConfig(serverName, wkConfig)
}
