// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package connectcore implements the startup configuration resolution
// pipeline of the SOC Connect web client: reconciling static operator
// configuration, remote .well-known autodiscovery and previously stored
// session credentials into a single validated server configuration, then
// overlaying remotely managed branding metadata on top of it before the
// client UI is allowed to load.
//
// The Matrix protocol itself is delegated to maunium.net/go/mautrix.
package connectcore

import (
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// RawServerOptions holds the three mutually exclusive static inputs that can
// tell the client which homeserver to use. Specifying a homeserver URL
// together with either a discovery document or a server name is an error
// rather than a precedence choice.
type RawServerOptions struct {
	// HomeserverURL is an explicit homeserver base URL. When set, remote
	// discovery is bypassed and a discovery document is synthesized from it.
	HomeserverURL string `yaml:"default_hs_url" json:"default_hs_url"`
	// IdentityServerURL is only used together with HomeserverURL.
	IdentityServerURL string `yaml:"default_is_url" json:"default_is_url"`
	// DiscoveryConfig is a static .well-known style discovery document.
	DiscoveryConfig *mautrix.ClientWellKnown `yaml:"default_server_config" json:"default_server_config"`
	// ServerName is a server name to run .well-known discovery against.
	ServerName string `yaml:"default_server_name" json:"default_server_name"`
}

// StoredSessionVars is the triplet persisted by a previous login session.
// It is read-only to this package: a prior login wrote it, the bootstrap
// only consumes it as a fallback when discovery fails.
type StoredSessionVars struct {
	HomeserverURL     string
	IdentityServerURL string
	UserID            id.UserID
}

// SsoRedirectOptions is the operator-configured SSO redirect policy.
type SsoRedirectOptions struct {
	Immediate     bool `yaml:"immediate" json:"immediate"`
	OnWelcomePage bool `yaml:"on_welcome_page" json:"on_welcome_page"`
	OnLoginPage   bool `yaml:"on_login_page" json:"on_login_page"`
}

// RoomDirectory lists the servers offered in the room directory dropdown.
type RoomDirectory struct {
	Servers []string `yaml:"servers" json:"servers"`
}

// MobileBuilds holds the app store links advertised to mobile visitors.
type MobileBuilds struct {
	Android string `yaml:"android" json:"android"`
	FDroid  string `yaml:"fdroid" json:"fdroid"`
	IOS     string `yaml:"ios" json:"ios"`
}

// DefaultServer is the homeserver seeded from the remote server list.
type DefaultServer struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	ServerName string `yaml:"server_name" json:"server_name"`
}

// ProcessConfig is the per-bootstrap configuration object. It starts out
// with the static operator configuration, is extended by the resolver and
// the metadata overlay while the bootstrap runs, and is handed to the UI
// layer read-only once the bootstrap completes. It is rebuilt from scratch
// on every page load and has no concurrent writers: only the orchestrator's
// own sequence touches it.
type ProcessConfig struct {
	ServerOptions RawServerOptions   `yaml:"server_options" json:"server_options"`
	SsoRedirects  SsoRedirectOptions `yaml:"sso_redirect_options" json:"sso_redirect_options"`

	// Filled in by the resolver.
	ValidatedServerConfig *ValidatedServerConfig `yaml:"-" json:"-"`

	// Filled in by the metadata overlay.
	Brand                    string        `yaml:"brand" json:"brand"`
	RoomDirectory            RoomDirectory `yaml:"room_directory" json:"room_directory"`
	DefaultServer            DefaultServer `yaml:"default_server" json:"default_server"`
	MobileBuilds             MobileBuilds  `yaml:"mobile_builds" json:"mobile_builds"`
	DefaultTheme             string        `yaml:"default_theme" json:"default_theme"`
	DefaultCountryCode       string        `yaml:"default_country_code" json:"default_country_code"`
	DefaultDeviceDisplayName string        `yaml:"default_device_display_name" json:"default_device_display_name"`
	Metadata                 *AppMetadata  `yaml:"-" json:"-"`
}
