// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// SsoRedirectState is everything the SSO gate looks at: whether a prior
// session might exist, whether the current navigation is already the return
// leg of an SSO redirect, the operator policy, and the navigation path.
type SsoRedirectState struct {
	StoredUserID      id.UserID
	LoginTokenPresent bool
	Policy            SsoRedirectOptions
	// Path is the fragment path of the current navigation, e.g. "#/welcome"
	// or "#/login". The root paths "", "#" and "/" count as the welcome
	// page.
	Path string
}

func isWelcomeOrLanding(path string) bool {
	switch path {
	case "", "#", "/", "#/welcome", "/welcome":
		return true
	}
	return false
}

func isLoginPage(path string) bool {
	return path == "#/login" || path == "/login"
}

// ShouldRedirectToSso decides whether this page load should be
// short-circuited into an SSO redirect before any UI is constructed. It
// never redirects when a prior session exists or when the navigation
// already carries a login token (we'd loop forever otherwise).
func ShouldRedirectToSso(state SsoRedirectState) bool {
	if state.StoredUserID != "" || state.LoginTokenPresent {
		return false
	}
	if state.Policy.Immediate {
		return true
	}
	if state.Policy.OnWelcomePage && isWelcomeOrLanding(state.Path) {
		return true
	}
	if state.Policy.OnLoginPage && isLoginPage(state.Path) {
		return true
	}
	return false
}

// SsoRedirectURL builds the homeserver's SSO redirect endpoint URL for the
// resolved server config, sending the user back to redirectTo afterwards.
// The minimal client exists only to build the URL; no request is made here.
func SsoRedirectURL(cfg *ValidatedServerConfig, redirectTo string) (string, error) {
	cli, err := mautrix.NewClient(cfg.HomeserverURL, "", "")
	if err != nil {
		return "", err
	}
	return cli.BuildURLWithQuery(mautrix.ClientURLPath{"v3", "login", "sso", "redirect"}, map[string]string{
		"redirectUrl": redirectTo,
	}), nil
}
