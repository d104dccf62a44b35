// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"go.socjsc.com/connectcore/headmeta"
)

// BootstrapState is the orchestrator's position in the startup pipeline.
// The pipeline is a single pass: resolution, then metadata overlay, then
// the SSO decision, in that order. The overlay needs a resolved server
// identity to add branding on top of, and the SSO redirect needs the final
// merged configuration to target the right homeserver.
type BootstrapState string

const (
	StateInit               BootstrapState = "init"
	StateResolving          BootstrapState = "resolving"
	StateFallback           BootstrapState = "fallback"
	StateResolved           BootstrapState = "resolved"
	StateOverlayingMetadata BootstrapState = "overlaying_metadata"
	StateOverlaid           BootstrapState = "overlaid"
	StateEvaluatingSso      BootstrapState = "evaluating_sso"
	StateRedirecting        BootstrapState = "redirecting"
	StateProceedToUI        BootstrapState = "proceed_to_ui"
	StateFailed             BootstrapState = "failed"
)

// delegatedAuthParams are the query parameters consumed by a delegated
// authentication flow. They're stripped from the visible URL before the UI
// loads so a page reload doesn't try to consume the same token twice.
var delegatedAuthParams = []string{"loginToken", "state", "code", "no_universal_links"}

// StripDelegatedAuthParams returns a copy of u without the delegated auth
// query parameters. The embedding layer applies the result with a history
// replace, not a navigation.
func StripDelegatedAuthParams(u *url.URL) *url.URL {
	stripped := *u
	query := stripped.Query()
	for _, param := range delegatedAuthParams {
		query.Del(param)
	}
	stripped.RawQuery = query.Encode()
	return &stripped
}

// Outcome is the terminal result of a successful bootstrap: either an SSO
// redirect (RedirectURL set, the UI must not load at all this page load) or
// a hand-off to the UI layer with the fully merged configuration. The
// configuration is read-only from this point on.
type Outcome struct {
	// RedirectURL is non-empty when the SSO gate decided to redirect.
	RedirectURL string

	Config       *ProcessConfig
	ServerConfig *ValidatedServerConfig
	// Head carries the computed document head values; applying them is the
	// embedder's job.
	Head headmeta.Head
	// PageURL is the visible URL with delegated auth parameters stripped.
	PageURL *url.URL
}

// Bootstrap sequences the startup pipeline for one page load. It owns the
// ProcessConfig until the outcome is handed over; nothing else writes to it
// while the bootstrap runs.
type Bootstrap struct {
	Config   *ProcessConfig
	Session  StoredSessionVars
	Metadata *MetadataClient
	// PageURL is the current navigation URL, including query and fragment.
	PageURL *url.URL
	// AssetBaseURL is where the content service serves icon assets from.
	AssetBaseURL string
	// Language is the UI language used to pick the localized description.
	Language string
	Log      zerolog.Logger

	state BootstrapState
}

// State reports the orchestrator's current pipeline state.
func (b *Bootstrap) State() BootstrapState {
	if b.state == "" {
		return StateInit
	}
	return b.state
}

func (b *Bootstrap) setState(state BootstrapState) {
	b.Log.Debug().
		Str("from", string(b.State())).
		Str("to", string(state)).
		Msg("Bootstrap state transition")
	b.state = state
}

// resolution is the outcome of the resolve step: exactly one of Config and
// Err is set. Threading it as a value keeps both failure paths visible
// branches instead of unwinding through the whole pipeline.
type resolution struct {
	Config *ValidatedServerConfig
	Err    error
}

// resolveServerConfig runs discovery and, if that fails, the session
// fallback exactly once. Operator misconfiguration is not recoverable by
// the fallback: a user session can't fix a contradictory config file.
func (b *Bootstrap) resolveServerConfig(ctx context.Context) resolution {
	cfg, err := Resolve(ctx, b.Config.ServerOptions)
	if err == nil {
		return resolution{Config: cfg}
	}
	b.setState(StateFallback)
	b.Log.Warn().Err(err).Msg("Homeserver discovery failed, trying stored session")
	cfg, err = ResolveFromSession(b.Session, err)
	if err != nil {
		return resolution{Err: err}
	}
	return resolution{Config: cfg}
}

func (b *Bootstrap) loginTokenPresent() bool {
	return b.PageURL != nil && b.PageURL.Query().Get("loginToken") != ""
}

func (b *Bootstrap) fragmentPath() string {
	if b.PageURL == nil || b.PageURL.Fragment == "" {
		return ""
	}
	return "#" + b.PageURL.Fragment
}

// Run executes the bootstrap pipeline once. On failure no partial outcome
// is produced: the caller gets a single terminal error to display and must
// not render the UI.
func (b *Bootstrap) Run(ctx context.Context) (*Outcome, error) {
	ctx = b.Log.WithContext(ctx)
	if b.PageURL != nil {
		b.Log.Info().Str("url", (&url.URL{
			Scheme: b.PageURL.Scheme,
			Host:   b.PageURL.Host,
			Path:   b.PageURL.Path,
		}).String()).Msg("Client starting")
	}

	b.setState(StateResolving)
	res := b.resolveServerConfig(ctx)
	if res.Err != nil {
		b.setState(StateFailed)
		return nil, res.Err
	}
	res.Config.IsDefault = true
	b.Config.ValidatedServerConfig = res.Config
	b.setState(StateResolved)

	b.setState(StateOverlayingMetadata)
	if err := b.Metadata.Overlay(ctx, b.Config); err != nil {
		b.setState(StateFailed)
		return nil, err
	}
	b.setState(StateOverlaid)

	b.setState(StateEvaluatingSso)
	shouldRedirect := ShouldRedirectToSso(SsoRedirectState{
		StoredUserID:      b.Session.UserID,
		LoginTokenPresent: b.loginTokenPresent(),
		Policy:            b.Config.SsoRedirects,
		Path:              b.fragmentPath(),
	})
	if shouldRedirect {
		redirectTo := ""
		if b.PageURL != nil {
			redirectTo = b.PageURL.String()
		}
		ssoURL, err := SsoRedirectURL(res.Config, redirectTo)
		if err != nil {
			b.setState(StateFailed)
			return nil, err
		}
		b.Log.Info().Msg("Bypassing UI load to redirect to SSO")
		b.setState(StateRedirecting)
		return &Outcome{RedirectURL: ssoURL}, nil
	}

	var head headmeta.Head
	if b.Config.Metadata != nil {
		head = headmeta.Compute(headmeta.Source{
			Name:         b.Config.Metadata.Name,
			Description:  b.Config.Metadata.LocalizedDescription(b.Language),
			ThemeColor:   b.Config.Metadata.ThemeColor,
			IconAssetID:  b.Config.Metadata.Icon,
			AssetBaseURL: b.AssetBaseURL,
		})
	}

	var pageURL *url.URL
	if b.PageURL != nil {
		pageURL = StripDelegatedAuthParams(b.PageURL)
	}
	b.setState(StateProceedToUI)
	return &Outcome{
		Config:       b.Config,
		ServerConfig: res.Config,
		Head:         head,
		PageURL:      pageURL,
	}, nil
}
