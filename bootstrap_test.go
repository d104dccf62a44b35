// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.socjsc.com/connectcore"
)

func newTestBootstrap(t *testing.T, cfg *connectcore.ProcessConfig) *connectcore.Bootstrap {
	t.Helper()
	server := newOverlayTestServer(t, testMetadataBody, testServersBody)
	return &connectcore.Bootstrap{
		Config:       cfg,
		Metadata:     connectcore.NewMetadataClient(server.URL),
		AssetBaseURL: "https://soc.example.org",
		Language:     "en-GB",
		Log:          zerolog.Nop(),
	}
}

func TestBootstrap_ProceedToUI(t *testing.T) {
	bootstrap := newTestBootstrap(t, &connectcore.ProcessConfig{
		ServerOptions: connectcore.RawServerOptions{
			HomeserverURL: "https://matrix.example.org",
		},
	})
	pageURL, err := url.Parse("https://app.example.org/?loginToken=abc&state=xyz&theme=dark#/welcome")
	require.NoError(t, err)
	bootstrap.PageURL = pageURL

	outcome, err := bootstrap.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, connectcore.StateProceedToUI, bootstrap.State())
	assert.Empty(t, outcome.RedirectURL)

	require.NotNil(t, outcome.ServerConfig)
	assert.Equal(t, "https://matrix.example.org", outcome.ServerConfig.HomeserverURL)
	assert.True(t, outcome.ServerConfig.IsDefault)
	assert.Same(t, outcome.ServerConfig, outcome.Config.ValidatedServerConfig)

	assert.Equal(t, "SOC Connect", outcome.Config.Brand)
	assert.Equal(t, "two.example.org", outcome.Config.DefaultServer.ServerName)

	require.NotNil(t, outcome.PageURL)
	query := outcome.PageURL.Query()
	assert.False(t, query.Has("loginToken"))
	assert.False(t, query.Has("state"))
	assert.Equal(t, "dark", query.Get("theme"))
	assert.Equal(t, "/welcome", outcome.PageURL.Fragment)

	assert.Equal(t, "SOC Connect", outcome.Head.Title)
	assert.Equal(t, "Reliable & secure communication", outcome.Head.Description)
	assert.Equal(t, "https://soc.example.org/assets/8f65b32f-bfd1-41fd-b87c-8915990131b7", outcome.Head.FaviconURL)
	assert.Equal(t, outcome.Head.FaviconURL, outcome.Head.OpenGraphImage)
}

func TestBootstrap_SsoRedirect(t *testing.T) {
	bootstrap := newTestBootstrap(t, &connectcore.ProcessConfig{
		ServerOptions: connectcore.RawServerOptions{
			HomeserverURL: "https://matrix.example.org",
		},
		SsoRedirects: connectcore.SsoRedirectOptions{Immediate: true},
	})
	pageURL, err := url.Parse("https://app.example.org/#/welcome")
	require.NoError(t, err)
	bootstrap.PageURL = pageURL

	outcome, err := bootstrap.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, connectcore.StateRedirecting, bootstrap.State())
	assert.Nil(t, outcome.Config)

	parsed, err := url.Parse(outcome.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "matrix.example.org", parsed.Host)
	assert.Equal(t, "/_matrix/client/v3/login/sso/redirect", parsed.Path)
}

func TestBootstrap_ReturningFromSsoDoesNotRedirect(t *testing.T) {
	bootstrap := newTestBootstrap(t, &connectcore.ProcessConfig{
		ServerOptions: connectcore.RawServerOptions{
			HomeserverURL: "https://matrix.example.org",
		},
		SsoRedirects: connectcore.SsoRedirectOptions{Immediate: true},
	})
	pageURL, err := url.Parse("https://app.example.org/?loginToken=abc")
	require.NoError(t, err)
	bootstrap.PageURL = pageURL

	outcome, err := bootstrap.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcome.RedirectURL)
	assert.Equal(t, connectcore.StateProceedToUI, bootstrap.State())
}

func TestBootstrap_ResolutionFailure(t *testing.T) {
	bootstrap := newTestBootstrap(t, &connectcore.ProcessConfig{})

	_, err := bootstrap.Run(context.Background())
	require.ErrorIs(t, err, connectcore.ErrNoServerConfig)
	assert.Equal(t, connectcore.StateFailed, bootstrap.State())
}

func TestBootstrap_SessionFallback(t *testing.T) {
	bootstrap := newTestBootstrap(t, &connectcore.ProcessConfig{
		ServerOptions: connectcore.RawServerOptions{
			ServerName: "connect.invalid",
		},
	})
	bootstrap.Session = connectcore.StoredSessionVars{
		HomeserverURL: "https://matrix.example.org",
		UserID:        "@user:example.org",
	}

	outcome, err := bootstrap.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, connectcore.StateProceedToUI, bootstrap.State())
	assert.Equal(t, "https://matrix.example.org", outcome.ServerConfig.HomeserverURL)
	assert.Equal(t, "example.org", outcome.ServerConfig.HomeserverName)
}

func TestBootstrap_OverlayFailureIsFatal(t *testing.T) {
	server := newOverlayTestServer(t, `{"meow": true}`, testServersBody)
	bootstrap := &connectcore.Bootstrap{
		Config: &connectcore.ProcessConfig{
			ServerOptions: connectcore.RawServerOptions{
				HomeserverURL: "https://matrix.example.org",
			},
		},
		Metadata: connectcore.NewMetadataClient(server.URL),
		Log:      zerolog.Nop(),
	}

	_, err := bootstrap.Run(context.Background())
	require.ErrorIs(t, err, connectcore.ErrMetadataFetchFailed)
	assert.Equal(t, connectcore.StateFailed, bootstrap.State())
}

func TestStripDelegatedAuthParams(t *testing.T) {
	pageURL, err := url.Parse("https://app.example.org/app?loginToken=abc&state=xyz&code=123&no_universal_links=true&keep=me")
	require.NoError(t, err)

	stripped := connectcore.StripDelegatedAuthParams(pageURL)
	assert.Equal(t, "keep=me", stripped.RawQuery)
	// The input URL is untouched; the caller applies the result with a
	// history replace.
	assert.Contains(t, pageURL.RawQuery, "loginToken")
}
