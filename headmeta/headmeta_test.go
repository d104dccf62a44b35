// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package headmeta_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.socjsc.com/connectcore/headmeta"
)

func TestCompute(t *testing.T) {
	head := headmeta.Compute(headmeta.Source{
		Name:         "SOC Connect",
		Description:  "Reliable & secure communication",
		ThemeColor:   "#1f6feb",
		IconAssetID:  "8f65b32f",
		AssetBaseURL: "https://soc.example.org/",
	})
	assert.Equal(t, "SOC Connect", head.Title)
	assert.Equal(t, "https://soc.example.org/assets/8f65b32f", head.FaviconURL)
	assert.Equal(t, head.FaviconURL, head.OpenGraphImage)
}

func TestCompute_NoIcon(t *testing.T) {
	head := headmeta.Compute(headmeta.Source{Name: "SOC Connect"})
	assert.Empty(t, head.FaviconURL)
	assert.Empty(t, head.OpenGraphImage)
}

func TestHTMLWriter(t *testing.T) {
	head := headmeta.Compute(headmeta.Source{
		Name:         "SOC <Connect>",
		Description:  "Reliable & secure communication",
		ThemeColor:   "#1f6feb",
		IconAssetID:  "8f65b32f",
		AssetBaseURL: "https://soc.example.org",
	})

	var out strings.Builder
	require.NoError(t, (&headmeta.HTMLWriter{Writer: &out}).Apply(head))
	rendered := out.String()
	assert.Contains(t, rendered, "<title>SOC &lt;Connect&gt;</title>")
	assert.Contains(t, rendered, `<meta name="description" content="Reliable &amp; secure communication">`)
	assert.Contains(t, rendered, `<meta name="theme-color" content="#1f6feb">`)
	assert.Contains(t, rendered, `<link rel="icon" href="https://soc.example.org/assets/8f65b32f">`)
	assert.Contains(t, rendered, `<meta property="og:image" content="https://soc.example.org/assets/8f65b32f">`)

	// Re-rendering produces the same markup, so re-applying after a
	// metadata refresh replaces the managed tags instead of stacking them.
	var again strings.Builder
	require.NoError(t, (&headmeta.HTMLWriter{Writer: &again}).Apply(head))
	assert.Equal(t, rendered, again.String())
}

func TestHTMLWriter_SkipsEmptyValues(t *testing.T) {
	var out strings.Builder
	require.NoError(t, (&headmeta.HTMLWriter{Writer: &out}).Apply(headmeta.Head{Title: "SOC Connect"}))
	assert.Equal(t, "<title>SOC Connect</title>\n", out.String())
}
