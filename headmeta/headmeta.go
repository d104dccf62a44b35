// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package headmeta computes the document head metadata derived from the
// remote branding record. The computation is pure; actually applying the
// values to a presentation layer is left to an Applier so that non-browser
// embedders can swap in their own side effect.
package headmeta

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// Source is the branding input the head values are derived from.
type Source struct {
	Name        string
	Description string
	ThemeColor  string
	// IconAssetID is the content service asset ID of the app icon.
	IconAssetID string
	// AssetBaseURL is the base URL the content service serves assets from.
	AssetBaseURL string
}

// Head is the computed set of document head values. Empty fields are left
// untouched by appliers.
type Head struct {
	Title          string
	Description    string
	ThemeColor     string
	FaviconURL     string
	OpenGraphImage string
}

// Compute derives the head values from the branding source. The favicon and
// og:image intentionally point at the same asset.
func Compute(src Source) Head {
	head := Head{
		Title:       src.Name,
		Description: src.Description,
		ThemeColor:  src.ThemeColor,
	}
	if src.IconAssetID != "" && src.AssetBaseURL != "" {
		iconURL := fmt.Sprintf("%s/assets/%s", strings.TrimSuffix(src.AssetBaseURL, "/"), src.IconAssetID)
		head.FaviconURL = iconURL
		head.OpenGraphImage = iconURL
	}
	return head
}

// Applier applies computed head values to a presentation layer. In a
// browser embedding this upserts the title, description and theme-color
// meta tags, the favicon link and the og:image meta tag in place, so
// re-applying after a metadata refresh never duplicates tags.
type Applier interface {
	Apply(head Head) error
}

// HTMLWriter is an Applier that renders the head values as HTML markup,
// for injection into a served index page. Rendering is a full replacement
// of the managed tags, which makes re-application idempotent.
type HTMLWriter struct {
	Writer io.Writer
}

func (hw *HTMLWriter) Apply(head Head) error {
	var b strings.Builder
	if head.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(head.Title))
	}
	if head.Description != "" {
		fmt.Fprintf(&b, `<meta name="description" content="%s">`+"\n", html.EscapeString(head.Description))
	}
	if head.ThemeColor != "" {
		fmt.Fprintf(&b, `<meta name="theme-color" content="%s">`+"\n", html.EscapeString(head.ThemeColor))
	}
	if head.FaviconURL != "" {
		fmt.Fprintf(&b, `<link rel="icon" href="%s">`+"\n", html.EscapeString(head.FaviconURL))
	}
	if head.OpenGraphImage != "" {
		fmt.Fprintf(&b, `<meta property="og:image" content="%s">`+"\n", html.EscapeString(head.OpenGraphImage))
	}
	_, err := io.WriteString(hw.Writer, b.String())
	return err
}
