// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"strings"
	"time"
)

// ServerListEntry is one row of the remotely managed homeserver list. The
// entries both seed the default homeserver and populate the server picker.
type ServerListEntry struct {
	Domain    string `json:"domain"`
	IsDefault bool   `json:"is_default"`
}

// DefaultEntry returns the entry flagged as default. When several entries
// are flagged, the first one wins; the remote service is expected to only
// flag one, but the client must stay deterministic if it doesn't.
func DefaultEntry(entries []ServerListEntry) (ServerListEntry, bool) {
	for _, entry := range entries {
		if entry.IsDefault {
			return entry, true
		}
	}
	return ServerListEntry{}, false
}

// AppTranslation is a localized variant of the branding record.
type AppTranslation struct {
	ID           int    `json:"id"`
	AppID        string `json:"app_id"`
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
	ShortName    string `json:"short_name"`
	Description  string `json:"description"`
	Tagline      string `json:"tagline"`
}

// AppMetadata is the remote branding record for the application. It is
// fetched once per bootstrap and never persisted locally: the content
// service stays the source of truth.
type AppMetadata struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Name            string           `json:"name"`
	ShortName       string           `json:"short_name"`
	Description     string           `json:"description"`
	Type            string           `json:"type"`
	Tagline         string           `json:"tagline"`
	URL             string           `json:"url"`
	Icon            string           `json:"icon"`
	IconRasterWebP  string           `json:"icon_raster_webp"`
	BackgroundColor string           `json:"background_color"`
	ThemeColor      string           `json:"theme_color"`
	AppStoreURL     string           `json:"app_store_url"`
	PlayStoreURL    string           `json:"play_store_url"`
	PackageName     string           `json:"package_name"`
	Version         string           `json:"version"`
	Sort            int              `json:"sort"`
	DateCreated     time.Time        `json:"date_created"`
	DateUpdated     time.Time        `json:"date_updated"`
	DefaultLanguage string           `json:"default_language"`
	Translation     []AppTranslation `json:"translation"`
}

func languagePrefix(tag string) string {
	prefix, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(prefix)
}

// LocalizedDescription picks the best description for the given language
// tag: exact tag match first, then primary-subtag match, then the record's
// own top-level description, then the first available translation.
func (am *AppMetadata) LocalizedDescription(lang string) string {
	for _, tr := range am.Translation {
		if strings.EqualFold(tr.LanguageCode, lang) && tr.Description != "" {
			return tr.Description
		}
	}
	prefix := languagePrefix(lang)
	if prefix != "" {
		for _, tr := range am.Translation {
			if languagePrefix(tr.LanguageCode) == prefix && tr.Description != "" {
				return tr.Description
			}
		}
	}
	if am.Description != "" {
		return am.Description
	}
	for _, tr := range am.Translation {
		if tr.Description != "" {
			return tr.Description
		}
	}
	return ""
}
