// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package connectcore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// MetadataClient fetches the branding metadata and server list through the
// credential-hiding proxy and merges them into the process configuration.
type MetadataClient struct {
	// BaseURL is the base URL of the brand proxy, without a trailing slash.
	BaseURL string
	Client  *http.Client
}

// NewMetadataClient creates a metadata client with a bounded timeout on all
// outbound calls. The original web client leaned on the platform default;
// here the limit is explicit so a dead proxy can't hang the bootstrap.
func NewMetadataClient(baseURL string) *MetadataClient {
	return &MetadataClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client: &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: 10 * time.Second,
		},
	}
}

// fetchData performs a GET against the proxy and unmarshals the `data`
// field of the upstream envelope into out. The envelope shape isn't under
// this client's control, so the field is plucked leniently before decoding.
func (mc *MetadataClient) fetchData(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mc.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := mc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrMetadataFetchFailed, path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataFetchFailed, err)
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return fmt.Errorf("%w: %s response has no data field", ErrMetadataFetchFailed, path)
	}
	if err = json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataFetchFailed, err)
	}
	return nil
}

// FetchAppMetadata fetches the branding record.
func (mc *MetadataClient) FetchAppMetadata(ctx context.Context) (*AppMetadata, error) {
	var metadata AppMetadata
	if err := mc.fetchData(ctx, "/api/metadata", &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// FetchServerList fetches the homeserver list.
func (mc *MetadataClient) FetchServerList(ctx context.Context) ([]ServerListEntry, error) {
	var servers []ServerListEntry
	if err := mc.fetchData(ctx, "/api/servers", &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// Overlay fetches the branding metadata and server list and merges the
// derived fields into cfg. It only runs on top of an already resolved
// server configuration; a fetch failure here is fatal to the bootstrap.
func (mc *MetadataClient) Overlay(ctx context.Context, cfg *ProcessConfig) error {
	metadata, err := mc.FetchAppMetadata(ctx)
	if err != nil {
		return err
	}
	servers, err := mc.FetchServerList(ctx)
	if err != nil {
		return err
	}
	defaultServer, ok := DefaultEntry(servers)
	if !ok {
		return ErrNoDefaultServer
	}

	domains := make([]string, len(servers))
	for i, server := range servers {
		domains[i] = server.Domain
	}

	cfg.Brand = metadata.Name
	cfg.RoomDirectory.Servers = domains
	cfg.DefaultServer = DefaultServer{
		BaseURL:    "https://" + defaultServer.Domain,
		ServerName: defaultServer.Domain,
	}
	cfg.MobileBuilds = MobileBuilds{
		Android: metadata.PlayStoreURL,
		FDroid:  metadata.PlayStoreURL,
		IOS:     metadata.AppStoreURL,
	}
	cfg.DefaultTheme = metadata.ThemeColor
	cfg.DefaultCountryCode = metadata.DefaultLanguage
	cfg.DefaultDeviceDisplayName = metadata.Name
	cfg.Metadata = metadata
	return nil
}
