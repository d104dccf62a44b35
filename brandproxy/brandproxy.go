// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package brandproxy fronts the remote content management API for the web
// client. It hides the bearer credential from the browser, forwards the two
// read-only queries the client needs (server list and app metadata) and
// passes the upstream status, content type and body through unchanged.
package brandproxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.mau.fi/util/requestlog"
)

const (
	defaultUpstreamURL = "https://soc.socjsc.com"
	defaultLocale      = "en-US"

	defaultLimit  = "100"
	defaultFields = "domain,is_default"
	defaultMeta   = "filter_count"
)

var (
	ErrMissingAppID    = errors.New("missing app ID")
	ErrMissingAppToken = errors.New("missing app token")
)

// Config is the static configuration of the proxy, read once at startup.
type Config struct {
	// UpstreamURL is the base URL of the content API.
	UpstreamURL string `yaml:"upstream_url" json:"upstream_url"`
	// AppID selects which application's records are served.
	AppID string `yaml:"app_id" json:"app_id"`
	// AppToken is the bearer credential presented to the upstream API. It
	// is never exposed to callers.
	AppToken string `yaml:"app_token" json:"app_token"`
	// Locale filters the metadata record's nested translations.
	Locale string `yaml:"locale" json:"locale"`
	// RawMetadata passes the metadata endpoint's body through byte for
	// byte instead of re-encoding it. The server list endpoint always
	// passes raw bytes through to preserve upstream formatting; the
	// metadata endpoint has historically re-encoded, so that stays the
	// default.
	RawMetadata bool `yaml:"raw_metadata" json:"raw_metadata"`

	CORS CORSConfig `yaml:"cors" json:"cors"`
}

// CORSConfig controls the cross-origin headers attached to every response.
// The web client is served from a different origin than this proxy during
// development.
type CORSConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	AllowOrigin string `yaml:"allow_origin" json:"allow_origin"`
}

// ServerConfig is the listener configuration.
type ServerConfig struct {
	Hostname string `yaml:"hostname" json:"hostname"`
	Port     uint16 `yaml:"port" json:"port"`
}

// BrandProxy proxies the content API's server list and app metadata
// queries. It holds no per-request state beyond the process-wide
// credential, which is read-only after New, so concurrent requests don't
// contend with each other.
type BrandProxy struct {
	UpstreamClient *http.Client

	upstreamURL         *url.URL
	appID               string
	appToken            string
	locale              string
	reserializeMetadata bool
	cors                CORSConfig
}

// New validates the configuration and creates the proxy. Missing
// credentials are a startup-fatal condition: the process must not start
// accepting connections without them.
func New(cfg Config) (*BrandProxy, error) {
	if cfg.AppID == "" {
		return nil, ErrMissingAppID
	}
	if cfg.AppToken == "" {
		return nil, ErrMissingAppToken
	}
	upstream := cfg.UpstreamURL
	if upstream == "" {
		upstream = defaultUpstreamURL
	}
	parsed, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	locale := cfg.Locale
	if locale == "" {
		locale = defaultLocale
	}
	corsCfg := cfg.CORS
	if corsCfg.Enabled && corsCfg.AllowOrigin == "" {
		corsCfg.AllowOrigin = "*"
	}
	return &BrandProxy{
		UpstreamClient: &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: 60 * time.Second,
		},
		upstreamURL:         parsed,
		appID:               cfg.AppID,
		appToken:            cfg.AppToken,
		locale:              locale,
		reserializeMetadata: !cfg.RawMetadata,
		cors:                corsCfg,
	}, nil
}

// RegisterRoutes attaches the proxy's endpoints and middleware to router.
func (bp *BrandProxy) RegisterRoutes(router *mux.Router, log zerolog.Logger) {
	router.Use(hlog.NewHandler(log))
	router.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	if bp.cors.Enabled {
		router.Use(bp.corsMiddleware)
	}
	router.Use(requestlog.AccessLogger(false))
	router.Path("/api/servers").Methods(http.MethodGet, http.MethodOptions).HandlerFunc(bp.GetServerList)
	router.Path("/api/metadata").Methods(http.MethodGet, http.MethodOptions).HandlerFunc(bp.GetAppMetadata)
	router.NotFoundHandler = http.HandlerFunc(bp.UnknownEndpoint)
	router.MethodNotAllowedHandler = http.HandlerFunc(bp.UnsupportedMethod)
}

// Listen blocks serving the proxy on the configured address.
func (bp *BrandProxy) Listen(cfg ServerConfig, log zerolog.Logger) error {
	router := mux.NewRouter()
	bp.RegisterRoutes(router, log)
	return http.ListenAndServe(fmt.Sprintf("%s:%d", cfg.Hostname, cfg.Port), router)
}

func (bp *BrandProxy) corsMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", bp.cors.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func queryParam(r *http.Request, name, defaultValue string) string {
	if value := r.URL.Query().Get(name); value != "" {
		return value
	}
	return defaultValue
}

// GetServerList proxies the published homeserver list for this app. The
// limit, fields and meta query parameters are forwarded with the same
// defaults the upstream collection query has always used.
func (bp *BrandProxy) GetServerList(w http.ResponseWriter, r *http.Request) {
	target := *bp.upstreamURL.JoinPath("items", "connect_server")
	query := url.Values{}
	query.Set("filter[app_id]", bp.appID)
	query.Set("filter[status]", "published")
	query.Set("limit", queryParam(r, "limit", defaultLimit))
	query.Set("fields", queryParam(r, "fields", defaultFields))
	query.Set("meta", queryParam(r, "meta", defaultMeta))
	target.RawQuery = query.Encode()
	bp.proxy(w, r, &target, false)
}

// GetAppMetadata proxies the branding record for this app, with the nested
// translations filtered to the configured locale.
func (bp *BrandProxy) GetAppMetadata(w http.ResponseWriter, r *http.Request) {
	target := *bp.upstreamURL.JoinPath("items", "app", bp.appID)
	query := url.Values{}
	query.Set("fields", "*,translation.*")
	query.Set("deep[translation][_filter][language_code]", bp.locale)
	target.RawQuery = query.Encode()
	bp.proxy(w, r, &target, bp.reserializeMetadata)
}

// proxy forwards the request to target with the bearer credential attached
// and copies the upstream status, content type and body back. Upstream
// non-2xx responses pass through as-is; only transport-level failures turn
// into the generic 500. Error details stay in the server log.
func (bp *BrandProxy) proxy(w http.ResponseWriter, r *http.Request, target *url.URL, reserialize bool) {
	log := zerolog.Ctx(r.Context())
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		log.Err(err).Msg("Failed to create upstream request")
		bp.proxyError(w)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bp.appToken)
	resp, err := bp.UpstreamClient.Do(req)
	if err != nil {
		log.Err(err).Str("upstream_path", target.Path).Msg("Upstream request failed")
		bp.proxyError(w)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")

	if reserialize {
		var payload any
		if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			log.Err(err).Msg("Failed to decode upstream response for re-serialization")
			bp.proxyError(w)
			return
		}
		w.WriteHeader(resp.StatusCode)
		if err = json.NewEncoder(w).Encode(payload); err != nil {
			log.Debug().Err(err).Msg("Failed to write re-serialized response")
		}
		return
	}
	w.WriteHeader(resp.StatusCode)
	if _, err = io.Copy(w, resp.Body); err != nil {
		log.Debug().Err(err).Msg("Failed to write proxy response")
	}
}

func jsonResponse(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// proxyError reports an upstream failure without leaking its cause.
func (bp *BrandProxy) proxyError(w http.ResponseWriter) {
	jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Proxy error"})
}

func (bp *BrandProxy) UnknownEndpoint(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusNotFound, map[string]string{"error": "Unrecognized endpoint"})
}

func (bp *BrandProxy) UnsupportedMethod(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusMethodNotAllowed, map[string]string{"error": "Invalid method for endpoint"})
}
