// Copyright (c) 2025 The SOC Connect Foundation C.I.C.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"
	"strconv"

	"go.mau.fi/util/exerrors"
	"go.mau.fi/util/exzerolog"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
	flag "maunium.net/go/mauflag"

	"go.socjsc.com/connectcore/brandproxy"
)

type proxyConfig struct {
	Proxy   brandproxy.Config       `yaml:"proxy"`
	Server  brandproxy.ServerConfig `yaml:"server"`
	Logging zeroconfig.Config       `yaml:"logging"`
}

var configPath = flag.MakeFull("c", "config", "Path to the config file", "").String()
var wantHelp, _ = flag.MakeHelpFlag()

// applyEnv overlays the environment onto the file config. The environment
// wins: deployments configure the credential through it rather than a file.
func applyEnv(cfg *proxyConfig) {
	if v := os.Getenv("CONNECT_APP_ID"); v != "" {
		cfg.Proxy.AppID = v
	}
	if v := os.Getenv("CONNECT_APP_TOKEN"); v != "" {
		cfg.Proxy.AppToken = v
	}
	if v := os.Getenv("CONNECT_UPSTREAM_URL"); v != "" {
		cfg.Proxy.UpstreamURL = v
	}
	if v := os.Getenv("CONNECT_CORS_ORIGIN"); v != "" {
		cfg.Proxy.CORS.Enabled = true
		cfg.Proxy.CORS.AllowOrigin = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = uint16(exerrors.Must(strconv.ParseUint(v, 10, 16)))
	}
}

func main() {
	flag.SetHelpTitles(
		"connect-proxy - credential-hiding proxy for the SOC Connect content API",
		"connect-proxy [-c config.yaml]",
	)
	err := flag.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	}

	cfg := proxyConfig{
		Server: brandproxy.ServerConfig{Port: 4000},
		Logging: zeroconfig.Config{
			Writers: []zeroconfig.WriterConfig{{
				Type:   zeroconfig.WriterTypeStderr,
				Format: zeroconfig.LogFormatPrettyColored,
			}},
		},
	}
	if *configPath != "" {
		exerrors.PanicIfNotNil(yaml.Unmarshal(exerrors.Must(os.ReadFile(*configPath)), &cfg))
	}
	applyEnv(&cfg)

	log := exerrors.Must(cfg.Logging.Compile())
	exzerolog.SetupDefaults(log)

	proxy, err := brandproxy.New(cfg.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid proxy configuration")
	}
	log.Info().
		Str("hostname", cfg.Server.Hostname).
		Uint16("port", cfg.Server.Port).
		Msg("Starting proxy")
	err = proxy.Listen(cfg.Server, *log)
	log.Fatal().Err(err).Msg("Proxy stopped")
}
