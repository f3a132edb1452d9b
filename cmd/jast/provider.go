package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/FranksOps/jast/internal/config"
	"github.com/FranksOps/jast/internal/fingerprint"
	"github.com/FranksOps/jast/internal/serp"
	"github.com/FranksOps/jast/internal/session"
	"github.com/FranksOps/jast/internal/settings"
	"github.com/FranksOps/jast/pkg/httpclient"
)

// maxRedirects caps redirects followed for one API request.
const maxRedirects = 5

// newHTTPClient builds the API client with the configured TLS profile and proxy.
func newHTTPClient(cfg *config.Config) (*httpclient.Client, error) {
	profile, err := fingerprint.ParseProfile(cfg.HTTP.TLSProfile)
	if err != nil {
		return nil, err
	}

	var proxy *url.URL
	if cfg.HTTP.Proxy != "" {
		proxy, err = url.Parse(cfg.HTTP.Proxy)
		if err != nil {
			return nil, fmt.Errorf("http.proxy: %w", err)
		}
	}

	transport, err := fingerprint.Transport(profile, proxy)
	if err != nil {
		return nil, err
	}

	return httpclient.New(httpclient.Config{
		Timeout:      cfg.Search.Timeout,
		MaxRedirects: maxRedirects,
		UserAgent:    cfg.HTTP.UserAgent,
		Transport:    transport,
	})
}

// providerFactory returns a session.ProviderFactory sharing one HTTP client.
func providerFactory(cfg *config.Config, logger *slog.Logger) (session.ProviderFactory, error) {
	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return func(st settings.Settings) (serp.Provider, error) {
		logger.Debug("building search provider", "endpoint", cfg.Search.Endpoint, "tls_profile", cfg.HTTP.TLSProfile)
		return serp.NewCustomSearch(serp.CustomSearchConfig{
			Endpoint: cfg.Search.Endpoint,
			APIKey:   st.APIKey,
			CX:       st.CX,
			Client:   client,
		})
	}, nil
}
