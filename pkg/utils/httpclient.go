package utils

import (
	"net/http"
	"time"
)

// HTTPClientConfig controls outbound HTTP client behavior.
// Keep it config-driven; defaults should be safe and conservative.
// This process talks to two upstreams (the call-record API and the
// notification relay) and both go through clients built here.
type HTTPClientConfig struct {
	// RequestTimeout bounds a whole request including body read.
	RequestTimeout time.Duration

	// Transport tuning
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	out := c
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = 15 * time.Second
	}
	if out.TLSHandshakeTimeout <= 0 {
		out.TLSHandshakeTimeout = 5 * time.Second
	}
	if out.IdleConnTimeout <= 0 {
		out.IdleConnTimeout = 90 * time.Second
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 20
	}
	if out.MaxIdleConnsPerHost <= 0 {
		out.MaxIdleConnsPerHost = 10
	}
	return out
}

// NewHTTPClient builds an *http.Client with explicit timeouts.
// Never use http.DefaultClient for upstream calls; it has no timeout and
// a stuck upstream would pin a poll loop goroutine forever.
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
	}

	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
}
