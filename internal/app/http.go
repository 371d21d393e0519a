package app

import (
	"net"
	"net/http"
	"time"
)

// newAPIHTTPClient returns an HTTP client sized for the enrichment fan-out:
// every star lookup goes to the same API host, so the per-host idle pool
// matches the concurrency cap instead of the default of two.
func newAPIHTTPClient(timeout time.Duration, maxConcurrent int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	perHost := maxConcurrent
	if perHost <= 0 {
		perHost = DefaultMaxConcurrent
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
