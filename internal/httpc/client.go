// Package httpc builds HTTP clients for the hosted classifiers. Requests
// always carry a deadline so a stalled API cannot freeze the frame loop.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Timeouts used when the caller passes zero.
const (
	DefaultTimeout        = 15 * time.Second
	DefaultConnectTimeout = 5 * time.Second
)

// NewClient returns a client whose whole request, including reading the
// body, must finish within timeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

// One keep-alive connection is enough: classification requests are serial.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        2,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: DefaultConnectTimeout,
	}
}
