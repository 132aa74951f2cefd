// Package httpclient provides the HTTP client shared by all translation
// services of the process.
package httpclient

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultTimeout is used when a caller passes a non-positive timeout.
const DefaultTimeout = 10 * time.Second

var (
	sharedOnce   sync.Once
	sharedClient *http.Client
)

// Shared returns the process-wide client, creating it on first use.
// Only the first caller's proxy and timeout take effect; later calls get
// the same client. http.Client is safe for concurrent use.
func Shared(proxyURL string, timeout time.Duration) *http.Client {
	sharedOnce.Do(func() {
		sharedClient = New(proxyURL, timeout)
	})
	return sharedClient
}

// New builds an unshared client with real proxy support: an explicit
// proxy URL wins, otherwise HTTP_PROXY/HTTPS_PROXY/NO_PROXY apply.
func New(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.Proxy = http.ProxyFromEnvironment
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 90 * time.Second

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
