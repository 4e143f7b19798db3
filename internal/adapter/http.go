package adapter

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/config"
)

// NewHTTPClient builds the shared HTTP client for API traffic, wiring in the
// optional proxy. The client never follows redirects: the servlet answering
// with a redirect means the session is being bounced to login, and the
// classifier needs to see that status, not the login page.
func NewHTTPClient(timeout time.Duration, proxy config.ProxyConfig) (*http.Client, error) {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if !proxy.Enabled {
		return client, nil
	}

	proxyURL, err := buildProxyURL(proxy)
	if err != nil {
		return nil, err
	}
	client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	return client, nil
}

// buildProxyURL normalizes the configured proxy server into a URL, injecting
// credentials when present. A scheme-less server defaults to http.
func buildProxyURL(proxy config.ProxyConfig) (*url.URL, error) {
	server := proxy.Server
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse proxy server %q: %w", proxy.Server, err)
	}

	if user, pass, ok := proxy.Credentials(); ok {
		u.User = url.UserPassword(user, pass)
	}
	return u, nil
}
