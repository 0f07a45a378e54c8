package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc routes requests through the configured proxies, HTTPS first.
// With neither set, HTTP_PROXY, HTTPS_PROXY and NO_PROXY from the
// environment apply.
func NewProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return url.Parse(httpsProxy)
		case httpProxy != "":
			return url.Parse(httpProxy)
		default:
			return http.ProxyFromEnvironment(req)
		}
	}
}
