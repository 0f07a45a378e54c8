package util

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the outbound client shared by the webhook channel and
// remote input loading. A zero timeout falls back to 30s.
func NewHTTPClient(timeout time.Duration, httpProxy, httpsProxy string) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		Proxy:               NewProxyFunc(httpProxy, httpsProxy),
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
