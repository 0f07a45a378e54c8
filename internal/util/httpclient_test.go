package util

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	c := NewHTTPClient(0, "", "")
	if c.Timeout != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %v", c.Timeout)
	}
}

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3129")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "hooks.slack.com"}}
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "secure-proxy:3129" {
		t.Errorf("expected https proxy, got %s", u.Host)
	}

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "example.com"}}
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "proxy:3128" {
		t.Errorf("expected http proxy, got %s", u.Host)
	}
}

func TestNewProxyFunc_HTTPOnlyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "hooks.slack.com"}}
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "proxy:3128" {
		t.Errorf("expected http proxy for https without a dedicated proxy, got %s", u.Host)
	}
}

func TestNewHTTPClient_StopsLongRedirectChains(t *testing.T) {
	c := NewHTTPClient(time.Second, "", "")
	via := make([]*http.Request, 3)
	if err := c.CheckRedirect(&http.Request{}, via); err != http.ErrUseLastResponse {
		t.Errorf("expected ErrUseLastResponse after 3 redirects, got %v", err)
	}
	if err := c.CheckRedirect(&http.Request{}, via[:1]); err != nil {
		t.Errorf("expected redirect to be followed, got %v", err)
	}
}
