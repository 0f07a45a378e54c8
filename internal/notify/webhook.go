package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultWebhookTimeout = 10 * time.Second

// webhookPayload is the Slack-compatible body POSTed to the webhook
type webhookPayload struct {
	Text string `json:"text"`
}

// WebhookChannel posts alerts to a chat webhook
type WebhookChannel struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

// NewWebhookChannel creates a webhook channel. Returns an error if the URL is invalid.
// client may be nil; its timeout is replaced by timeout when set.
func NewWebhookChannel(rawURL string, timeout time.Duration, client *http.Client, userAgent string) (*WebhookChannel, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook URL must include a host")
	}

	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if client != nil {
		clone := *client
		clone.Timeout = timeout
		hc = &clone
	}

	return &WebhookChannel{httpClient: hc, url: rawURL, userAgent: userAgent}, nil
}

// Name implements Channel.
func (w *WebhookChannel) Name() string { return "webhook" }

// Send implements Channel. Any 2xx response is a success.
func (w *WebhookChannel) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(webhookPayload{Text: n.Body})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		// The URL often embeds a token; keep it out of the error text.
		return fmt.Errorf("post %s: %w", RedactURL(w.url), unwrapURLError(err))
	}
	defer func() {
		// Drain and close body to reuse connections.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// RedactURL masks credentials in a URL for safe logging.
// It redacts userinfo passwords, query parameter values and path segments
// after the first, which is where chat webhooks keep their tokens.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q.Set(key, "REDACTED")
		}
		u.RawQuery = q.Encode()
	}
	if u.Path != "" && u.Path != "/" {
		u.Path = "/REDACTED"
		u.RawPath = ""
	}
	return u.String()
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the full URL
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}
