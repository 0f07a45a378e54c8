package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

const defaultEmailTimeout = 10 * time.Second

// EmailConfig holds the resolved settings of the email channel
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	StartTLS bool
	Timeout  time.Duration

	// TLSConfig overrides the STARTTLS client config; nil uses the host name
	TLSConfig *tls.Config
	Logger    *zap.Logger
}

// EmailChannel sends each alert as a plain-text mail over SMTP
type EmailChannel struct {
	cfg  EmailConfig
	addr string
}

// NewEmailChannel creates an email channel
func NewEmailChannel(cfg EmailConfig) (*EmailChannel, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("smtp sender and at least one recipient are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmailTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &EmailChannel{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}, nil
}

// Name implements Channel.
func (e *EmailChannel) Name() string { return "email" }

// Send implements Channel.
func (e *EmailChannel) Send(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	c, err := e.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	c.CommandTimeout = e.cfg.Timeout
	c.SubmissionTimeout = e.cfg.Timeout

	if e.cfg.Username != "" {
		auth := sasl.NewPlainClient("", e.cfg.Username, e.cfg.Password)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(e.cfg.From, nil); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range e.cfg.To {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(e.message(n)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp submit: %w", err)
	}

	// the message is accepted once DATA closes
	if err := c.Quit(); err != nil {
		e.cfg.Logger.Warn("SMTP quit failed after delivery",
			zap.String("addr", e.addr),
			zap.String("message_id", n.Alert.MessageID),
			zap.Error(err),
		)
	}
	return nil
}

// dial connects to the server and upgrades with STARTTLS when enabled.
// The connection is closed as soon as ctx is done.
func (e *EmailChannel) dial(ctx context.Context) (*smtp.Client, error) {
	d := &net.Dialer{Timeout: e.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", e.addr, err)
	}
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	if !e.cfg.StartTLS {
		return smtp.NewClient(conn), nil
	}

	tlsCfg := e.cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: e.cfg.Host}
	}
	c, err := smtp.NewClientStartTLS(conn, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("smtp starttls %s: %w", e.addr, err)
	}
	return c, nil
}

func (e *EmailChannel) message(n Notification) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(n.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}
