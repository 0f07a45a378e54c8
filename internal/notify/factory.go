package notify

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

// SecretResolver turns a secret reference into its value
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// NewChannels builds the enabled channels in configuration order: email, webhook, kafka.
// Secret-bearing fields are resolved once, here.
func NewChannels(ctx context.Context, cfg model.NotifyConfig, secrets SecretResolver, client *http.Client, userAgent string, logger *zap.Logger) ([]Channel, error) {
	var channels []Channel

	if cfg.Email.Enabled {
		password, err := secrets.Resolve(ctx, cfg.Email.Password)
		if err != nil {
			return nil, riskerr.NewConfigError("notify.email.password", err)
		}
		ch, err := NewEmailChannel(EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
			StartTLS: cfg.Email.StartTLS,
			Timeout:  cfg.Email.Timeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, riskerr.NewConfigError("notify.email", err)
		}
		channels = append(channels, ch)
	}

	if cfg.Webhook.Enabled {
		url, err := secrets.Resolve(ctx, cfg.Webhook.URL)
		if err != nil {
			return nil, riskerr.NewConfigError("notify.webhook.url", err)
		}
		ch, err := NewWebhookChannel(url, cfg.Webhook.Timeout, client, userAgent)
		if err != nil {
			return nil, riskerr.NewConfigError("notify.webhook.url", err)
		}
		channels = append(channels, ch)
	}

	if cfg.Kafka.Enabled {
		ch, err := NewKafkaChannel(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Timeout)
		if err != nil {
			return nil, riskerr.NewConfigError("notify.kafka", err)
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// OptionsFromConfig converts model.NotifyConfig to DispatcherOptions
func OptionsFromConfig(cfg model.NotifyConfig) DispatcherOptions {
	return DispatcherOptions{
		PreviewChars:       cfg.PreviewChars,
		RatePerSecond:      cfg.RatePerSecond,
		Burst:              cfg.Burst,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.Breaker.OpenTimeout,
	}
}
