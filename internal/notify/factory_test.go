package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := m[ref]; ok {
		return v, nil
	}
	if ref == "env:MISSING" {
		return "", errors.New("environment variable MISSING is not set")
	}
	return ref, nil
}

func TestNewChannels_Order(t *testing.T) {
	cfg := model.DefaultConfig().Notify
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Webhook.Enabled = true
	cfg.Webhook.URL = "env:HOOK"
	cfg.Email.Enabled = true
	cfg.Email.Host = "smtp.example.com"
	cfg.Email.From = "a@example.com"
	cfg.Email.To = []string{"b@example.com"}

	channels, err := NewChannels(context.Background(), cfg, mapResolver{"env:HOOK": "https://hooks.example.com/x"}, nil, "ua", zap.NewNop())
	require.NoError(t, err)

	var names []string
	for _, ch := range channels {
		names = append(names, ch.Name())
	}
	assert.Equal(t, []string{"email", "webhook", "kafka"}, names)
	assert.Equal(t, "https://hooks.example.com/x", channels[1].(*WebhookChannel).url)
}

func TestNewChannels_NoneEnabled(t *testing.T) {
	channels, err := NewChannels(context.Background(), model.DefaultConfig().Notify, mapResolver{}, nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestNewChannels_UnresolvableSecret(t *testing.T) {
	cfg := model.DefaultConfig().Notify
	cfg.Webhook.Enabled = true
	cfg.Webhook.URL = "env:MISSING"

	_, err := NewChannels(context.Background(), cfg, mapResolver{}, nil, "", nil)
	require.Error(t, err)
	assert.Equal(t, "config", riskerr.Kind(err))
}
