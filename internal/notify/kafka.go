package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

const defaultKafkaTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer the channel needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaEvent is the JSON value published for each alert.
// Score and timestamps are preformatted so NaN and missing values survive encoding.
type kafkaEvent struct {
	MessageID   string `json:"message_id"`
	Date        string `json:"date"`
	Entity      string `json:"candidate_name_norm_simple"`
	ClusterID   string `json:"cluster_id"`
	Score       string `json:"heuristic_score"`
	Text        string `json:"text"`
	GeneratedAt string `json:"alert_generated_at"`
	Rendered    string `json:"rendered"`
}

// KafkaChannel publishes one message per alert, keyed by message id
type KafkaChannel struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaChannel creates a kafka channel writing synchronously to topic
func NewKafkaChannel(brokers []string, topic string, timeout time.Duration) (*KafkaChannel, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka channel configuration incomplete: both brokers and topic are required")
	}
	if timeout <= 0 {
		timeout = defaultKafkaTimeout
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
		BatchSize:    1,
	}
	return newKafkaChannel(w, topic, timeout), nil
}

func newKafkaChannel(w messageWriter, topic string, timeout time.Duration) *KafkaChannel {
	return &KafkaChannel{writer: w, topic: topic, timeout: timeout}
}

// Name implements Channel.
func (k *KafkaChannel) Name() string { return "kafka" }

// Send implements Channel.
func (k *KafkaChannel) Send(ctx context.Context, n Notification) error {
	value, err := json.Marshal(newKafkaEvent(n))
	if err != nil {
		return fmt.Errorf("failed to serialize alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(n.Alert.MessageID),
		Value: value,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to topic %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaChannel) Close() error {
	return k.writer.Close()
}

func newKafkaEvent(n Notification) kafkaEvent {
	a := n.Alert
	return kafkaEvent{
		MessageID:   a.MessageID,
		Date:        model.FormatTimestamp(a.Timestamp),
		Entity:      a.Entity,
		ClusterID:   a.ClusterID,
		Score:       model.FormatScore(a.Score),
		Text:        a.Text,
		GeneratedAt: model.FormatTimestamp(a.GeneratedAt),
		Rendered:    n.Body,
	}
}

var _ Channel = (*KafkaChannel)(nil)
