package model

import "time"

// Config holds the complete riskwatch configuration.
// It is read once at process start; there is no hot reload.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Feed    FeedConfig    `yaml:"feed" mapstructure:"feed"`
	Poll    PollConfig    `yaml:"poll" mapstructure:"poll"`
	Seen    SeenConfig    `yaml:"seen" mapstructure:"seen"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Secrets SecretsConfig `yaml:"secrets" mapstructure:"secrets"`
}

// InputConfig locates the upstream tables
type InputConfig struct {
	Messages string `yaml:"messages" mapstructure:"messages" validate:"required"` // path or http(s) URL
	Clusters string `yaml:"clusters" mapstructure:"clusters"`                     // optional cluster summary
}

// FeedConfig locates the durable alerts feed
type FeedConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// PollConfig controls the watch loop
type PollConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SeenConfig selects the durable store behind the seen-set
type SeenConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend" validate:"oneof=feed redis"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Redis     RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis seen-set backend
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"` // secret reference (env:, file:, vault:)
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0"`
	Key      string `yaml:"key" mapstructure:"key"`
}

// NotifyConfig configures alert rendering and the delivery channels
type NotifyConfig struct {
	PreviewChars  int           `yaml:"preview_chars" mapstructure:"preview_chars" validate:"gt=0"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"gt=0"`
	Burst         int           `yaml:"burst" mapstructure:"burst" validate:"gt=0"`
	Breaker       BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Email         EmailConfig   `yaml:"email" mapstructure:"email"`
	Webhook       WebhookConfig `yaml:"webhook" mapstructure:"webhook"`
	Kafka         KafkaConfig   `yaml:"kafka" mapstructure:"kafka"`
}

// BreakerConfig configures the per-channel circuit breaker
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" mapstructure:"max_failures"` // consecutive failures before opening; 0 disables
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

// EmailConfig configures the SMTP channel
type EmailConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Host     string        `yaml:"host" mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int           `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Username string        `yaml:"username" mapstructure:"username"`
	Password string        `yaml:"password" mapstructure:"password"` // secret reference (env:, file:, vault:)
	From     string        `yaml:"from" mapstructure:"from" validate:"required_if=Enabled true,omitempty,email"`
	To       []string      `yaml:"to" mapstructure:"to" validate:"required_if=Enabled true,dive,email"`
	StartTLS bool          `yaml:"starttls" mapstructure:"starttls"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// WebhookConfig configures the chat webhook channel
type WebhookConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	URL     string        `yaml:"url" mapstructure:"url" validate:"required_if=Enabled true"` // secret reference or literal URL
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// KafkaConfig configures the Kafka channel
type KafkaConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Brokers []string      `yaml:"brokers" mapstructure:"brokers" validate:"required_if=Enabled true"`
	Topic   string        `yaml:"topic" mapstructure:"topic" validate:"required_if=Enabled true"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPConfig configures the shared outbound HTTP client
type HTTPConfig struct {
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // empty disables the endpoint
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// ReportConfig configures the one-shot report generator
type ReportConfig struct {
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
	SampleSize   int    `yaml:"sample_size" mapstructure:"sample_size" validate:"gte=0"`
	TopClusters  int    `yaml:"top_clusters" mapstructure:"top_clusters" validate:"gte=0"`
	PreviewChars int    `yaml:"preview_chars" mapstructure:"preview_chars" validate:"gt=0"`
}

// SecretsConfig configures external secret stores
type SecretsConfig struct {
	Vault VaultConfig `yaml:"vault" mapstructure:"vault"`
}

// VaultConfig configures vault: secret references. The token comes from VAULT_TOKEN.
type VaultConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Messages: "data/processed/messages_with_clusters_v2.csv",
			Clusters: "data/processed/cluster_summary_v2.csv",
		},
		Feed: FeedConfig{
			Path: "data/reports/alerts_feed.csv",
		},
		Poll: PollConfig{
			Interval: 5 * time.Minute,
		},
		Seen: SeenConfig{
			Backend:   "feed",
			MemoryTTL: 24 * time.Hour,
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "riskwatch:seen",
			},
		},
		Notify: NotifyConfig{
			PreviewChars:  200,
			RatePerSecond: 1,
			Burst:         5,
			Breaker: BreakerConfig{
				MaxFailures: 3,
				OpenTimeout: 5 * time.Minute,
			},
			Email: EmailConfig{
				Port:     587,
				StartTLS: true,
				Timeout:  10 * time.Second,
			},
			Webhook: WebhookConfig{
				Timeout: 10 * time.Second,
			},
			Kafka: KafkaConfig{
				Topic:   "riskwatch.alerts",
				Timeout: 10 * time.Second,
			},
		},
		HTTP: HTTPConfig{
			UserAgent:    "riskwatch/0.3",
			Timeout:      30 * time.Second,
			MaxBodyBytes: 256 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Report: ReportConfig{
			OutputDir:    "data/reports",
			SampleSize:   5,
			TopClusters:  10,
			PreviewChars: 300,
		},
	}
}
