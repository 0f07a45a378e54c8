// Package validate checks a loaded configuration before any component starts.
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

const minPollInterval = time.Second

// Validator checks configuration against struct tags and cross-field rules
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that reports fields by their config key
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Config validates cfg. Every problem is reported; the returned error is a
// riskerr.ConfigError naming the first offending key.
func Config(cfg *model.Config) error {
	return NewValidator().Config(cfg)
}

// Config validates cfg
func (val *Validator) Config(cfg *model.Config) error {
	if cfg == nil {
		return riskerr.NewConfigError("", fmt.Errorf("no configuration loaded"))
	}

	var (
		result *multierror.Error
		first  string
	)
	add := func(field string, err error) {
		if first == "" {
			first = field
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w", field, err))
	}

	if err := val.v.Struct(cfg); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				add(configKey(fe.Namespace()), describe(fe))
			}
		} else {
			add("", err)
		}
	}

	for _, c := range crossFieldChecks(cfg) {
		add(c.field, c.err)
	}

	if result == nil {
		return nil
	}
	return riskerr.NewConfigError(first, result.ErrorOrNil())
}

type fieldProblem struct {
	field string
	err   error
}

func crossFieldChecks(cfg *model.Config) []fieldProblem {
	var problems []fieldProblem

	if cfg.Poll.Interval < minPollInterval {
		problems = append(problems, fieldProblem{"poll.interval", fmt.Errorf("must be at least %s, got %s", minPollInterval, cfg.Poll.Interval)})
	}
	if cfg.Seen.MemoryTTL < 0 {
		problems = append(problems, fieldProblem{"seen.memory_ttl", fmt.Errorf("must not be negative")})
	}
	if strings.EqualFold(cfg.Seen.Backend, "redis") {
		if cfg.Seen.Redis.Addr == "" {
			problems = append(problems, fieldProblem{"seen.redis.addr", fmt.Errorf("required when seen.backend is redis")})
		}
		if cfg.Seen.Redis.Key == "" {
			problems = append(problems, fieldProblem{"seen.redis.key", fmt.Errorf("required when seen.backend is redis")})
		}
	}

	if isRemote(cfg.Input.Messages) {
		if _, err := url.ParseRequestURI(cfg.Input.Messages); err != nil {
			problems = append(problems, fieldProblem{"input.messages", fmt.Errorf("invalid URL: %w", err)})
		}
	}

	if cfg.Notify.Email.Enabled && cfg.Notify.Email.Username != "" && cfg.Notify.Email.Password == "" {
		problems = append(problems, fieldProblem{"notify.email.password", fmt.Errorf("required when notify.email.username is set")})
	}
	if cfg.Notify.Kafka.Enabled {
		for i, b := range cfg.Notify.Kafka.Brokers {
			if strings.TrimSpace(b) == "" {
				problems = append(problems, fieldProblem{fmt.Sprintf("notify.kafka.brokers[%d]", i), fmt.Errorf("must not be empty")})
			}
		}
	}

	for _, t := range []struct {
		field string
		value time.Duration
	}{
		{"notify.email.timeout", cfg.Notify.Email.Timeout},
		{"notify.webhook.timeout", cfg.Notify.Webhook.Timeout},
		{"notify.kafka.timeout", cfg.Notify.Kafka.Timeout},
		{"http.timeout", cfg.HTTP.Timeout},
	} {
		if t.value < 0 {
			problems = append(problems, fieldProblem{t.field, fmt.Errorf("must not be negative")})
		}
	}

	return problems
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// configKey turns "Config.notify.email.host" into "notify.email.host"
func configKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("is required")
	case "required_if":
		return fmt.Errorf("is required when the channel is enabled")
	case "oneof":
		return fmt.Errorf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "email":
		return fmt.Errorf("%q is not an email address", fmt.Sprint(fe.Value()))
	case "gt", "gte", "min", "max":
		return fmt.Errorf("must satisfy %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("failed %q validation", fe.Tag())
	}
}
