// Package riskerr defines the error taxonomy shared by the alert pipeline.
//
// Every kind is recoverable at the poll loop boundary except ConfigError,
// which stops the command before the loop starts.
package riskerr

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// SchemaError reports required columns absent from an input table
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing column(s): %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: missing column(s): %s", e.Source, strings.Join(e.Missing, ", "))
}

// NewSchemaError builds a SchemaError with a stack and a remediation hint
func NewSchemaError(source string, missing []string) error {
	return cerr.WithHint(
		cerr.WithStack(&SchemaError{Source: source, Missing: missing}),
		"check that the upstream export still writes the expected header",
	)
}

// ChannelDeliveryError reports a failed send on one notification channel
type ChannelDeliveryError struct {
	Channel   string
	MessageID string
	Cause     error
}

func (e *ChannelDeliveryError) Error() string {
	return fmt.Sprintf("deliver %s via %s: %v", e.MessageID, e.Channel, e.Cause)
}

func (e *ChannelDeliveryError) Unwrap() error { return e.Cause }

// NewChannelDeliveryError wraps cause as a delivery failure on channel
func NewChannelDeliveryError(channel, messageID string, cause error) error {
	return cerr.WithStack(&ChannelDeliveryError{Channel: channel, MessageID: messageID, Cause: cause})
}

// StorageError reports an unreadable input, an unwritable feed, or a seen-store failure
type StorageError struct {
	Op    string
	Path  string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError wraps cause as a storage failure for op on path
func NewStorageError(op, path string, cause error) error {
	return cerr.WithHint(
		cerr.WithStack(&StorageError{Op: op, Path: path, Cause: cause}),
		"the cycle is skipped and retried on the next tick",
	)
}

// ConfigError reports invalid static configuration
type ConfigError struct {
	Field string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Cause)
	}
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError wraps cause as a configuration failure on field
func NewConfigError(field string, cause error) error {
	return cerr.WithHint(
		cerr.WithStack(&ConfigError{Field: field, Cause: cause}),
		"run 'riskwatch config show' to inspect the effective configuration",
	)
}

// Kind returns a short label for err, used in logs and metric labels
func Kind(err error) string {
	var (
		schema   *SchemaError
		delivery *ChannelDeliveryError
		storage  *StorageError
		config   *ConfigError
	)
	switch {
	case err == nil:
		return "none"
	case cerr.As(err, &schema):
		return "schema"
	case cerr.As(err, &delivery):
		return "delivery"
	case cerr.As(err, &storage):
		return "storage"
	case cerr.As(err, &config):
		return "config"
	default:
		return "internal"
	}
}
