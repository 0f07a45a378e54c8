// Package notify renders alerts and delivers them over the configured
// notification channels.
package notify

import (
	"context"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// Subject is used wherever a channel carries a title line
const Subject = "[riskwatch] High-risk message alert"

// Notification is an alert plus its rendered text
type Notification struct {
	Alert model.Alert
	Body  string
}

// Channel is one external delivery path (email, webhook, kafka).
// Send makes a single attempt; the dispatcher handles throttling and breaking.
type Channel interface {
	// Name returns the channel identifier used in logs and metrics
	Name() string

	// Send delivers one notification
	Send(ctx context.Context, n Notification) error
}

// Closer is implemented by channels that hold connections
type Closer interface {
	Close() error
}
