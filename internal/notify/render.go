package notify

import (
	"fmt"
	"strings"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

const (
	DefaultPreviewChars = 200
	ellipsis            = "..."
)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Render formats an alert as the fixed plain-text notification body
func Render(a model.Alert, previewChars int) string {
	ts := model.FormatTimestamp(a.Timestamp)
	if ts == "" {
		ts = "unknown"
	}
	score := model.FormatScore(a.Score)
	if score == "" {
		score = "n/a"
	}

	var b strings.Builder
	b.WriteString("High-risk message alert\n")
	fmt.Fprintf(&b, "Entity: %s\n", a.Entity)
	fmt.Fprintf(&b, "Cluster: %s\n", a.ClusterID)
	fmt.Fprintf(&b, "Score: %s\n", score)
	fmt.Fprintf(&b, "Time: %s\n", ts)
	fmt.Fprintf(&b, "Preview: %s", Preview(a.Text, previewChars))
	return b.String()
}

// Preview collapses line breaks to spaces and cuts text to n runes,
// appending "..." when anything was removed
func Preview(text string, n int) string {
	if n <= 0 {
		n = DefaultPreviewChars
	}
	flat := newlines.Replace(text)

	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + ellipsis
}
