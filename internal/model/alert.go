package model

import "time"

// TimestampLayout is the layout used for every timestamp written to the feed
const TimestampLayout = "2006-01-02 15:04:05"

// Feed column names, in the fixed order they are written
const (
	ColGeneratedAt = "alert_generated_at"
)

// FeedColumns is the stable column ordering of the alerts feed
var FeedColumns = []string{
	ColMessageID,
	ColDate,
	ColEntity,
	ColClusterID,
	ColScore,
	ColText,
	ColGeneratedAt,
}

// Alert is the projection of a high-risk message at the time it was detected.
// Alerts are never edited once written.
type Alert struct {
	MessageID   string    `json:"message_id"`
	Timestamp   time.Time `json:"date"` // zero when the message had no usable timestamp
	Entity      string    `json:"candidate_name_norm_simple"`
	ClusterID   string    `json:"cluster_id"`
	Score       float64   `json:"heuristic_score"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"alert_generated_at"`
}

// NewAlert projects a message into an alert stamped with generatedAt
func NewAlert(m Message, generatedAt time.Time) Alert {
	return Alert{
		MessageID:   m.ID,
		Timestamp:   m.Timestamp,
		Entity:      m.Entity,
		ClusterID:   m.ClusterID,
		Score:       m.Score,
		Text:        m.Text,
		GeneratedAt: generatedAt,
	}
}

// Record renders the alert as a feed row in FeedColumns order
func (a Alert) Record() []string {
	return []string{
		a.MessageID,
		FormatTimestamp(a.Timestamp),
		a.Entity,
		a.ClusterID,
		FormatScore(a.Score),
		a.Text,
		FormatTimestamp(a.GeneratedAt),
	}
}

// FormatTimestamp formats t with TimestampLayout; the zero time renders empty
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
