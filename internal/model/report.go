package model

import (
	"encoding/json"
	"math"
	"time"
)

// Report is the one-shot risk summary written by the report command
type Report struct {
	Title       string    `json:"title"`        // Heading of the report (e.g., "SEBI Telegram Risk Report")
	GeneratedAt time.Time `json:"generated_at"` // When the report was produced
	Sources     Sources   `json:"sources"`      // Input files the report was built from

	Overview     Overview         `json:"overview"`      // Headline counts
	Distribution []RiskCount      `json:"distribution"`  // Messages per risk label, largest first
	TopClusters  []ClusterSummary `json:"top_clusters"`  // Clusters ranked by high-risk ratio
	Samples      []Sample         `json:"samples"`       // Example high-risk messages
	RecentAlerts int              `json:"recent_alerts"` // Rows currently in the alerts feed

	DailyHighRisk []DayCount `json:"daily_high_risk"` // High-risk messages per day, oldest first
}

// DayCount is the number of high-risk messages on one calendar day (UTC)
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// Sources records which files fed a report
type Sources struct {
	Messages string `json:"messages"`
	Clusters string `json:"clusters,omitempty"`
	Feed     string `json:"feed,omitempty"`
}

// Overview holds the headline numbers shown at the top of a report
type Overview struct {
	Messages   int `json:"messages"`
	Candidates int `json:"candidates"`
	Clusters   int `json:"clusters"`
	HighRisk   int `json:"high_risk"`
}

// RiskCount is the number of messages carrying a risk label
type RiskCount struct {
	Label RiskLabel `json:"label"`
	Count int       `json:"count"`
	Share float64   `json:"share"` // Count / total messages, 0-1
}

// ClusterSummary describes one cluster from the externally produced cluster summary
type ClusterSummary struct {
	ClusterID         string  `json:"cluster_id"`
	Messages          int     `json:"n_messages"`
	HighRatio         float64 `json:"high_ratio"`
	CanonicalTemplate string  `json:"canonical_template,omitempty"`
	ExampleMessage    string  `json:"example_message,omitempty"`
}

// MarshalJSON writes an unknown (NaN) ratio as null
func (c ClusterSummary) MarshalJSON() ([]byte, error) {
	type plain ClusterSummary
	out := struct {
		plain
		HighRatio *float64 `json:"high_ratio"`
	}{plain: plain(c)}
	if !math.IsNaN(c.HighRatio) {
		out.HighRatio = &c.HighRatio
	}
	return json.Marshal(out)
}

// Sample is a high-risk message quoted in a report
type Sample struct {
	MessageID string `json:"message_id"`
	Entity    string `json:"entity"`
	Timestamp string `json:"date"`
	Score     string `json:"heuristic_score"`
	ClusterID string `json:"cluster_id"`
	Excerpt   string `json:"excerpt"`
}
