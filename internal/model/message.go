package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Input column names as produced by the upstream classification pipeline
const (
	ColMessageID = "message_id"
	ColDate      = "date"
	ColEntity    = "candidate_name_norm_simple"
	ColText      = "text"
	ColRiskLabel = "risk_label"
	ColScore     = "heuristic_score"
	ColClusterID = "cluster_id"
)

// RequiredColumns lists every column the alert detector needs, in the order
// they are reported when missing.
var RequiredColumns = []string{
	ColMessageID,
	ColDate,
	ColEntity,
	ColText,
	ColRiskLabel,
	ColScore,
	ColClusterID,
}

// RiskLabel is the upstream risk classification of a message
type RiskLabel string

const (
	RiskHigh   RiskLabel = "high"
	RiskMedium RiskLabel = "medium"
	RiskLow    RiskLabel = "low"
	RiskOther  RiskLabel = "other"
)

// NormalizeRisk folds a raw label into one of the known labels.
// Anything unrecognised becomes RiskOther.
func NormalizeRisk(raw string) RiskLabel {
	switch strings.ToLower(raw) {
	case "high":
		return RiskHigh
	case "medium":
		return RiskMedium
	case "low":
		return RiskLow
	default:
		return RiskOther
	}
}

// Message is one classified message record from the input table
type Message struct {
	ID        string    `json:"message_id"`
	Timestamp time.Time `json:"date"` // zero when missing or unparseable
	Text      string    `json:"text"`
	Entity    string    `json:"candidate_name_norm_simple"`
	RiskLabel string    `json:"risk_label"` // raw label, compare with IsHighRisk
	Score     float64   `json:"heuristic_score"`
	ClusterID string    `json:"cluster_id"`
}

// IsHighRisk reports whether the raw risk label equals "high", ignoring case
func (m Message) IsHighRisk() bool {
	return strings.EqualFold(m.RiskLabel, string(RiskHigh))
}

// HasTimestamp reports whether the message carries a usable timestamp
func (m Message) HasTimestamp() bool {
	return !m.Timestamp.IsZero()
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTimestamp parses the date formats seen in upstream exports.
// Slash dates are month-first; day-first is only used when the first field
// cannot be a month. Failures return the zero time, which marks the value as missing.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ParseScore parses a heuristic score; unparseable values become NaN
func ParseScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatScore renders a score the way it is written to CSV (empty for NaN)
func FormatScore(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
