// Package explore filters the message table and the alerts feed the way an
// analyst slices them: by cluster, candidate, risk label and keyword.
package explore

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// Filter selects records. Zero-valued fields match everything.
type Filter struct {
	ClusterID string            // exact match
	Candidate string            // case-insensitive substring of the entity
	Risks     []model.RiskLabel // any of these labels
	Keyword   string            // case-insensitive substring of the text
	Limit     int               // maximum results; 0 means unlimited
}

// ParseRisks parses a comma-separated list of risk labels
func ParseRisks(raw string) ([]model.RiskLabel, error) {
	var out []model.RiskLabel
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label := model.NormalizeRisk(part)
		if label == model.RiskOther && !strings.EqualFold(part, string(model.RiskOther)) {
			return nil, fmt.Errorf("unknown risk label %q (want high, medium, low or other)", part)
		}
		out = append(out, label)
	}
	return out, nil
}

func (f Filter) matches(clusterID, entity, text string) bool {
	if f.ClusterID != "" && strings.TrimSpace(clusterID) != strings.TrimSpace(f.ClusterID) {
		return false
	}
	if f.Candidate != "" && !containsFold(entity, f.Candidate) {
		return false
	}
	if f.Keyword != "" && !containsFold(text, f.Keyword) {
		return false
	}
	return true
}

func (f Filter) matchesRisk(raw string) bool {
	if len(f.Risks) == 0 {
		return true
	}
	label := model.NormalizeRisk(raw)
	for _, r := range f.Risks {
		if r == label {
			return true
		}
	}
	return false
}

// Messages returns the messages matching f, in table order
func (f Filter) Messages(msgs []model.Message) []model.Message {
	var out []model.Message
	for _, m := range msgs {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if f.matchesRisk(m.RiskLabel) && f.matches(m.ClusterID, m.Entity, m.Text) {
			out = append(out, m)
		}
	}
	return out
}

// Alerts returns the feed rows matching f, in feed order.
// Every feed row is high risk, so a risk filter without "high" matches nothing.
func (f Filter) Alerts(alerts []model.Alert) []model.Alert {
	if !f.matchesRisk(string(model.RiskHigh)) {
		return nil
	}
	var out []model.Alert
	for _, a := range alerts {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if f.matches(a.ClusterID, a.Entity, a.Text) {
			out = append(out, a)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// CandidateStats summarises every message whose entity contains the query
type CandidateStats struct {
	Query    string
	Total    int
	High     int
	Medium   int
	Low      int
	Other    int
	Clusters []string // distinct cluster ids, sorted
}

// Candidate computes CandidateStats for a case-insensitive entity substring
func Candidate(msgs []model.Message, query string) CandidateStats {
	st := CandidateStats{Query: query}
	clusters := make(map[string]struct{})
	for _, m := range msgs {
		if !containsFold(m.Entity, query) {
			continue
		}
		st.Total++
		switch model.NormalizeRisk(m.RiskLabel) {
		case model.RiskHigh:
			st.High++
		case model.RiskMedium:
			st.Medium++
		case model.RiskLow:
			st.Low++
		default:
			st.Other++
		}
		if m.ClusterID != "" {
			clusters[m.ClusterID] = struct{}{}
		}
	}
	for id := range clusters {
		st.Clusters = append(st.Clusters, id)
	}
	sort.Strings(st.Clusters)
	return st
}

// WriteMessagesCSV exports messages with the input table's required columns
func WriteMessagesCSV(w io.Writer, msgs []model.Message) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.RequiredColumns); err != nil {
		return err
	}
	for _, m := range msgs {
		rec := []string{
			m.ID,
			model.FormatTimestamp(m.Timestamp),
			m.Entity,
			m.Text,
			m.RiskLabel,
			model.FormatScore(m.Score),
			m.ClusterID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
