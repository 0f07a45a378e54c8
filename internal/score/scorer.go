package score

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// Cluster summary column names
const (
	ColMessages          = "n_messages"
	ColHighRatio         = "high_ratio"
	ColCanonicalTemplate = "canonical_template"
	ColExampleMessage    = "example_message"
)

// labelOrder breaks ties between labels with equal counts
var labelOrder = map[model.RiskLabel]int{
	model.RiskHigh:   0,
	model.RiskMedium: 1,
	model.RiskLow:    2,
	model.RiskOther:  3,
}

// Scorer aggregates classified messages into the figures shown in reports
type Scorer struct {
	topClusters int
}

// NewScorer creates a scorer that keeps at most topClusters clusters when ranking.
// Zero or less keeps every cluster.
func NewScorer(topClusters int) *Scorer {
	return &Scorer{topClusters: topClusters}
}

// Overview counts messages, distinct candidates, distinct clusters and high-risk messages
func (s *Scorer) Overview(msgs []model.Message) model.Overview {
	candidates := make(map[string]struct{})
	clusters := make(map[string]struct{})
	ov := model.Overview{Messages: len(msgs)}

	for _, m := range msgs {
		if m.Entity != "" {
			candidates[m.Entity] = struct{}{}
		}
		if m.ClusterID != "" {
			clusters[m.ClusterID] = struct{}{}
		}
		if m.IsHighRisk() {
			ov.HighRisk++
		}
	}
	ov.Candidates = len(candidates)
	ov.Clusters = len(clusters)
	return ov
}

// Distribution counts messages per risk label, largest first.
// Shares are fractions of all messages and sum to 1 for a non-empty input.
func (s *Scorer) Distribution(msgs []model.Message) []model.RiskCount {
	counts := make(map[model.RiskLabel]int)
	for _, m := range msgs {
		counts[model.NormalizeRisk(m.RiskLabel)]++
	}

	out := make([]model.RiskCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, model.RiskCount{
			Label: label,
			Count: n,
			Share: float64(n) / float64(len(msgs)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return labelOrder[out[i].Label] < labelOrder[out[j].Label]
	})
	return out
}

// RankClusters orders clusters by high-risk ratio, descending, and applies
// the top-N limit. Equal ratios keep the larger cluster first.
func (s *Scorer) RankClusters(clusters []model.ClusterSummary) []model.ClusterSummary {
	ranked := make([]model.ClusterSummary, len(clusters))
	copy(ranked, clusters)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].HighRatio, ranked[j].HighRatio
		// NaN ratios sink to the bottom
		if math.IsNaN(ri) != math.IsNaN(rj) {
			return !math.IsNaN(ri)
		}
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Messages > ranked[j].Messages
	})

	if s.topClusters > 0 && len(ranked) > s.topClusters {
		ranked = ranked[:s.topClusters]
	}
	return ranked
}

// DailyHighRisk buckets high-risk messages by day, oldest first.
// Messages without a timestamp are skipped.
func (s *Scorer) DailyHighRisk(msgs []model.Message) []model.DayCount {
	byDay := make(map[time.Time]int)
	for _, m := range msgs {
		if !m.IsHighRisk() || !m.HasTimestamp() {
			continue
		}
		day := m.Timestamp.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}

	out := make([]model.DayCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, model.DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// ClustersFromTable reads the externally produced cluster summary.
// ok is false for a nil table or one lacking cluster_id or high_ratio.
func ClustersFromTable(t *dataset.Table) (clusters []model.ClusterSummary, ok bool) {
	if t == nil || len(t.Missing(model.ColClusterID, ColHighRatio)) > 0 {
		return nil, false
	}

	out := make([]model.ClusterSummary, 0, t.Len())
	for _, row := range t.Rows {
		n, _ := strconv.Atoi(strings.TrimSpace(t.Value(row, ColMessages)))
		out = append(out, model.ClusterSummary{
			ClusterID:         t.Value(row, model.ColClusterID),
			Messages:          n,
			HighRatio:         model.ParseScore(t.Value(row, ColHighRatio)),
			CanonicalTemplate: t.Value(row, ColCanonicalTemplate),
			ExampleMessage:    t.Value(row, ColExampleMessage),
		})
	}
	return out, true
}

// DeriveClusters computes per-cluster message counts and high-risk ratios
// from the message table, for when no cluster summary is available.
// Clusters come out in first-seen order; the first message of each cluster
// becomes its example.
func DeriveClusters(msgs []model.Message) []model.ClusterSummary {
	index := make(map[string]int)
	var (
		out  []model.ClusterSummary
		high []int
	)

	for _, m := range msgs {
		if m.ClusterID == "" {
			continue
		}
		i, ok := index[m.ClusterID]
		if !ok {
			i = len(out)
			index[m.ClusterID] = i
			out = append(out, model.ClusterSummary{ClusterID: m.ClusterID, ExampleMessage: m.Text})
			high = append(high, 0)
		}
		out[i].Messages++
		if m.IsHighRisk() {
			high[i]++
		}
	}

	for i := range out {
		out[i].HighRatio = float64(high[i]) / float64(out[i].Messages)
	}
	return out
}
