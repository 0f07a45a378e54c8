// Package report builds the one-shot risk summary: label distribution,
// clusters ranked by high-risk ratio, sample messages and feed activity.
package report

import (
	"strings"
	"time"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/score"
)

// Title heads every generated report
const Title = "SEBI Telegram Risk Report"

// Input gathers what a report is built from. Only Messages is required.
type Input struct {
	Messages *dataset.Table
	Clusters *dataset.Table
	Alerts   []model.Alert
	FeedPath string
}

// Generator assembles reports
type Generator struct {
	scorer       *score.Scorer
	sampleSize   int
	previewChars int
	clock        func() time.Time
}

// NewGenerator creates a generator from the report settings
func NewGenerator(cfg model.ReportConfig) *Generator {
	return &Generator{
		scorer:       score.NewScorer(cfg.TopClusters),
		sampleSize:   cfg.SampleSize,
		previewChars: cfg.PreviewChars,
		clock:        time.Now,
	}
}

// Build computes a report. The message table must carry a risk_label column.
// When the cluster summary is absent or unusable, clusters are derived from
// the messages themselves.
func (g *Generator) Build(in Input) (*model.Report, error) {
	if in.Messages == nil {
		return nil, riskerr.NewSchemaError("", []string{model.ColRiskLabel})
	}
	if missing := in.Messages.Missing(model.ColRiskLabel); len(missing) > 0 {
		return nil, riskerr.NewSchemaError(in.Messages.Source, missing)
	}

	msgs := in.Messages.Messages()
	r := &model.Report{
		Title:         Title,
		GeneratedAt:   g.clock(),
		Sources:       model.Sources{Messages: in.Messages.Source, Feed: in.FeedPath},
		Overview:      g.scorer.Overview(msgs),
		Distribution:  g.scorer.Distribution(msgs),
		Samples:       Samples(msgs, g.sampleSize, g.previewChars),
		RecentAlerts:  len(in.Alerts),
		DailyHighRisk: g.scorer.DailyHighRisk(msgs),
	}

	clusters, ok := score.ClustersFromTable(in.Clusters)
	if ok {
		r.Sources.Clusters = in.Clusters.Source
	} else {
		clusters = score.DeriveClusters(msgs)
	}
	r.TopClusters = g.scorer.RankClusters(clusters)
	return r, nil
}

// Samples returns the first n high-risk messages in table order
func Samples(msgs []model.Message, n, chars int) []model.Sample {
	var out []model.Sample
	for _, m := range msgs {
		if len(out) >= n {
			break
		}
		if !m.IsHighRisk() {
			continue
		}
		out = append(out, model.Sample{
			MessageID: m.ID,
			Entity:    m.Entity,
			Timestamp: model.FormatTimestamp(m.Timestamp),
			Score:     model.FormatScore(m.Score),
			ClusterID: m.ClusterID,
			Excerpt:   Excerpt(m.Text, chars),
		})
	}
	return out
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Excerpt flattens text to one line, keeps the first chars runes and always
// ends with "...".
func Excerpt(text string, chars int) string {
	flat := lineBreaks.Replace(text)
	if runes := []rune(flat); chars > 0 && len(runes) > chars {
		flat = string(runes[:chars])
	}
	return flat + "..."
}
