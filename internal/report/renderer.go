package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

const (
	filePrefix    = "risk_summary_"
	stampLayout   = "20060102_1504"
	distBarWidth  = 30
	ratioBarWidth = 20
)

// Renderer writes reports to disk
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// FileStem names the output files for a report generated at r.GeneratedAt
func FileStem(r *model.Report) string {
	return filePrefix + r.GeneratedAt.Format(stampLayout)
}

// Write renders both formats into dir and returns the paths written
func (rd *Renderer) Write(dir string, r *model.Report) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", riskerr.NewStorageError("create report dir", dir, err)
	}
	stem := filepath.Join(dir, FileStem(r))
	mdPath, jsonPath = stem+".md", stem+".json"

	if err := rd.RenderMarkdown(r, mdPath); err != nil {
		return "", "", err
	}
	if err := rd.RenderJSON(r, jsonPath); err != nil {
		return mdPath, "", err
	}
	return mdPath, jsonPath, nil
}

// RenderJSON writes the report as indented JSON
func (rd *Renderer) RenderJSON(r *model.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return riskerr.NewStorageError("write report", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown
func (rd *Renderer) RenderMarkdown(r *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(r)), 0o644); err != nil {
		return riskerr.NewStorageError("write report", path, err)
	}
	return nil
}

// Markdown renders the report body
func Markdown(r *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(model.TimestampLayout))
	fmt.Fprintf(&b, "- Messages: `%s`\n", r.Sources.Messages)
	if r.Sources.Clusters != "" {
		fmt.Fprintf(&b, "- Clusters: `%s`\n", r.Sources.Clusters)
	} else {
		b.WriteString("- Clusters: derived from messages\n")
	}
	if r.Sources.Feed != "" {
		fmt.Fprintf(&b, "- Alerts feed: `%s`\n", r.Sources.Feed)
	}

	b.WriteString("\n## Overview\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Messages | %d |\n", r.Overview.Messages)
	fmt.Fprintf(&b, "| Unique candidates | %d |\n", r.Overview.Candidates)
	fmt.Fprintf(&b, "| Clusters | %d |\n", r.Overview.Clusters)
	fmt.Fprintf(&b, "| High-risk messages | %d |\n", r.Overview.HighRisk)
	fmt.Fprintf(&b, "| Alerts in feed | %d |\n", r.RecentAlerts)

	b.WriteString("\n## Risk Label Distribution\n\n")
	if len(r.Distribution) == 0 {
		b.WriteString("_No messages._\n")
	} else {
		b.WriteString("| Label | Count | Share | |\n|---|---:|---:|---|\n")
		for _, d := range r.Distribution {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% | `%s` |\n", d.Label, d.Count, d.Share*100, Bar(d.Share, distBarWidth))
		}
	}

	b.WriteString("\n## Top Clusters by High-Risk Ratio\n\n")
	if len(r.TopClusters) == 0 {
		b.WriteString("_No clusters._\n")
	} else {
		b.WriteString("| Cluster | Messages | High ratio | | Template |\n|---|---:|---:|---|---|\n")
		for _, c := range r.TopClusters {
			template := c.CanonicalTemplate
			if template == "" {
				template = c.ExampleMessage
			}
			fmt.Fprintf(&b, "| %s | %d | %s | `%s` | %s |\n",
				cell(c.ClusterID), c.Messages, ratio(c.HighRatio), Bar(c.HighRatio, ratioBarWidth), cell(Excerpt(template, 80)))
		}
	}

	if len(r.DailyHighRisk) > 0 {
		b.WriteString("\n## High-Risk Messages per Day\n\n")
		peak := 0
		for _, d := range r.DailyHighRisk {
			peak = max(peak, d.Count)
		}
		b.WriteString("| Day | Count | |\n|---|---:|---|\n")
		for _, d := range r.DailyHighRisk {
			fmt.Fprintf(&b, "| %s | %d | `%s` |\n", d.Day.Format("2006-01-02"), d.Count, Bar(float64(d.Count)/float64(peak), distBarWidth))
		}
	}

	b.WriteString("\n## Sample High-Risk Messages\n\n")
	if len(r.Samples) == 0 {
		b.WriteString("_No high-risk messages._\n")
	}
	for i, s := range r.Samples {
		ts := s.Timestamp
		if ts == "" {
			ts = "unknown date"
		}
		sc := s.Score
		if sc == "" {
			sc = "n/a"
		}
		fmt.Fprintf(&b, "%d. **%s** (%s) - Score %s\n\n   > %s\n\n", i+1, s.Entity, ts, sc, s.Excerpt)
	}
	return b.String()
}

// Bar draws a text bar of width cells for a fraction in [0,1]
func Bar(frac float64, width int) string {
	if math.IsNaN(frac) || frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(math.Round(frac * float64(width)))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func ratio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func cell(s string) string {
	return cellEscaper.Replace(s)
}
