package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

var (
	colorHigh   = lipgloss.Color("#ff0000")
	colorMedium = lipgloss.Color("#ffaa00")
	colorLow    = lipgloss.Color("#00ff00")
	colorMuted  = lipgloss.Color("#666666")
	colorTitle  = lipgloss.Color("#00ffff")

	// TitleStyle heads terminal summaries
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	// LabelStyle marks field names in terminal summaries
	LabelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// BoxStyle frames a terminal summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3d5a80")).
			Padding(0, 1)
)

// RiskStyle colours a risk label
func RiskStyle(label model.RiskLabel) lipgloss.Style {
	switch label {
	case model.RiskHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(colorHigh)
	case model.RiskMedium:
		return lipgloss.NewStyle().Foreground(colorMedium)
	case model.RiskLow:
		return lipgloss.NewStyle().Foreground(colorLow)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}

// RenderSummary prints a compact boxed overview of r to w
func (rd *Renderer) RenderSummary(w io.Writer, r *model.Report) {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(r.Title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %d   %s %d   %s %d\n",
		LabelStyle.Render("messages"), r.Overview.Messages,
		LabelStyle.Render("candidates"), r.Overview.Candidates,
		LabelStyle.Render("clusters"), r.Overview.Clusters)
	fmt.Fprintf(&b, "%s %d   %s %d\n\n",
		LabelStyle.Render("high-risk"), r.Overview.HighRisk,
		LabelStyle.Render("alerts in feed"), r.RecentAlerts)

	for _, d := range r.Distribution {
		label := RiskStyle(d.Label).Render(fmt.Sprintf("%-7s", d.Label))
		fmt.Fprintf(&b, "%s %s %5.1f%%\n", label, Bar(d.Share, 20), d.Share*100)
	}

	if len(r.TopClusters) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("top clusters"))
		for i, c := range r.TopClusters {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "\n  %s  ratio %s  (%d msgs)", c.ClusterID, ratio(c.HighRatio), c.Messages)
		}
	}

	fmt.Fprintln(w, BoxStyle.Render(b.String()))
}
