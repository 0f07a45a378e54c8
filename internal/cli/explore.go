package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/explore"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/report"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/score"
)

var exploreOpts struct {
	cluster   string
	candidate string
	risk      string
	keyword   string
	limit     int
	exportCSV string
}

// exploreCmd represents the explore command
var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Filter the classified message table",
	Long: `Explore slices the message table by cluster, candidate, risk label and
keyword. With --cluster the cluster's summary row is shown; with --candidate
the candidate's risk breakdown and clusters are shown.

Example:
  riskwatch explore --cluster 17 --risk high
  riskwatch explore --candidate ravi --keyword "double"
  riskwatch explore --risk high,medium --export-csv flagged.csv`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	f := exploreCmd.Flags()
	f.StringVar(&exploreOpts.cluster, "cluster", "", "cluster id (exact)")
	f.StringVar(&exploreOpts.candidate, "candidate", "", "entity name contains (case-insensitive)")
	f.StringVar(&exploreOpts.risk, "risk", "", "comma-separated risk labels (high, medium, low, other)")
	f.StringVar(&exploreOpts.keyword, "keyword", "", "message text contains (case-insensitive)")
	f.IntVar(&exploreOpts.limit, "limit", 50, "maximum rows printed (0 = all); exports are never limited")
	f.StringVar(&exploreOpts.exportCSV, "export-csv", "", "write every matching message to this CSV file")
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	risks, err := explore.ParseRisks(exploreOpts.risk)
	if err != nil {
		return err
	}

	loader := newLoader(cfg)
	in, err := loadInputs(cmd.Context(), cfg, loader, loadSpec{messages: true, clusters: true})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if in.messages == nil {
		fmt.Fprintln(out, report.LabelStyle.Render("No message table found at "+cfg.Input.Messages))
		return nil
	}
	msgs := in.messages.Messages()

	filter := explore.Filter{
		ClusterID: exploreOpts.cluster,
		Candidate: exploreOpts.candidate,
		Risks:     risks,
		Keyword:   exploreOpts.keyword,
	}
	matched := filter.Messages(msgs)

	if exploreOpts.cluster != "" {
		printClusterHeader(out, in, msgs, exploreOpts.cluster)
	}
	if exploreOpts.candidate != "" {
		printCandidateHeader(out, explore.Candidate(msgs, exploreOpts.candidate))
	}

	if exploreOpts.exportCSV != "" {
		if err := exportFile(exploreOpts.exportCSV, func(w io.Writer) error { return explore.WriteMessagesCSV(w, matched) }); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Exported %d rows to %s\n", len(matched), exploreOpts.exportCSV)
	}

	shown := matched
	if exploreOpts.limit > 0 && len(shown) > exploreOpts.limit {
		shown = shown[:exploreOpts.limit]
	}
	fmt.Fprintln(out, report.TitleStyle.Render(fmt.Sprintf("%d matching messages (showing %d)", len(matched), len(shown))))
	for _, m := range shown {
		label := model.NormalizeRisk(m.RiskLabel)
		fmt.Fprintf(out, "%-19s  %s  %-20s  %s %-4s  %s\n",
			orUnknown(model.FormatTimestamp(m.Timestamp)),
			report.RiskStyle(label).Render(fmt.Sprintf("%-6s", label)),
			m.Entity,
			report.LabelStyle.Render("cluster"), m.ClusterID,
			notify.Preview(m.Text, 80))
	}
	return nil
}

func printClusterHeader(w io.Writer, in *inputs, msgs []model.Message, id string) {
	clusters, ok := score.ClustersFromTable(in.clusters)
	if !ok {
		clusters = score.DeriveClusters(msgs)
	}
	for _, c := range clusters {
		if strings.TrimSpace(c.ClusterID) != strings.TrimSpace(id) {
			continue
		}
		fmt.Fprintf(w, "%s %s  %s %d  %s %s\n",
			report.LabelStyle.Render("cluster"), c.ClusterID,
			report.LabelStyle.Render("messages"), c.Messages,
			report.LabelStyle.Render("high ratio"), formatRatio(c.HighRatio))
		if c.CanonicalTemplate != "" {
			fmt.Fprintf(w, "%s %s\n", report.LabelStyle.Render("template"), notify.Preview(c.CanonicalTemplate, 160))
		}
		if c.ExampleMessage != "" {
			fmt.Fprintf(w, "%s %s\n", report.LabelStyle.Render("example"), notify.Preview(c.ExampleMessage, 160))
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s\n\n", report.LabelStyle.Render("Cluster "+id+" not found"))
}

func printCandidateHeader(w io.Writer, st explore.CandidateStats) {
	if st.Total == 0 {
		fmt.Fprintf(w, "%s\n\n", report.LabelStyle.Render("No candidates match "+st.Query))
		return
	}
	fmt.Fprintf(w, "%s %q  %s %d  %s %d  %s %d  %s %d\n",
		report.LabelStyle.Render("candidate"), st.Query,
		report.LabelStyle.Render("total"), st.Total,
		report.RiskStyle(model.RiskHigh).Render("high"), st.High,
		report.RiskStyle(model.RiskMedium).Render("medium"), st.Medium,
		report.RiskStyle(model.RiskLow).Render("low"), st.Low)
	fmt.Fprintf(w, "%s %s\n\n", report.LabelStyle.Render("clusters"), strings.Join(st.Clusters, ", "))
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
