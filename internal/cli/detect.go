package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/report"
)

var detectJSON bool

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show what the next pass would alert on (dry run)",
	Long: `Detect loads the message table and prints the high-risk messages that the
next watch pass would announce. Nothing is sent, written or marked as seen.

Example:
  riskwatch detect
  riskwatch detect --json | jq '.[].message_id'`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print alerts as JSON")
}

// alertRecord is the printable form of an alert; unknown values are empty strings
type alertRecord struct {
	MessageID   string `json:"message_id"`
	Date        string `json:"date"`
	Entity      string `json:"candidate_name_norm_simple"`
	ClusterID   string `json:"cluster_id"`
	Score       string `json:"heuristic_score"`
	Text        string `json:"text"`
	GeneratedAt string `json:"alert_generated_at"`
}

func newAlertRecord(a model.Alert) alertRecord {
	return alertRecord{
		MessageID:   a.MessageID,
		Date:        model.FormatTimestamp(a.Timestamp),
		Entity:      a.Entity,
		ClusterID:   a.ClusterID,
		Score:       model.FormatScore(a.Score),
		Text:        a.Text,
		GeneratedAt: model.FormatTimestamp(a.GeneratedAt),
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	alerts, err := a.pipeline.Preview(cmd.Context())
	if err != nil {
		return err
	}

	if detectJSON {
		return writeAlertsJSON(cmd.OutOrStdout(), alerts)
	}
	printAlerts(cmd.OutOrStdout(), alerts, cfg.Notify.PreviewChars)
	return nil
}

func writeAlertsJSON(w io.Writer, alerts []model.Alert) error {
	records := make([]alertRecord, 0, len(alerts))
	for _, a := range alerts {
		records = append(records, newAlertRecord(a))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func printAlerts(w io.Writer, alerts []model.Alert, previewChars int) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, report.LabelStyle.Render("No new high-risk messages."))
		return
	}

	fmt.Fprintln(w, report.TitleStyle.Render(fmt.Sprintf("%d new high-risk message(s)", len(alerts))))
	for _, a := range alerts {
		fmt.Fprintf(w, "\n%s %s  %s %s  %s %s  %s %s\n",
			report.LabelStyle.Render("id"), a.MessageID,
			report.LabelStyle.Render("entity"), report.RiskStyle(model.RiskHigh).Render(a.Entity),
			report.LabelStyle.Render("cluster"), a.ClusterID,
			report.LabelStyle.Render("score"), orNA(model.FormatScore(a.Score)))
		fmt.Fprintf(w, "  %s  %s\n", orUnknown(model.FormatTimestamp(a.Timestamp)), notify.Preview(a.Text, previewChars))
	}
}
