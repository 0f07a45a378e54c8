package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/report"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a one-shot risk summary (Markdown + JSON)",
	Long: `Report summarises the message table: counts, risk label distribution,
clusters ranked by high-risk ratio, sample high-risk messages and the number
of alerts recorded in the feed.

Two files are written to the output directory:
  risk_summary_<YYYYMMDD_HHMM>.md
  risk_summary_<YYYYMMDD_HHMM>.json

Example:
  riskwatch report
  riskwatch report --output-dir ./reports`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("output-dir", "", "directory for report files (default: report.output_dir)")
	_ = viper.BindPFlag("report.output_dir", reportCmd.Flags().Lookup("output-dir"))
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := loadInputs(cmd.Context(), cfg, newLoader(cfg), loadSpec{
		messages:        true,
		requireMessages: true,
		clusters:        true,
		alerts:          true,
	})
	if err != nil {
		return err
	}

	r, err := report.NewGenerator(cfg.Report).Build(report.Input{
		Messages: in.messages,
		Clusters: in.clusters,
		Alerts:   in.alerts,
		FeedPath: cfg.Feed.Path,
	})
	if err != nil {
		return err
	}

	renderer := report.NewRenderer()
	mdPath, jsonPath, err := renderer.Write(cfg.Report.OutputDir, r)
	if err != nil {
		return err
	}

	renderer.RenderSummary(cmd.OutOrStdout(), r)
	fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
	fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
	return nil
}
