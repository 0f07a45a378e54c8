package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/explore"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/feed"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/report"
)

type feedListOptions struct {
	candidate string
	cluster   string
	keyword   string
	limit     int
	exportCSV string
	json      bool
}

var feedOpts feedListOptions

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Inspect the alerts feed",
}

var feedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded alerts",
	Long: `List rows of the alerts feed, oldest first, optionally filtered.

Example:
  riskwatch feed list --limit 20
  riskwatch feed list --candidate ravi --keyword "guaranteed"
  riskwatch feed list --cluster 17 --export-csv cluster17_alerts.csv`,
	Args: cobra.NoArgs,
	RunE: runFeedList,
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedListCmd)

	f := feedListCmd.Flags()
	f.StringVar(&feedOpts.candidate, "candidate", "", "entity name contains (case-insensitive)")
	f.StringVar(&feedOpts.cluster, "cluster", "", "cluster id (exact)")
	f.StringVar(&feedOpts.keyword, "keyword", "", "message text contains (case-insensitive)")
	f.IntVar(&feedOpts.limit, "limit", 0, "maximum rows printed (0 = all); exports are never limited")
	f.StringVar(&feedOpts.exportCSV, "export-csv", "", "also write the matching rows to this CSV file")
	f.BoolVar(&feedOpts.json, "json", false, "print rows as JSON")
}

func runFeedList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	alerts, err := feed.NewStore(cfg.Feed.Path).Read()
	if err != nil {
		return err
	}

	return listFeed(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Feed.Path, alerts, feedOpts)
}

// listFeed filters alerts, exports every match and prints up to opts.limit of them
func listFeed(out, status io.Writer, feedPath string, alerts []model.Alert, opts feedListOptions) error {
	filter := explore.Filter{
		ClusterID: opts.cluster,
		Candidate: opts.candidate,
		Keyword:   opts.keyword,
	}
	matched := filter.Alerts(alerts)

	if opts.exportCSV != "" {
		if err := exportFile(opts.exportCSV, func(w io.Writer) error { return feed.Encode(w, matched) }); err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Exported %d rows to %s\n", len(matched), opts.exportCSV)
	}

	shown := matched
	if opts.limit > 0 && len(shown) > opts.limit {
		shown = shown[:opts.limit]
	}
	if opts.json {
		return writeAlertsJSON(out, shown)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(out, report.LabelStyle.Render("No alerts recorded yet in "+feedPath))
		return nil
	}

	fmt.Fprintln(out, report.TitleStyle.Render(fmt.Sprintf("%d of %d alerts (showing %d)", len(matched), len(alerts), len(shown))))
	for _, a := range shown {
		fmt.Fprintf(out, "%-19s  %-24s  %s %-6s  %s\n",
			orUnknown(model.FormatTimestamp(a.Timestamp)),
			a.Entity,
			report.LabelStyle.Render("score"), orNA(model.FormatScore(a.Score)),
			notify.Preview(a.Text, 80))
	}
	return nil
}

// exportFile creates path and hands it to write
func exportFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
