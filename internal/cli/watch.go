package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/metrics"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/pipeline"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/worker"
)

var watchOnce bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the message table and announce new high-risk messages",
	Long: `Watch runs a detection pass immediately and then once per poll interval.

Each pass:
- Loads the classified message table
- Selects rows labelled "high" whose message_id has never been alerted
- Sends one notification per alert on every enabled channel
- Appends the alerts to the feed and marks them as seen

A failed delivery on one channel never blocks the others or the feed write.
A failed feed write is logged; the alerts are not sent again by this process.

Example:
  riskwatch watch
  riskwatch watch --interval 1m --metrics-addr :9090
  riskwatch watch --once`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single pass and exit")
	watchCmd.Flags().Duration("interval", 5*time.Minute, "poll interval")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("poll.interval", watchCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("metrics.addr", watchCmd.Flags().Lookup("metrics-addr"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Starting riskwatch",
		zap.String("version", Version),
		zap.String("messages", cfg.Input.Messages),
		zap.String("feed", cfg.Feed.Path),
		zap.String("seen_backend", cfg.Seen.Backend),
		zap.Strings("channels", a.dispatcher.Channels()),
	)

	if watchOnce {
		// A failed pass is reported, not fatal: the next run retries it
		result, err := a.pipeline.RunCycle(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ Cycle %s skipped (%s): %v\n", result.CycleID, riskerr.Kind(err), err)
			return nil
		}
		printCycle(cmd, result)
		return nil
	}

	if cfg.Metrics.Addr != "" {
		if err := metrics.NewServer(cfg.Metrics.Addr, logger).Start(ctx); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	loop := worker.NewLoop(cfg.Poll.Interval, func(ctx context.Context) error {
		_, err := a.pipeline.RunCycle(ctx)
		return err
	}, logger)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func printCycle(cmd *cobra.Command, r *pipeline.CycleResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Cycle %s: %d rows, %d new alerts, %d written\n", r.CycleID, r.Rows, len(r.Alerts), r.Written)
	if r.Delivery.Attempted > 0 {
		fmt.Fprintf(out, "  Deliveries: %d/%d succeeded\n", r.Delivery.Delivered, r.Delivery.Attempted)
	}
	for _, err := range r.Delivery.Failures() {
		fmt.Fprintf(out, "  ✗ %v\n", err)
	}
}
