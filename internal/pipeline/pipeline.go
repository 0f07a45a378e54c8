// Package pipeline runs one detection pass: load, detect, dispatch, record.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/detect"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/seen"
)

// TableLoader loads the message table
type TableLoader interface {
	Load(ctx context.Context, source string) (*dataset.Table, error)
}

// Dispatcher delivers alerts over the notification channels
type Dispatcher interface {
	DispatchAll(ctx context.Context, alerts []model.Alert) *notify.DeliveryReport
}

// FeedWriter appends alerts to the durable feed
type FeedWriter interface {
	Append(alerts []model.Alert) (int, error)
}

// SeenSet is the seen-set as the pipeline reads and advances it
type SeenSet interface {
	seen.Store
	// Remember records ids for this process only, without touching durable state
	Remember(ctx context.Context, ids ...string) error
}

// Pipeline orchestrates a single poll cycle
type Pipeline struct {
	source     string
	loader     TableLoader
	detector   *detect.Detector
	dispatcher Dispatcher
	feed       FeedWriter
	seen       SeenSet
	logger     *zap.Logger
}

// NewPipeline creates a pipeline reading the message table at source
func NewPipeline(source string, loader TableLoader, detector *detect.Detector, dispatcher Dispatcher, feed FeedWriter, seenStore SeenSet, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:     source,
		loader:     loader,
		detector:   detector,
		dispatcher: dispatcher,
		feed:       feed,
		seen:       seenStore,
		logger:     logger.Named("pipeline"),
	}
}

// CycleResult describes one completed pass
type CycleResult struct {
	CycleID  string
	Rows     int
	Alerts   []model.Alert
	Delivery *notify.DeliveryReport
	Written  int
	Duration time.Duration
}

// RunCycle performs load -> detect -> dispatch -> append -> mark seen.
// The durable seen-set advances only after the feed write succeeds. Dispatched
// ids are always remembered in process memory, so a failing feed never causes
// the same alert to be sent twice by one process.
// Delivery failures are reported in the result, never returned.
func (p *Pipeline) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	start := time.Now()
	result = &CycleResult{CycleID: uuid.NewString(), Delivery: &notify.DeliveryReport{}}
	log := p.logger.With(zap.String("cycle_id", result.CycleID))

	// finished stays false while a panic unwinds through the deferred call
	finished := false
	defer func() {
		result.Duration = time.Since(start)
		cycleDuration.Observe(result.Duration.Seconds())
		label := cycleLabel(err)
		if !finished {
			label = "panic"
		}
		pollCycles.WithLabelValues(label).Inc()
	}()

	result, err = p.runCycle(ctx, result, log, start)
	finished = true
	return result, err
}

func (p *Pipeline) runCycle(ctx context.Context, result *CycleResult, log *zap.Logger, start time.Time) (*CycleResult, error) {
	alerts, rows, err := p.detect(ctx)
	if err != nil {
		log.Error("Cycle skipped", zap.String("kind", riskerr.Kind(err)), zap.Error(err))
		return result, err
	}
	result.Rows = rows
	result.Alerts = alerts
	alertsDetected.Add(float64(len(alerts)))

	if len(alerts) == 0 {
		log.Debug("No new alerts", zap.Int("rows", rows))
		return result, nil
	}
	log.Info("New alerts detected", zap.Int("alerts", len(alerts)), zap.Int("rows", rows))

	result.Delivery = p.dispatcher.DispatchAll(ctx, alerts)
	if result.Delivery.Failed() > 0 {
		log.Warn("Some deliveries failed",
			zap.Int("delivered", result.Delivery.Delivered),
			zap.Int("failed", result.Delivery.Failed()),
			zap.Error(result.Delivery.Err()),
		)
	}

	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.MessageID
	}

	written, err := p.feed.Append(alerts)
	if err != nil {
		p.remember(ctx, log, ids)
		log.Error("Feed write failed; dispatched alerts are held in memory only", zap.Error(err))
		return result, err
	}
	result.Written = written

	if err := p.seen.Add(ctx, ids...); err != nil {
		p.remember(ctx, log, ids)
		err = riskerr.NewStorageError("mark seen", "", err)
		log.Error("Seen-set update failed", zap.Error(err))
		return result, err
	}

	log.Info("Cycle complete",
		zap.Int("alerts", len(alerts)),
		zap.Int("written", written),
		zap.Int("delivered", result.Delivery.Delivered),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (p *Pipeline) remember(ctx context.Context, log *zap.Logger, ids []string) {
	if err := p.seen.Remember(ctx, ids...); err != nil {
		log.Error("Seen-set memory update failed", zap.Error(err))
	}
}

// Preview loads the table and returns what the next cycle would alert on,
// without dispatching, writing or marking anything.
func (p *Pipeline) Preview(ctx context.Context) ([]model.Alert, error) {
	alerts, _, err := p.detect(ctx)
	return alerts, err
}

func (p *Pipeline) detect(ctx context.Context) ([]model.Alert, int, error) {
	table, err := p.loader.Load(ctx, p.source)
	if err != nil {
		return nil, 0, err
	}
	alerts, err := p.detector.Detect(ctx, table, p.seen)
	if err != nil {
		return nil, table.Len(), err
	}
	return alerts, table.Len(), nil
}

func cycleLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return riskerr.Kind(err)
}
