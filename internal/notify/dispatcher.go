package notify

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/worker"
)

// DispatcherOptions configures the Dispatcher behavior.
type DispatcherOptions struct {
	PreviewChars       int           // default 200
	RatePerSecond      float64       // per channel; <= 0 disables throttling
	Burst              int           // default 5
	BreakerMaxFailures uint32        // consecutive failures that open a channel's breaker; 0 disables
	BreakerOpenTimeout time.Duration // how long an open breaker fails fast
}

// DefaultDispatcherOptions returns the defaults used when nothing is configured.
func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		PreviewChars:       DefaultPreviewChars,
		RatePerSecond:      1,
		Burst:              5,
		BreakerMaxFailures: 3,
		BreakerOpenTimeout: 5 * time.Minute,
	}
}

// DeliveryReport summarises one dispatch. Failures never abort the caller.
type DeliveryReport struct {
	Attempted int
	Delivered int
	errs      *multierror.Error
}

// Failed returns the number of failed deliveries
func (r *DeliveryReport) Failed() int {
	if r.errs == nil {
		return 0
	}
	return len(r.errs.Errors)
}

// Failures returns every ChannelDeliveryError collected, in attempt order
func (r *DeliveryReport) Failures() []error {
	if r.errs == nil {
		return nil
	}
	return r.errs.Errors
}

// Err returns the aggregated failures, or nil
func (r *DeliveryReport) Err() error {
	return r.errs.ErrorOrNil()
}

func (r *DeliveryReport) merge(other *DeliveryReport) {
	r.Attempted += other.Attempted
	r.Delivered += other.Delivered
	if other.errs != nil {
		r.errs = multierror.Append(r.errs, other.errs.Errors...)
	}
}

// Dispatcher renders alerts and sends them over every enabled channel.
// Channels are attempted sequentially in configuration order and are
// independent: a failure on one never prevents an attempt on the next.
type Dispatcher struct {
	logger   *zap.Logger
	channels []Channel
	opts     DispatcherOptions
	limiter  *worker.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewDispatcher creates a new Dispatcher over channels.
func NewDispatcher(channels []Channel, logger *zap.Logger, opts DispatcherOptions) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = DefaultPreviewChars
	}

	d := &Dispatcher{
		logger:   logger.Named("dispatcher"),
		channels: channels,
		opts:     opts,
		limiter:  worker.NewLimiter(opts.RatePerSecond, opts.Burst),
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(channels)),
	}
	for _, ch := range channels {
		d.breakers[ch.Name()] = d.newBreaker(ch.Name())
	}
	return d
}

func (d *Dispatcher) newBreaker(name string) *gobreaker.CircuitBreaker {
	maxFailures := d.opts.BreakerMaxFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     d.opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.logger.Warn("Channel breaker state changed",
				zap.String("channel", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Channels returns the configured channel names in dispatch order
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch sends one alert over every channel.
func (d *Dispatcher) Dispatch(ctx context.Context, a model.Alert) *DeliveryReport {
	report := &DeliveryReport{}
	n := Notification{Alert: a, Body: Render(a, d.opts.PreviewChars)}

	for _, ch := range d.channels {
		report.Attempted++
		if err := d.send(ctx, ch, n); err != nil {
			derr := riskerr.NewChannelDeliveryError(ch.Name(), a.MessageID, err)
			report.errs = multierror.Append(report.errs, derr)
			d.logger.Error("Channel delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("message_id", a.MessageID),
				zap.Error(err),
			)
			continue
		}
		report.Delivered++
		d.logger.Debug("Channel delivery succeeded",
			zap.String("channel", ch.Name()),
			zap.String("message_id", a.MessageID),
		)
	}
	return report
}

// DispatchAll sends alerts in order and merges their reports.
func (d *Dispatcher) DispatchAll(ctx context.Context, alerts []model.Alert) *DeliveryReport {
	total := &DeliveryReport{}
	for _, a := range alerts {
		total.merge(d.Dispatch(ctx, a))
	}
	return total
}

// send makes one throttled, breaker-guarded attempt on ch
func (d *Dispatcher) send(ctx context.Context, ch Channel, n Notification) error {
	name := ch.Name()

	if err := d.limiter.Wait(ctx, name); err != nil {
		channelDeliveries.WithLabelValues(name, "throttled").Inc()
		return err
	}

	start := time.Now()
	_, err := d.breakers[name].Execute(func() (interface{}, error) {
		return nil, ch.Send(ctx, n)
	})
	channelDeliveryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		channelDeliveries.WithLabelValues(name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		channelDeliveries.WithLabelValues(name, "breaker_open").Inc()
	default:
		channelDeliveries.WithLabelValues(name, "error").Inc()
	}
	return err
}

// Close releases channels that hold connections
func (d *Dispatcher) Close() error {
	var result *multierror.Error
	for _, ch := range d.channels {
		if c, ok := ch.(Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
