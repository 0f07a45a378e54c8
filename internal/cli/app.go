package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/detect"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/feed"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/pipeline"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/secrets"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/seen"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/util"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/worker"
)

const (
	// inputLoadWorkers bounds concurrent table loads
	inputLoadWorkers = 3
	seenPingTimeout  = 5 * time.Second
)

// app holds the components shared by the commands
type app struct {
	cfg        *model.Config
	logger     *zap.Logger
	loader     *dataset.Loader
	feed       *feed.Store
	seen       *seen.LayeredStore
	dispatcher *notify.Dispatcher
	pipeline   *pipeline.Pipeline
}

// newApp wires the pipeline. Notification channels are only built when
// withChannels is set; dry runs never need credentials.
func newApp(ctx context.Context, cfg *model.Config, logger *zap.Logger, withChannels bool) (*app, error) {
	client := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)
	resolver := secrets.NewResolver(cfg.Secrets.Vault.Address)

	a := &app{
		cfg:    cfg,
		logger: logger,
		loader: dataset.NewLoader(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes),
		feed:   feed.NewStore(cfg.Feed.Path),
	}

	var redisPassword string
	if cfg.Seen.Backend == "redis" && cfg.Seen.Redis.Password != "" {
		pw, err := resolver.Resolve(ctx, cfg.Seen.Redis.Password)
		if err != nil {
			return nil, riskerr.NewConfigError("seen.redis.password", err)
		}
		redisPassword = pw
	}
	store, err := seen.New(cfg.Seen, cfg.Feed.Path, redisPassword)
	if err != nil {
		return nil, riskerr.NewConfigError("seen.backend", err)
	}
	a.seen = store

	pingCtx, cancel := context.WithTimeout(ctx, seenPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		a.Close()
		return nil, riskerr.NewConfigError("seen.redis.addr", err)
	}

	var dispatcher pipeline.Dispatcher
	if withChannels {
		channels, err := notify.NewChannels(ctx, cfg.Notify, resolver, client, cfg.HTTP.UserAgent, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		if len(channels) == 0 {
			logger.Warn("No notification channels enabled; alerts will only be written to the feed")
		}
		a.dispatcher = notify.NewDispatcher(channels, logger, notify.OptionsFromConfig(cfg.Notify))
		dispatcher = a.dispatcher
	}

	a.pipeline = pipeline.NewPipeline(cfg.Input.Messages, a.loader, detect.NewDetector(), dispatcher, a.feed, a.seen, logger)
	return a, nil
}

// Close releases channel and seen-store connections
func (a *app) Close() {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			a.logger.Warn("Close notification channels", zap.Error(err))
		}
	}
	if a.seen != nil {
		if err := a.seen.Close(); err != nil {
			a.logger.Warn("Close seen store", zap.Error(err))
		}
	}
}

// newLoader builds a table loader on the configured HTTP client
func newLoader(cfg *model.Config) *dataset.Loader {
	client := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)
	return dataset.NewLoader(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes)
}

// inputs are the tables the read-only commands work on
type inputs struct {
	messages *dataset.Table // nil when absent and optional
	clusters *dataset.Table // nil when absent
	alerts   []model.Alert
}

// loadSpec says which inputs a command needs
type loadSpec struct {
	messages        bool
	requireMessages bool
	clusters        bool
	alerts          bool
}

// loadInputs reads the requested tables concurrently
func loadInputs(ctx context.Context, cfg *model.Config, loader *dataset.Loader, spec loadSpec) (*inputs, error) {
	in := &inputs{}
	var tasks []worker.Task

	if spec.messages {
		tasks = append(tasks, func(ctx context.Context) error {
			var err error
			if spec.requireMessages {
				in.messages, err = loader.Load(ctx, cfg.Input.Messages)
			} else {
				in.messages, err = loader.LoadOptional(ctx, cfg.Input.Messages)
			}
			return err
		})
	}
	if spec.clusters {
		tasks = append(tasks, func(ctx context.Context) error {
			var err error
			in.clusters, err = loader.LoadOptional(ctx, cfg.Input.Clusters)
			return err
		})
	}
	if spec.alerts {
		tasks = append(tasks, func(ctx context.Context) error {
			var err error
			in.alerts, err = feed.NewStore(cfg.Feed.Path).Read()
			return err
		})
	}

	if err := worker.FirstError(worker.NewPool(inputLoadWorkers).Run(ctx, tasks...)); err != nil {
		return nil, err
	}
	return in, nil
}
