package seen

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// New creates the layered seen-set selected by cfg.
// feedPath is the alerts feed used by the "feed" backend; redisPassword is the
// already-resolved secret for the "redis" backend.
func New(cfg model.SeenConfig, feedPath, redisPassword string) (*LayeredStore, error) {
	memory := NewMemoryStore(cfg.MemoryTTL)

	switch strings.ToLower(cfg.Backend) {
	case "", "feed":
		return NewLayeredStore(memory, NewFeedIndex(feedPath)), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: redisPassword,
			DB:       cfg.Redis.DB,
		})
		return NewLayeredStore(memory, NewRedisStore(client, cfg.Redis.Key)), nil

	default:
		return nil, fmt.Errorf("unknown seen backend: %s (supported: feed, redis)", cfg.Backend)
	}
}
