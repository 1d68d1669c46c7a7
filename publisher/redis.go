package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cian-scraper/models"
	"cian-scraper/utils"
)

// RedisPublisher pushes run summaries onto a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *utils.Logger
}

// NewRedisPublisher connects and verifies the server is reachable.
func NewRedisPublisher(addr string, db int, channel string, logger *utils.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	logger.Info("[redis] Connected to %s, publishing on %q", addr, channel)
	return &RedisPublisher{client: client, channel: channel, logger: logger}, nil
}

func (p *RedisPublisher) PublishRunSummary(ctx context.Context, summary *models.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal summary: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	p.logger.Debug("[redis] Published run summary (%d bytes)", len(payload))
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
