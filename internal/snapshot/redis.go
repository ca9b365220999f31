package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis channel snapshots are published on.
const DefaultChannel = "tradebot:snapshot"

// RedisConfig holds the connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// publisher is the part of *redis.Client used here.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher forwards hub snapshots to a Redis pub/sub channel as JSON.
type RedisPublisher struct {
	client  publisher
	closer  func() error
	ping    func(ctx context.Context) error
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher creates a publisher with its own client.
func NewRedisPublisher(cfg RedisConfig, logger *zap.Logger) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	p := newPublisher(client, cfg.Channel, logger)
	p.closer = client.Close
	p.ping = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return p
}

func newPublisher(client publisher, channel string, logger *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{
		client:  client,
		closer:  func() error { return nil },
		ping:    func(context.Context) error { return nil },
		channel: channel,
		logger:  logger,
	}
}

// HealthCheck verifies Redis connectivity.
func (p *RedisPublisher) HealthCheck(ctx context.Context) error {
	return p.ping(ctx)
}

// Close shuts down the Redis client.
func (p *RedisPublisher) Close() error {
	return p.closer()
}

// Forward publishes one snapshot.
func (p *RedisPublisher) Forward(ctx context.Context, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.channel, err)
	}
	return nil
}

// Run forwards every snapshot the hub delivers until ctx is cancelled.
// Failed publishes are logged and skipped. Returns nil on clean shutdown.
func (p *RedisPublisher) Run(ctx context.Context, hub *Hub) error {
	updates := hub.Subscribe(ctx)
	p.logger.Info("forwarding snapshots to redis", zap.String("channel", p.channel))

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			if err := p.Forward(ctx, s); err != nil {
				p.logger.Warn("snapshot publish failed",
					zap.String("symbol", s.Symbol),
					zap.Error(err),
				)
			}
		}
	}
}
