package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"algoarena/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const EventLeaderboardUpdate = "leaderboard_update"

// LeaderboardEvent is the payload pushed to every subscriber of a contest
// whenever its standings change.
type LeaderboardEvent struct {
	Type        string                   `json:"type"`
	ContestID   string                   `json:"contest_id"`
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
}

// Publisher delivers leaderboard events to the broadcast channel.
type Publisher interface {
	PublishLeaderboard(ctx context.Context, event LeaderboardEvent) error
}

// RedisPublisher publishes events to a redis pub/sub channel consumed by the
// websocket hub. The client is injected and lifecycle-managed by the caller,
// never package-level state.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) PublishLeaderboard(ctx context.Context, event LeaderboardEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal leaderboard event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish leaderboard event: %w", err)
	}
	return nil
}
