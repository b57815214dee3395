package ingress

import (
	"time"

	"github.com/sentinelsignal/sentinel/internal/storage/cache"
)

// NewRedisStreams adapts a *cache.Redis connection to the Streams
// interface the scheduler consumes from.
func NewRedisStreams(client *cache.Redis) Streams {
	return &redisStreamsAdapter{client: client}
}

type redisStreamsAdapter struct {
	client *cache.Redis
}

func (a *redisStreamsAdapter) XGroupCreate(stream, group string) error {
	return a.client.XGroupCreate(stream, group)
}

func (a *redisStreamsAdapter) XAck(stream, group, messageID string) error {
	return a.client.XAck(stream, group, messageID)
}

func (a *redisStreamsAdapter) XReadGroup(stream, group, consumer string, count int, timeout time.Duration) ([]XMessage, error) {
	raw, err := a.client.XReadGroup(stream, group, consumer, count, timeout)
	if err != nil {
		return nil, err
	}
	out := make([]XMessage, len(raw))
	for i, m := range raw {
		out[i] = XMessage{ID: m.ID, Values: m.Values}
	}
	return out, nil
}
