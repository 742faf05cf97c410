package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisSnapshotKey = "streams:snapshot"

// RedisPersister keeps the snapshot under a single key. Useful when the
// server runs somewhere without a writable disk.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(addr string) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisPersister{client: client}, nil
}

func (p *RedisPersister) Save(ctx context.Context, data []byte) error {
	return p.client.Set(ctx, redisSnapshotKey, data, 0).Err()
}

func (p *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.client.Get(ctx, redisSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *RedisPersister) Close() error { return p.client.Close() }
