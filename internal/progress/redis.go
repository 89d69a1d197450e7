package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore shares snapshots between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string {
	return fmt.Sprintf("progress:%s", id)
}

func (r *RedisStore) Set(ctx context.Context, id string, p Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(id), data, r.ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (Progress, bool, error) {
	val, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Progress{}, false, nil
	}
	if err != nil {
		return Progress{}, false, err
	}
	var p Progress
	if err := json.Unmarshal(val, &p); err != nil {
		return Progress{}, false, err
	}
	return p, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, key(id)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Open returns a Redis-backed store when opts.Addr answers a ping, and an
// in-memory store otherwise.
func Open(ctx context.Context, opts RedisOptions, ttl time.Duration) Store {
	if opts.Addr == "" {
		return NewMemoryStore(ttl)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("⚠️  Redis not available, using in-memory progress store: %v", err)
		client.Close()
		return NewMemoryStore(ttl)
	}
	log.Println("✅ Redis connected successfully")
	return NewRedisStore(client, ttl)
}
