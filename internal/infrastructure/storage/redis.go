package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/ports"
)

// NewRedisClient builds a client from a redis:// URL, falling back to a bare address.
func NewRedisClient(rawURL string) *redis.Client {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		opts = &redis.Options{Addr: rawURL}
	}
	return redis.NewClient(opts)
}

// RedisStream appends article records to a Redis stream.
type RedisStream struct {
	client *redis.Client
	stream string
}

var _ ports.StreamSink = (*RedisStream)(nil)

// NewRedisStream writes to the given stream key.
func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream}
}

// Put adds one entry whose "data" field holds the JSON-encoded record. The
// run identifier carried by ctx, if any, is stored as "run_id".
func (s *RedisStream) Put(ctx context.Context, record domain.StreamRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal stream record: %w", err)
	}

	values := map[string]interface{}{"data": string(payload)}
	if runID := domain.RunIDFromContext(ctx); runID != "" {
		values["run_id"] = runID
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: s.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("%w: xadd %s: %v", domain.ErrSinkWrite, s.stream, err)
	}
	return nil
}

// RedisKV stores the latest sentiment per symbol in a hash at "<prefix>:<symbol>".
type RedisKV struct {
	client *redis.Client
	prefix string
}

var _ ports.KeyValueSink = (*RedisKV)(nil)

// NewRedisKV builds a KV sink rooted at prefix.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

// Update sets the "sentiment" field of the symbol's hash, keeping other fields.
func (k *RedisKV) Update(ctx context.Context, symbol string, sentiment float64) error {
	key := k.Key(symbol)
	value := strconv.FormatFloat(sentiment, 'f', -1, 64)
	if err := k.client.HSet(ctx, key, "sentiment", value).Err(); err != nil {
		return fmt.Errorf("%w: hset %s: %v", domain.ErrSinkWrite, key, err)
	}
	return nil
}

// Key returns the hash key used for symbol.
func (k *RedisKV) Key(symbol string) string {
	if k.prefix == "" {
		return symbol
	}
	return k.prefix + ":" + symbol
}
