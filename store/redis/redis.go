// Package redis provides a GraphStore backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/gptindex/store"
)

// RedisGraphStore implements store.GraphStore using Redis
type RedisGraphStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.GraphStore = (*RedisGraphStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "gptindex:"
	TTL      time.Duration // Expiration for graphs, default 0 (no expiration)
}

// NewRedisGraphStore creates a new Redis graph store
func NewRedisGraphStore(opts RedisOptions) *RedisGraphStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "gptindex:"
	}

	return &RedisGraphStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisGraphStore) graphKey(id string) string {
	return fmt.Sprintf("%sgraph:%s", s.prefix, id)
}

func (s *RedisGraphStore) indexKey() string {
	return s.prefix + "graphs"
}

// Close closes the client
func (s *RedisGraphStore) Close() error {
	return s.client.Close()
}

// Save stores a record and adds its id to the index set
func (s *RedisGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.graphKey(record.ID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), record.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save graph to redis: %w", err)
	}
	return nil
}

// Load retrieves a record by id
func (s *RedisGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	data, err := s.client.Get(ctx, s.graphKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load graph from redis: %w", err)
	}

	var r store.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &r, nil
}

// List returns every record in the index set. Ids whose key expired are dropped from the set.
func (s *RedisGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	if len(ids) == 0 {
		return []*store.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.graphKey(id)
	}
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graphs: %w", err)
	}

	var (
		records []*store.Record
		expired []any
	)
	for i, result := range results {
		raw, ok := result.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var r store.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal graph %s: %w", ids[i], err)
		}
		records = append(records, &r)
	}
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune graph index: %w", err)
		}
	}
	store.SortRecords(records)
	return records, nil
}

// Delete removes a record and its index entry
func (s *RedisGraphStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.graphKey(id))
	pipe.SRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	return nil
}
