package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tendril/pkg/domain"
)

// Store implements ports.ThreadStore using Redis. Each thread record lives
// in its own hash; a ZSET index keeps listings cheap and lazily prunes
// expired ids.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for thread records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for thread records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "tendril:thread:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(threadID string) string {
	return s.prefix + threadID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record as a hash and registers it in the index.
func (s *Store) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	fields := map[string]any{
		"id":          rec.ID,
		"graph":       rec.Graph,
		"created_at":  rec.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  rec.UpdatedAt.Format(time.RFC3339Nano),
		"turns":       rec.Turns,
		"last_prompt": rec.LastPrompt,
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(threadID), fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(threadID), s.ttl)
	}

	// Score = expiry time, so List can prune lazily. No TTL means a score
	// far enough in the future to never match the prune range.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: threadID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the record hash from Redis.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	return recordFromFields(fields)
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active thread ids, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired threads: %w", err)
	}

	threads, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	return threads, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func recordFromFields(fields map[string]string) (*domain.ThreadRecord, error) {
	rec := &domain.ThreadRecord{
		ID:         fields["id"],
		Graph:      fields["graph"],
		LastPrompt: fields["last_prompt"],
	}

	var err error
	if raw := fields["created_at"]; raw != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("failed to parse thread record: %w", err)
		}
	}
	if raw := fields["updated_at"]; raw != "" {
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("failed to parse thread record: %w", err)
		}
	}
	if raw := fields["turns"]; raw != "" {
		if rec.Turns, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("failed to parse thread record: %w", err)
		}
	}
	return rec, nil
}
