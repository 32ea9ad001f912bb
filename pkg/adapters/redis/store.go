package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "turbo:recording:"

// farFuture scores index entries of recordings without expiration.
const farFuture = 4102444800 // 2100-01-01

// Store implements ports.RecordingStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for recordings.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for recordings.
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
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id domain.RequestID) string {
	return s.prefix + string(id)
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the recording and indexes it by expiry.
func (s *Store) Save(ctx context.Context, rec *domain.Recording) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(rec.RequestID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: string(rec.RequestID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save recording to redis: %w", err)
	}
	return nil
}

// Load retrieves a recording.
func (s *Store) Load(ctx context.Context, id domain.RequestID) (*domain.Recording, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRecordingNotFound
		}
		return nil, fmt.Errorf("failed to get recording from redis: %w", err)
	}

	var rec domain.Recording
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording: %w", err)
	}
	return &rec, nil
}

// Delete removes the recording and its index entry.
func (s *Store) Delete(ctx context.Context, id domain.RequestID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the ids of recordings that have not expired.
// Expired index entries are pruned lazily.
func (s *Store) List(ctx context.Context) ([]domain.RequestID, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired recordings: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	ids := make([]domain.RequestID, len(members))
	for i, m := range members {
		ids[i] = domain.RequestID(m)
	}
	return ids, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
