package repository

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ProcessedEventStore remembers webhook event ids so a redelivery is applied once.
type ProcessedEventStore interface {
	// MarkProcessed records id and reports whether this call was the first to do so.
	MarkProcessed(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

const processedEventPrefix = "payment:event:"

type RedisProcessedEvents struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProcessedEvents(client *redis.Client, ttl time.Duration) *RedisProcessedEvents {
	return &RedisProcessedEvents{client: client, ttl: ttl}
}

func (s *RedisProcessedEvents) MarkProcessed(ctx context.Context, id string) (bool, error) {
	first, err := s.client.SetNX(ctx, processedEventPrefix+id, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, upstream("mark webhook event", err)
	}
	return first, nil
}

func (s *RedisProcessedEvents) Forget(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, processedEventPrefix+id).Err(); err != nil {
		return upstream("forget webhook event", err)
	}
	return nil
}

type MemoryProcessedEvents struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryProcessedEvents(ttl time.Duration) *MemoryProcessedEvents {
	return &MemoryProcessedEvents{ttl: ttl, seen: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryProcessedEvents) MarkProcessed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, at := range s.seen {
		if s.ttl > 0 && now.Sub(at) > s.ttl {
			delete(s.seen, key)
		}
	}

	if _, ok := s.seen[id]; ok {
		return false, nil
	}
	s.seen[id] = now
	return true, nil
}

func (s *MemoryProcessedEvents) Forget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, id)
	return nil
}
