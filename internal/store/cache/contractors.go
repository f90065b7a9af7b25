// Package cache wraps a ContractorStore with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "contractors:"

// ContractorStore serves reads from Redis and fills it from the wrapped
// store. Any Redis failure falls through to the wrapped store; the cache
// never fails a read on its own.
type ContractorStore struct {
	next   store.ContractorStore
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewContractorStore(next store.ContractorStore, client *redis.Client, ttl time.Duration, log logger.Logger) *ContractorStore {
	return &ContractorStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "contractor-cache"}),
	}
}

func (s *ContractorStore) ListContractors(ctx context.Context, q models.ContractorQuery) ([]*models.Contractor, error) {
	key := listKey(q)

	var cached []*models.Contractor
	if s.get(ctx, key, &cached) {
		return cached, nil
	}

	out, err := s.next.ListContractors(ctx, q)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, out)
	return out, nil
}

func (s *ContractorStore) GetContractor(ctx context.Context, id string) (*models.Contractor, error) {
	key := keyPrefix + "id:" + id

	var cached models.Contractor
	if s.get(ctx, key, &cached) {
		return &cached, nil
	}

	c, err := s.next.GetContractor(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, c)
	return c, nil
}

// Invalidate drops the cached record for id and every cached list.
func (s *ContractorStore) Invalidate(ctx context.Context, id string) error {
	keys := []string{keyPrefix + "id:" + id}
	iter := s.client.Scan(ctx, 0, keyPrefix+"list:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *ContractorStore) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false
	case err != nil:
		s.logger.Warn("contractor cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (s *ContractorStore) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("contractor cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func listKey(q models.ContractorQuery) string {
	origin := "none"
	if q.Origin != nil {
		origin = fmt.Sprintf("%.5f,%.5f", q.Origin.Lat, q.Origin.Lng)
	}
	return fmt.Sprintf("%slist:%s:%s:%s:%s:%g", keyPrefix, q.Status, q.BackgroundCheck, q.Insurance, origin, q.MaxDistanceMiles)
}
