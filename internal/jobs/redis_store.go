// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 25

// RedisStore keeps each job as a JSON document under <prefix>job:<id>. Every
// write refreshes the key's TTL to the retention period.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero retention stores keys without expiry.
func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: retention}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "job:" + id
}

func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	if !ok {
		return ErrDuplicateJob
	}
	return nil
}

// Update performs the read-modify-write under WATCH and retries when another
// writer touched the key in between
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Job) error) (Job, error) {
	key := s.key(id)
	var result Job

	txf := func(tx *redis.Tx) error {
		j, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		orig := j.clone()
		if err := fn(j); err != nil {
			result = *orig
			return err
		}

		data, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = *j
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return Job{}, fmt.Errorf("failed to update job %s: too many concurrent writers", id)
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable, key string) (*Job, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &j, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	j, err := s.load(ctx, s.client, s.key(id))
	if err != nil {
		return Job{}, err
	}
	return *j, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
