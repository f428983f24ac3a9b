// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue using a Redis list, so queued extraction
// jobs survive a process restart.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a Redis-backed queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) (Queue, error) {
	if key == "" {
		key = "voterscan:jobs"
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("NewRedisQueue: failed to ping Redis: %v", err)
		return nil, err
	}

	log.Printf("NewRedisQueue: key=%s", key)
	return &RedisQueue{client: client, key: key}, nil
}

// Enqueue adds a job to the queue using RPUSH.
func (r *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push job to Redis: %w", err)
	}
	log.Printf("Enqueue: queued job type=%s payloadSize=%d", job.Type, len(data))
	return nil
}

// Dequeue blocks until a job is available using BLPOP.
func (r *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	// BLPOP in a goroutine so a cancelled context unblocks the caller.
	type result struct {
		val []string
		err error
	}
	resultChan := make(chan result, 1)
	go func() {
		val, err := r.client.BLPop(ctx, 0, r.key).Result()
		resultChan <- result{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			if res.err == redis.Nil {
				return Job{}, ctx.Err()
			}
			return Job{}, res.err
		}
		if len(res.val) < 2 {
			return Job{}, fmt.Errorf("invalid BLPOP result: expected 2 elements, got %d", len(res.val))
		}
		var job Job
		if err := json.Unmarshal([]byte(res.val[1]), &job); err != nil {
			return Job{}, fmt.Errorf("failed to unmarshal job: %w", err)
		}
		return job, nil
	}
}
