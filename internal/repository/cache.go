package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dunebase/casugen/internal/models"
)

const (
	runningJobTTL    = 60 * time.Second
	terminalJobTTL   = time.Hour
	configTemplateTTL = time.Hour
)

// JobCache is a read-through cache of job-status snapshots in front of
// JobRepository: an in-process map guarded by double-checked locking,
// backed by Redis so the cache survives process restarts and is shared
// across API replicas.
type JobCache struct {
	redis *redis.Client
	store *JobRepository

	mu    sync.RWMutex
	local map[string]cacheEntry
}

type cacheEntry struct {
	job       *models.Job
	expiresAt time.Time
}

func NewJobCache(redisClient *redis.Client, store *JobRepository) *JobCache {
	return &JobCache{redis: redisClient, store: store, local: make(map[string]cacheEntry)}
}

func jobCacheKey(jobID string) string { return "casugen:job:" + jobID }

// GetJob returns a job snapshot, preferring the in-process cache, then
// Redis, then the database of record. A RUNNING job's entry is considered
// fresh for 60s; a terminal job's entry is fresh for 1h, since it will
// never change again.
func (c *JobCache) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	c.mu.RLock()
	if entry, ok := c.local[jobID]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.RUnlock()
		return entry.job, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.local[jobID]; ok && time.Now().Before(entry.expiresAt) {
		return entry.job, nil
	}

	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, jobCacheKey(jobID)).Result(); err == nil {
			var job models.Job
			if jsonErr := json.Unmarshal([]byte(raw), &job); jsonErr == nil {
				c.local[jobID] = cacheEntry{job: &job, expiresAt: time.Now().Add(ttlFor(job.Status))}
				return &job, nil
			}
		}
	}

	job, err := c.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ttl := ttlFor(job.Status)
	if c.redis != nil {
		if raw, err := json.Marshal(job); err == nil {
			c.redis.Set(ctx, jobCacheKey(jobID), raw, ttl)
		}
	}
	c.local[jobID] = cacheEntry{job: job, expiresAt: time.Now().Add(ttl)}

	return job, nil
}

// Invalidate drops a job's cached snapshot, e.g. immediately after a
// progress update the caller wants reflected without waiting out the TTL.
func (c *JobCache) Invalidate(ctx context.Context, jobID string) {
	c.mu.Lock()
	delete(c.local, jobID)
	c.mu.Unlock()
	if c.redis != nil {
		c.redis.Del(ctx, jobCacheKey(jobID))
	}
}

func ttlFor(status models.JobStatus) time.Duration {
	if status.IsTerminal() {
		return terminalJobTTL
	}
	return runningJobTTL
}

// ConfigTemplateCache caches named, reusable scenario config templates
// (operator-curated UserConfig presets) in Redis with a 1h TTL.
type ConfigTemplateCache struct {
	redis *redis.Client
}

func NewConfigTemplateCache(redisClient *redis.Client) *ConfigTemplateCache {
	return &ConfigTemplateCache{redis: redisClient}
}

func configTemplateKey(name string) string { return "casugen:template:" + name }

func (c *ConfigTemplateCache) Get(ctx context.Context, name string) (*models.UserConfig, bool) {
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, configTemplateKey(name)).Result()
	if err != nil {
		return nil, false
	}
	var cfg models.UserConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, false
	}
	return &cfg, true
}

func (c *ConfigTemplateCache) Set(ctx context.Context, name string, cfg models.UserConfig) error {
	if c.redis == nil {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, configTemplateKey(name), raw, configTemplateTTL).Err()
}
