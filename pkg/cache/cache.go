package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/contaleve/onboarding-backend/config"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes the Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// TokenStore holds the application token issued by the registration
// service. The token is process-wide, last-write-wins and may disappear
// at any time; callers must be prepared to re-acquire it.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context) error
}

const appTokenKey = "cronos:app_token"

type redisTokenStore struct {
	client *redis.Client
}

// NewTokenStore returns a TokenStore backed by the given Redis client.
func NewTokenStore(client *redis.Client) TokenStore {
	return &redisTokenStore{client: client}
}

func (s *redisTokenStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, appTokenKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisTokenStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, appTokenKey, token, ttl).Err()
}

func (s *redisTokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, appTokenKey).Err()
}

type memoryTokenStore struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenStore returns an in-process TokenStore, used when Redis
// is not configured and in tests.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}

func (s *memoryTokenStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || (!s.expiresAt.IsZero() && time.Now().After(s.expiresAt)) {
		return "", nil
	}
	return s.token, nil
}

func (s *memoryTokenStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if ttl > 0 {
		s.expiresAt = time.Now().Add(ttl)
	} else {
		s.expiresAt = time.Time{}
	}
	return nil
}

func (s *memoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	return nil
}

// ProfileCache keeps the last known profile payload returned by the
// registration service for an external id. Entries are advisory only;
// the external service remains the system of record.
type ProfileCache interface {
	Set(ctx context.Context, externalID string, profile map[string]interface{}, ttl time.Duration) error
	Get(ctx context.Context, externalID string) (map[string]interface{}, bool, error)
	Delete(ctx context.Context, externalID string) error
}

type redisProfileCache struct {
	client *redis.Client
}

// NewProfileCache returns a ProfileCache backed by the given Redis client.
func NewProfileCache(client *redis.Client) ProfileCache {
	return &redisProfileCache{client: client}
}

func profileKey(externalID string) string {
	return fmt.Sprintf("cronos:profile:%s", externalID)
}

func (c *redisProfileCache) Set(ctx context.Context, externalID string, profile map[string]interface{}, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKey(externalID), data, ttl).Err()
}

func (c *redisProfileCache) Get(ctx context.Context, externalID string) (map[string]interface{}, bool, error) {
	val, err := c.client.Get(ctx, profileKey(externalID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var profile map[string]interface{}
	if err := json.Unmarshal(val, &profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

func (c *redisProfileCache) Delete(ctx context.Context, externalID string) error {
	return c.client.Del(ctx, profileKey(externalID)).Err()
}

type memoryProfileCache struct {
	mu      sync.RWMutex
	entries map[string]memoryProfileEntry
}

type memoryProfileEntry struct {
	profile   map[string]interface{}
	expiresAt time.Time
}

// NewMemoryProfileCache returns an in-process ProfileCache.
func NewMemoryProfileCache() ProfileCache {
	return &memoryProfileCache{entries: make(map[string]memoryProfileEntry)}
}

func (c *memoryProfileCache) Set(ctx context.Context, externalID string, profile map[string]interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := memoryProfileEntry{profile: profile}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[externalID] = entry
	return nil
}

func (c *memoryProfileCache) Get(ctx context.Context, externalID string) (map[string]interface{}, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[externalID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.profile, true, nil
}

func (c *memoryProfileCache) Delete(ctx context.Context, externalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, externalID)
	return nil
}
