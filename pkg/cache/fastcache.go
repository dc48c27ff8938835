// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const defaultMaxBytes = 16 * 1024 * 1024

// FastCacheConfig holds fastcache configuration
type FastCacheConfig struct {
	MaxBytes int `mapstructure:"maxBytes"` // default 16MB
}

// FastCache is a process-local ICache on top of VictoriaMetrics fastcache.
// Expiry is checked lazily on read.
type FastCache struct {
	mu    sync.RWMutex
	cache *fastcache.Cache
	ttls  map[string]time.Time
}

var _ ICache = (*FastCache)(nil)

// NewFastCache creates a new FastCache instance
func NewFastCache(conf FastCacheConfig) *FastCache {
	maxBytes := conf.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &FastCache{
		cache: fastcache.New(maxBytes),
		ttls:  make(map[string]time.Time),
	}
}

// expiredLocked must be called with mu held
func (fc *FastCache) expiredLocked(key string) bool {
	exp, ok := fc.ttls[key]
	return ok && time.Now().After(exp)
}

// Get returns the value for the given key. A stored empty string is a hit.
func (fc *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	if fc.expiredLocked(key) {
		cmd.SetErr(ErrCacheMiss)
		return cmd
	}
	value, ok := fc.cache.HasGet(nil, []byte(key))
	if !ok {
		cmd.SetErr(ErrCacheMiss)
		return cmd
	}
	cmd.SetVal(string(value))
	return cmd
}

// Set sets the value for the given key with expiration
func (fc *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)

	raw, err := encodeValue(value)
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.cache.Set([]byte(key), raw)
	if expiration > 0 {
		fc.ttls[key] = time.Now().Add(expiration)
	} else {
		delete(fc.ttls, key)
	}

	cmd.SetVal("OK")
	return cmd
}

// Del deletes the given keys
func (fc *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")

	fc.mu.Lock()
	defer fc.mu.Unlock()

	var count int64
	for _, key := range keys {
		k := []byte(key)
		if fc.cache.Has(k) && !fc.expiredLocked(key) {
			count++
		}
		fc.cache.Del(k)
		delete(fc.ttls, key)
	}
	cmd.SetVal(count)
	return cmd
}

// Exists checks if keys exist in the cache
func (fc *FastCache) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "exists")

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	var count int64
	for _, key := range keys {
		if !fc.expiredLocked(key) && fc.cache.Has([]byte(key)) {
			count++
		}
	}
	cmd.SetVal(count)
	return cmd
}

// FlushDB removes all items from the cache
func (fc *FastCache) FlushDB(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "flushdb")
	fc.Clear()
	cmd.SetVal("OK")
	return cmd
}

// Clear removes all items from the cache
func (fc *FastCache) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.cache.Reset()
	fc.ttls = make(map[string]time.Time)
}

// Stats returns cache statistics
func (fc *FastCache) Stats() fastcache.Stats {
	var stats fastcache.Stats
	fc.cache.UpdateStats(&stats)
	return stats
}

func encodeValue(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case bool:
		if v {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	default:
		return sonic.Marshal(v)
	}
}
