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
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get for an absent or expired key
var ErrCacheMiss = redis.Nil

// ICache is the cache abstraction, shaped after go-redis so a remote cache can stand in later
type ICache interface {
	// Get returns the value, or ErrCacheMiss as the command error
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set stores value; expiration <= 0 means no expiry
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	// Del removes keys and reports how many existed
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// Exists counts how many of keys are present
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	// FlushDB drops every key
	FlushDB(ctx context.Context) *redis.StatusCmd
}
