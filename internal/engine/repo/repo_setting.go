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

package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/metrics"
	"github.com/spf13/cast"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ISettingRepository is the settings store: a key/value table fronted by a
// process-local cache of the autoload rows. Another process writing the same
// key is not observed here until InvalidateCache.
type ISettingRepository interface {
	// Get returns an autoload value. The first call loads every autoload row.
	Get(ctx context.Context, key string) (string, bool, error)
	GetString(ctx context.Context, key, def string) string
	GetBool(ctx context.Context, key string, def bool) bool
	GetInt(ctx context.Context, key string, def int) int
	// GetJSON decodes an autoload value into out and reports whether it was present
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	// GetUncached reads the row from storage whatever its autoload flag
	GetUncached(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, autoload bool) error
	Delete(ctx context.Context, key string) (bool, error)
	InvalidateCache()

	// InsertIfAbsent creates the row only when the key is free
	InsertIfAbsent(ctx context.Context, key, value string, autoload bool) (bool, error)
	// CompareAndSwap replaces the value only while it still equals old
	CompareAndSwap(ctx context.Context, key, old, value string) (bool, error)
	// CompareAndDelete removes the row only while its value equals value
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

const settingCacheKeyPrefix = "setting:"

type SettingRepo struct {
	database.IDatabase
	kv cache.ICache

	// mu orders cache population against cache writes from Set/Delete
	mu        sync.Mutex
	populated atomic.Bool
	group     singleflight.Group
}

func NewSettingRepo(db database.IDatabase, c cache.ICache) ISettingRepository {
	return &SettingRepo{IDatabase: db, kv: c}
}

func (r *SettingRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

func cacheKey(key string) string {
	return settingCacheKeyPrefix + key
}

// EncodeValue serializes a setting value: strings as-is, bools as "1"/"0",
// numbers in decimal and everything else as JSON.
func EncodeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToStringE(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	default:
		return sonic.MarshalString(v)
	}
}

func (r *SettingRepo) ensurePopulated(ctx context.Context) error {
	if r.populated.Load() {
		return nil
	}
	_, err, _ := r.group.Do("populate", func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.populated.Load() {
			return nil, nil
		}

		var rows []model.Setting
		err := database.ReadDB(r.db(ctx)).
			Select("option_name", "option_value").
			Where("autoload = ?", model.AutoloadYes).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load autoload settings: %w", err)
		}
		for _, row := range rows {
			if err := r.kv.Set(ctx, cacheKey(row.OptionName), row.OptionValue, 0).Err(); err != nil {
				return nil, fmt.Errorf("cache setting %s: %w", row.OptionName, err)
			}
		}
		r.populated.Store(true)
		metrics.SettingsCacheRequestsTotal.WithLabelValues(metrics.ResultLoad).Inc()
		log.Debugw("settings cache populated", "count", len(rows))
		return nil, nil
	})
	return err
}

func (r *SettingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if err := r.ensurePopulated(ctx); err != nil {
		return "", false, err
	}
	val, err := r.kv.Get(ctx, cacheKey(key)).Result()
	if errors.Is(err, cache.ErrCacheMiss) {
		metrics.SettingsCacheRequestsTotal.WithLabelValues(metrics.ResultMiss).Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	metrics.SettingsCacheRequestsTotal.WithLabelValues(metrics.ResultHit).Inc()
	return val, true, nil
}

func (r *SettingRepo) GetString(ctx context.Context, key, def string) string {
	val, ok, err := r.Get(ctx, key)
	if err != nil {
		log.Warnw("settings read failed, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	return val
}

// GetBool accepts 1/0, true/false, yes/no and on/off
func (r *SettingRepo) GetBool(ctx context.Context, key string, def bool) bool {
	val, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "on":
		return true
	case "no", "off", "":
		return false
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return def
	}
	return b
}

func (r *SettingRepo) GetInt(ctx context.Context, key string, def int) int {
	val, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	n, err := cast.ToIntE(strings.TrimSpace(val))
	if err != nil {
		return def
	}
	return n
}

func (r *SettingRepo) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	val, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := sonic.UnmarshalString(val, out); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (r *SettingRepo) GetUncached(ctx context.Context, key string) (string, bool, error) {
	var row model.Setting
	err := database.WriteDB(r.db(ctx)).
		Select("option_value").
		Where("option_name = ?", key).
		Take(&row).Error
	if IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return row.OptionValue, true, nil
}

func (r *SettingRepo) Exists(ctx context.Context, key string) (bool, error) {
	return Exist(database.WriteDB(r.db(ctx)).Model(&model.Setting{}).Where("option_name = ?", key))
}

func autoloadFlag(autoload bool) string {
	if autoload {
		return model.AutoloadYes
	}
	return model.AutoloadNo
}

// Set upserts the row and then updates the cache entry. A non-autoload value
// is evicted instead, since Get never serves non-autoload rows.
func (r *SettingRepo) Set(ctx context.Context, key string, value any, autoload bool) error {
	encoded, err := EncodeValue(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	row := &model.Setting{OptionName: key, OptionValue: encoded, Autoload: autoloadFlag(autoload)}
	err = r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "option_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_value", "autoload", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if autoload {
		return r.kv.Set(ctx, cacheKey(key), encoded, 0).Err()
	}
	return r.kv.Del(ctx, cacheKey(key)).Err()
}

func (r *SettingRepo) Delete(ctx context.Context, key string) (bool, error) {
	res := r.db(ctx).Where("option_name = ?", key).Delete(&model.Setting{})
	if res.Error != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, res.Error)
	}
	r.evict(ctx, key)
	return res.RowsAffected > 0, nil
}

func (r *SettingRepo) evict(ctx context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.kv.Del(ctx, cacheKey(key)).Err(); err != nil {
		log.Warnw("failed to evict setting", "key", key, "error", err)
	}
}

// InvalidateCache drops every cached value; the next Get reloads from storage
func (r *SettingRepo) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.kv.FlushDB(context.Background()).Err()
	r.populated.Store(false)
}

func (r *SettingRepo) InsertIfAbsent(ctx context.Context, key, value string, autoload bool) (bool, error) {
	row := &model.Setting{OptionName: key, OptionValue: value, Autoload: autoloadFlag(autoload)}
	res := r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "option_name"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("insert setting %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if autoload {
		r.mu.Lock()
		defer r.mu.Unlock()
		_ = r.kv.Set(ctx, cacheKey(key), value, 0).Err()
	}
	return true, nil
}

func (r *SettingRepo) CompareAndSwap(ctx context.Context, key, old, value string) (bool, error) {
	res := r.db(ctx).Model(&model.Setting{}).
		Where("option_name = ? AND option_value = ?", key, old).
		Update("option_value", value)
	if res.Error != nil {
		return false, fmt.Errorf("swap setting %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.evict(ctx, key)
	return true, nil
}

func (r *SettingRepo) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	res := r.db(ctx).Where("option_name = ? AND option_value = ?", key, value).Delete(&model.Setting{})
	if res.Error != nil {
		return false, fmt.Errorf("delete setting %s: %w", key, res.Error)
	}
	r.evict(ctx, key)
	return res.RowsAffected > 0, nil
}
