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

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/version"
	"github.com/spf13/viper"
)

const envPrefix = "FEEDBACK"

// LegacyConfig locates the legacy content+attribute store that is imported once
type LegacyConfig struct {
	TablePrefix string `mapstructure:"tablePrefix"`
	ContentType string `mapstructure:"contentType"`
}

// SetupConfig controls the startup sequence
type SetupConfig struct {
	TargetVersion string `mapstructure:"targetVersion"`
	LockTTL       int    `mapstructure:"lockTTL"` // seconds
	ImportLegacy  bool   `mapstructure:"importLegacy"`
}

// GetLockTTL returns the setup lock TTL as a duration
func (s SetupConfig) GetLockTTL() time.Duration {
	if s.LockTTL > 0 {
		return time.Duration(s.LockTTL) * time.Second
	}
	return 10 * time.Minute
}

type AppConfig struct {
	Log      log.Conf
	Database database.Database
	Cache    cache.FastCacheConfig
	Legacy   LegacyConfig
	Setup    SetupConfig
}

var (
	mu   sync.RWMutex
	cfg  *AppConfig
	once sync.Once
)

// NewConf loads the configuration once per process
func NewConf(confPath string) *AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confPath)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := log.SetDefaults()
	v.SetDefault("log.output", d.Output)
	v.SetDefault("log.path", d.Path)
	v.SetDefault("log.filename", d.Filename)
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.keepHours", d.KeepHours)
	v.SetDefault("log.rotateSize", d.RotateSize)
	v.SetDefault("log.rotateNum", d.RotateNum)

	v.SetDefault("database.driver", database.DriverMySQL)
	v.SetDefault("database.tablePrefix", "fb_")
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.sqlite.path", "feedback.db")

	v.SetDefault("cache.maxBytes", 16*1024*1024)

	v.SetDefault("legacy.tablePrefix", "wp_")
	v.SetDefault("legacy.contentType", "visual_feedback")

	v.SetDefault("setup.targetVersion", version.SchemaVersion)
	v.SetDefault("setup.lockTTL", 600)
	v.SetDefault("setup.importLegacy", true)
}

// LoadConfigFile loads the config file at confPath (toml, yaml or json by extension).
// An empty path loads defaults and FEEDBACK_* environment overrides only.
func LoadConfigFile(confPath string) (*AppConfig, error) {
	config := viper.New()
	setDefaults(config)
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if confPath != "" {
		config.SetConfigFile(confPath)
		if err := config.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	loaded := &AppConfig{}
	if err := config.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}

	if confPath != "" {
		config.OnConfigChange(func(e fsnotify.Event) {
			log.Infow("configuration changed, reloading", "file", e.Name)
			next := &AppConfig{}
			if err := config.Unmarshal(next); err != nil {
				log.Errorw("failed to unmarshal changed configuration", "file", e.Name, "error", err)
				return
			}
			mu.Lock()
			cfg = next
			mu.Unlock()
		})
		config.WatchConfig()
		log.Infow("config file loaded", "path", confPath)
	}

	return loaded, nil
}

// Current returns the latest configuration seen by the file watcher.
// Database and log settings are applied at startup only; a reload does not reconnect.
func Current() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
