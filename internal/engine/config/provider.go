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
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/google/wire"
)

// ProviderSet provides configuration sections
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConfig,
	ProvideDatabaseConfig,
	ProvideCacheConfig,
	ProvideLegacyConfig,
	ProvideSetupConfig,
)

// ProvideConf loads the application configuration
func ProvideConf(configPath string) *AppConfig {
	return NewConf(configPath)
}

func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	return &appConf.Log
}

func ProvideDatabaseConfig(appConf *AppConfig) database.Database {
	return appConf.Database
}

func ProvideCacheConfig(appConf *AppConfig) cache.FastCacheConfig {
	return appConf.Cache
}

func ProvideLegacyConfig(appConf *AppConfig) LegacyConfig {
	return appConf.Legacy
}

func ProvideSetupConfig(appConf *AppConfig) SetupConfig {
	return appConf.Setup
}
