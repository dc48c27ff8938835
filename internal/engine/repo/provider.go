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
	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/google/wire"
)

// ProviderSet provides the repository layer
var ProviderSet = wire.NewSet(ProvideRepositories)

// ProvideRepositories builds every repository over the shared database and settings cache
func ProvideRepositories(db database.IDatabase, c cache.ICache, legacy config.LegacyConfig) *Repositories {
	return NewRepositories(db, c, legacy.TablePrefix)
}
