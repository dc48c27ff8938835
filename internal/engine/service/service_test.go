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

package service

import (
	"testing"

	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/testutil"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/event"
	"gorm.io/gorm"
)

func newTestServices(t *testing.T) (*Services, *repo.Repositories, *gorm.DB) {
	t.Helper()
	db := testutil.NewMigratedDB(t)
	c := cache.NewFastCache(cache.FastCacheConfig{MaxBytes: 1024 * 1024})
	repos := repo.NewRepositories(database.NewGormDB(db), c, testutil.LegacyPrefix)
	return NewServices(repos, event.NewEventBus()), repos, db
}
