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

package migrate

import (
	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/google/wire"
)

// ProviderSet is the Wire provider set for schema and migration
var ProviderSet = wire.NewSet(
	ProvideSchema,
	ProvideRunner,
	ProvideSetupLock,
)

func ProvideSchema(db database.IDatabase, conf database.Database) *Schema {
	return NewSchema(db, conf)
}

func ProvideRunner(db database.IDatabase, repos *repo.Repositories) *Runner {
	return NewRunner(db, repos.Setting, repos.Legacy)
}

func ProvideSetupLock(db database.IDatabase, repos *repo.Repositories, setup config.SetupConfig) *SetupLock {
	return NewSetupLock(db, repos.Setting, setup.GetLockTTL())
}
