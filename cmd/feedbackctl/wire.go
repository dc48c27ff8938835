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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/feedback/internal/app"
	"github.com/go-arcade/feedback/internal/engine/bootstrap"
	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/importer"
	"github.com/go-arcade/feedback/internal/engine/migrate"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/service"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/metrics"
	"github.com/google/wire"
)

func initApp(configPath string) (*app.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		log.ProviderSet,
		database.ProviderSet,
		cache.ProviderSet,
		repo.ProviderSet,
		migrate.ProviderSet,
		importer.ProviderSet,
		service.ProviderSet,
		bootstrap.ProviderSet,
		metrics.ProviderSet,
		app.NewApp,
	))
}
