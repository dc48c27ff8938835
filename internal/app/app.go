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

package app

import (
	"github.com/go-arcade/feedback/internal/engine/bootstrap"
	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/importer"
	"github.com/go-arcade/feedback/internal/engine/migrate"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/service"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/event"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type App struct {
	Conf     *config.AppConfig
	Logger   *zap.Logger
	Repos    *repo.Repositories
	Services *service.Services
	Setup    *bootstrap.Setup
	Schema   *migrate.Schema
	Runner   *migrate.Runner
	Lock     *migrate.SetupLock
	Importer *importer.Importer
	Metrics  *prometheus.Registry
}

func NewApp(
	conf *config.AppConfig,
	logger *zap.Logger,
	manager database.Manager,
	repos *repo.Repositories,
	services *service.Services,
	setup *bootstrap.Setup,
	schema *migrate.Schema,
	runner *migrate.Runner,
	lock *migrate.SetupLock,
	imp *importer.Importer,
	registry *prometheus.Registry,
) (*App, func(), error) {
	// notifications are delivered elsewhere; the event is recorded here
	services.Events.RegisterHandler(event.FeedbackCreatedName, event.HandlerFunc(func(e event.Event) {
		created := e.(event.FeedbackCreated)
		log.Infow("feedback created event", "id", created.ID, "url", created.Fields["url"])
	}))

	app := &App{
		Conf:     conf,
		Logger:   logger,
		Repos:    repos,
		Services: services,
		Setup:    setup,
		Schema:   schema,
		Runner:   runner,
		Lock:     lock,
		Importer: imp,
		Metrics:  registry,
	}

	cleanup := func() {
		if err := manager.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
		_ = log.Sync()
	}
	return app, cleanup, nil
}
