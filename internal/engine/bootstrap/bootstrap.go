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

package bootstrap

import (
	"context"
	"time"

	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/importer"
	"github.com/go-arcade/feedback/internal/engine/migrate"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/pkg/errors"
)

const defaultLockPoll = 2 * time.Second

// Outcome is what one Setup run did
type Outcome struct {
	Migration *migrate.Result
	Import    *importer.Report
}

// Setup runs the startup sequence under the setup lock: ensure tables,
// migrate to the target version, then import legacy data once.
type Setup struct {
	conf     config.SetupConfig
	lock     *migrate.SetupLock
	schema   *migrate.Schema
	runner   *migrate.Runner
	importer *importer.Importer
	poll     time.Duration
}

func NewSetup(
	conf config.SetupConfig,
	lock *migrate.SetupLock,
	schema *migrate.Schema,
	runner *migrate.Runner,
	imp *importer.Importer,
) *Setup {
	return &Setup{
		conf:     conf,
		lock:     lock,
		schema:   schema,
		runner:   runner,
		importer: imp,
		poll:     defaultLockPoll,
	}
}

// Run blocks until the lock is free or ctx ends. The lock is released on
// every return path once acquired.
func (s *Setup) Run(ctx context.Context) (out *Outcome, err error) {
	start := time.Now()
	if err := s.lock.AcquireWait(ctx, s.poll); err != nil {
		return nil, errors.Wrap(err, "acquire setup lock")
	}
	defer func() {
		// a cancelled ctx must not leave the lock behind
		if rerr := s.lock.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.Errorw("failed to release setup lock", "owner", s.lock.Owner(), "error", rerr)
			if err == nil {
				err = errors.Wrap(rerr, "release setup lock")
			}
		}
	}()

	out, err = s.run(ctx)
	if err != nil {
		return out, err
	}
	log.Infow("setup finished", "schema", out.Migration.Marker, "elapsed", time.Since(start).String())
	return out, nil
}

func (s *Setup) run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{}
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return out, errors.Wrap(err, "ensure schema")
	}

	result, err := s.Migrate(ctx)
	out.Migration = result
	if err != nil {
		return out, err
	}

	if !s.conf.ImportLegacy {
		out.Import = &importer.Report{Skipped: true}
		return out, nil
	}
	report, err := s.importer.ImportIfNeeded(ctx)
	out.Import = report
	if err != nil {
		return out, errors.Wrap(err, "import legacy data")
	}
	return out, nil
}

// Migrate runs the migration steps from the installed version to the
// configured target, without taking the lock.
func (s *Setup) Migrate(ctx context.Context) (*migrate.Result, error) {
	installed, err := s.runner.InstalledVersion(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read installed version")
	}
	result, err := s.runner.Migrate(ctx, installed, s.conf.TargetVersion)
	if err != nil {
		return result, errors.Wrapf(err, "migrate %s -> %s", installed, s.conf.TargetVersion)
	}
	return result, nil
}
