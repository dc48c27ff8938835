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
	"context"
	"sort"

	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/metrics"
	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	// VersionKey is the Setting holding the installed schema version
	VersionKey = "db_version"
	// LegacyVersionKey is where releases before the Setting table kept it
	LegacyVersionKey = "feedback_db_version"
	// BaseVersion is reported when no marker exists at all
	BaseVersion = "0.0.0"
)

// Env is what a step may touch
type Env struct {
	DB       *gorm.DB
	Settings repo.ISettingRepository
	Legacy   repo.ILegacyRepository
}

// Step is one in-place transformation introduced by Version. Up must be
// idempotent: a second run against an already migrated store changes nothing.
type Step struct {
	Version string
	Name    string
	Up      func(ctx context.Context, env *Env) error
}

// Result describes one Migrate call
type Result struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Applied []string `json:"applied"`
	// Marker is the installed version after the run
	Marker string `json:"marker"`
}

type Runner struct {
	db       *gorm.DB
	settings repo.ISettingRepository
	legacy   repo.ILegacyRepository
	steps    []Step
}

// NewRunner creates a runner with the built-in steps
func NewRunner(db database.IDatabase, settings repo.ISettingRepository, legacy repo.ILegacyRepository) *Runner {
	return NewRunnerWithSteps(db, settings, legacy, Steps())
}

// NewRunnerWithSteps creates a runner over an explicit step list, sorted by version
func NewRunnerWithSteps(db database.IDatabase, settings repo.ISettingRepository, legacy repo.ILegacyRepository, steps []Step) *Runner {
	sorted := append([]Step(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return goversion.Must(goversion.NewVersion(sorted[i].Version)).
			LessThan(goversion.Must(goversion.NewVersion(sorted[j].Version)))
	})
	return &Runner{
		db:       db.Database(),
		settings: settings,
		legacy:   legacy,
		steps:    sorted,
	}
}

func (r *Runner) Steps() []Step {
	return r.steps
}

// InstalledVersion reads the version marker, falling back to the legacy
// option and then to BaseVersion.
func (r *Runner) InstalledVersion(ctx context.Context) (string, error) {
	v, ok, err := r.settings.GetUncached(ctx, VersionKey)
	if err != nil {
		return "", errors.Wrap(err, "read installed version")
	}
	if ok && v != "" {
		return v, nil
	}
	v, ok, err = r.legacy.GetOption(ctx, LegacyVersionKey)
	if err != nil {
		return "", errors.Wrap(err, "read legacy installed version")
	}
	if ok && v != "" {
		return v, nil
	}
	return BaseVersion, nil
}

// Migrate applies every step with from < step.Version <= to in ascending
// order. The marker advances after each step, so a failure leaves it at the
// last completed step. A stored marker newer than from wins, which makes a
// repeated call a no-op. The marker never moves backwards.
func (r *Runner) Migrate(ctx context.Context, from, to string) (*Result, error) {
	fromV, err := goversion.NewVersion(from)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid from version %q", from)
	}
	toV, err := goversion.NewVersion(to)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid target version %q", to)
	}

	installed, err := r.InstalledVersion(ctx)
	if err != nil {
		return nil, err
	}
	if iv, err := goversion.NewVersion(installed); err == nil && iv.GreaterThan(fromV) {
		fromV = iv
	}

	result := &Result{From: from, To: to, Marker: installed}
	if toV.LessThan(fromV) {
		log.Warnw("target version is older than the installed one, nothing to do", "installed", fromV.Original(), "target", to)
		return result, nil
	}

	env := &Env{DB: database.WriteDB(r.db.WithContext(ctx)), Settings: r.settings, Legacy: r.legacy}
	for _, step := range r.steps {
		v := goversion.Must(goversion.NewVersion(step.Version))
		if !v.GreaterThan(fromV) || v.GreaterThan(toV) {
			continue
		}

		log.Infow("applying migration step", "version", step.Version, "name", step.Name)
		if err := step.Up(ctx, env); err != nil {
			metrics.MigrationStepsTotal.WithLabelValues(step.Version, metrics.ResultError).Inc()
			return result, errors.Wrapf(err, "migration %s (%s)", step.Version, step.Name)
		}
		metrics.MigrationStepsTotal.WithLabelValues(step.Version, metrics.ResultSuccess).Inc()
		result.Applied = append(result.Applied, step.Version)

		if err := r.setMarker(ctx, installed, step.Version); err != nil {
			return result, err
		}
		installed = step.Version
		result.Marker = installed
	}

	if err := r.setMarker(ctx, installed, to); err != nil {
		return result, err
	}
	result.Marker = to
	return result, nil
}

// setMarker writes the marker unless it already holds value
func (r *Runner) setMarker(ctx context.Context, current, value string) error {
	if current == value {
		stored, ok, err := r.settings.GetUncached(ctx, VersionKey)
		if err != nil {
			return errors.Wrap(err, "read installed version")
		}
		if ok && stored == value {
			return nil
		}
	}
	if err := r.settings.Set(ctx, VersionKey, value, true); err != nil {
		return errors.Wrapf(err, "advance installed version to %s", value)
	}
	return nil
}
