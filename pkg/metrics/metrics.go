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

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feedback"

var (
	// MigrationStepsTotal counts migration steps by target version and result
	MigrationStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_steps_total",
			Help:      "Schema migration steps executed, by version and result.",
		},
		[]string{"version", "result"},
	)

	// LegacyImportItemsTotal counts legacy records processed by kind (feedback, reply, metadata_type, ...)
	LegacyImportItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_import_items_total",
			Help:      "Legacy records imported, by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// SettingsCacheRequestsTotal counts settings reads by cache result (hit, miss, populate)
	SettingsCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_cache_requests_total",
			Help:      "Settings store cache lookups, by result.",
		},
		[]string{"result"},
	)
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultLoad    = "populate"
)

// Collectors returns every collector owned by this package
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		MigrationStepsTotal,
		LegacyImportItemsTotal,
		SettingsCacheRequestsTotal,
	}
}

// Register registers all collectors; registering twice on the same registry is not an error
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
