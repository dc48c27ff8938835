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
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/event"
	"github.com/google/wire"
)

// ProviderSet provides the service layer
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideServices,
)

func ProvideEventBus() *event.EventBus {
	return event.NewEventBus()
}

func ProvideServices(repos *repo.Repositories, bus *event.EventBus) *Services {
	return NewServices(repos, bus)
}
