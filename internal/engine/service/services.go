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
)

// Services groups every service
type Services struct {
	Feedback *FeedbackService
	Metadata *MetadataRegistry
	Events   *event.EventBus
}

func NewServices(repos *repo.Repositories, bus *event.EventBus) *Services {
	registry := NewMetadataRegistry(repos)
	return &Services{
		Feedback: NewFeedbackService(repos, registry, bus),
		Metadata: registry,
		Events:   bus,
	}
}
